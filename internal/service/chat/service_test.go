package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"parley/internal/domain"
	"parley/internal/domain/models"
	"parley/internal/domain/services"
	"parley/internal/repository/memory"
)

// stubGenerator returns a fixed reply, or fails every call when err is set.
type stubGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, userText string, prior []models.Turn) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func testTimeouts() Timeouts {
	return Timeouts{Store: time.Second, Generate: time.Second}
}

func newTestService(gen *stubGenerator) (services.ChatService, *stubGenerator) {
	if gen == nil {
		gen = &stubGenerator{reply: "generated reply"}
	}
	repo := memory.NewChatRepository()
	return NewService(repo, gen, testTimeouts(), slog.Default()), gen
}

func createChat(t *testing.T, svc services.ChatService, userID, title, firstText string) *services.CreateChatResult {
	t.Helper()
	result, err := svc.CreateChat(context.Background(), &services.CreateChatRequest{
		UserID:       userID,
		Title:        title,
		FirstMessage: models.Turn{Role: models.RoleUser, Text: firstText},
	})
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	return result
}

func TestCreateChatRoundTrip(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	result := createChat(t, svc, "alice", "T", "hi")

	if result.ChatID == "" {
		t.Fatal("expected a generated chat ID")
	}
	if result.AssistantMessage.Role != models.RoleAssistant {
		t.Errorf("assistant role: got %q", result.AssistantMessage.Role)
	}
	if result.AssistantMessage.Text != "generated reply" {
		t.Errorf("assistant text: got %q", result.AssistantMessage.Text)
	}

	chat, err := svc.GetChat(ctx, "alice", result.ChatID)
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if chat.Title != "T" {
		t.Errorf("title: got %q", chat.Title)
	}
	if len(chat.Turns) != 2 {
		t.Fatalf("turns: got %d, want 2", len(chat.Turns))
	}
	if chat.Turns[0].Role != models.RoleUser || chat.Turns[0].Text != "hi" {
		t.Errorf("turns[0]: %+v", chat.Turns[0])
	}
	if chat.Turns[1].Role != models.RoleAssistant {
		t.Errorf("turns[1] role: %q", chat.Turns[1].Role)
	}
}

func TestCreateChatValidation(t *testing.T) {
	svc, gen := newTestService(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  services.CreateChatRequest
	}{
		{
			name: "empty title",
			req: services.CreateChatRequest{
				UserID:       "alice",
				FirstMessage: models.Turn{Role: models.RoleUser, Text: "hi"},
			},
		},
		{
			name: "empty message text",
			req: services.CreateChatRequest{
				UserID:       "alice",
				Title:        "T",
				FirstMessage: models.Turn{Role: models.RoleUser},
			},
		},
		{
			name: "first message not a user turn",
			req: services.CreateChatRequest{
				UserID:       "alice",
				Title:        "T",
				FirstMessage: models.Turn{Role: models.RoleAssistant, Text: "hi"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateChat(ctx, &tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("got %v, want ErrValidation", err)
			}
		})
	}

	if gen.calls != 0 {
		t.Errorf("invalid requests must not reach the generator, got %d calls", gen.calls)
	}
}

func TestAppendMessageOrdering(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	result := createChat(t, svc, "alice", "T", "hi")

	assistant, err := svc.AppendMessage(ctx, "alice", result.ChatID, models.Turn{Role: models.RoleUser, Text: "follow-up"})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if assistant.Role != models.RoleAssistant {
		t.Errorf("assistant role: got %q", assistant.Role)
	}

	chat, _ := svc.GetChat(ctx, "alice", result.ChatID)
	if len(chat.Turns) != 4 {
		t.Fatalf("turns: got %d, want 4", len(chat.Turns))
	}
	if chat.Turns[2].Role != models.RoleUser || chat.Turns[2].Text != "follow-up" {
		t.Errorf("turns[N]: %+v", chat.Turns[2])
	}
	if chat.Turns[3].Role != models.RoleAssistant {
		t.Errorf("turns[N+1] role: %q", chat.Turns[3].Role)
	}
}

func TestAppendMessageUnknownChat(t *testing.T) {
	svc, _ := newTestService(nil)
	_, err := svc.AppendMessage(context.Background(), "alice", "no-such-chat", models.Turn{Role: models.RoleUser, Text: "hi"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestConcurrentAppendsBothSurvive(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	result := createChat(t, svc, "alice", "T", "hi")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AppendMessage(ctx, "alice", result.ChatID, models.Turn{Role: models.RoleUser, Text: "ping"})
			if err != nil {
				t.Errorf("concurrent AppendMessage: %v", err)
			}
		}()
	}
	wg.Wait()

	chat, err := svc.GetChat(ctx, "alice", result.ChatID)
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	// 2 original + 2 turns per append; neither append may be lost.
	if len(chat.Turns) != 6 {
		t.Errorf("turns after concurrent appends: got %d, want 6", len(chat.Turns))
	}
}

func TestGenerationFailurePersistsNothing(t *testing.T) {
	failing := &stubGenerator{err: &domain.GenerationError{Reason: "provider down"}}
	repo := memory.NewChatRepository()
	svc := NewService(repo, failing, testTimeouts(), slog.Default())
	ctx := context.Background()

	// CreateChat: nothing persisted at all.
	_, err := svc.CreateChat(ctx, &services.CreateChatRequest{
		UserID:       "alice",
		Title:        "T",
		FirstMessage: models.Turn{Role: models.RoleUser, Text: "hi"},
	})
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("CreateChat: got %v, want GenerationError", err)
	}
	chats, _ := repo.List(ctx, "alice")
	if len(chats) != 0 {
		t.Errorf("failed create must persist nothing, found %d chats", len(chats))
	}

	// AppendMessage: existing history untouched, user turn not persisted.
	working := &stubGenerator{reply: "ok"}
	svc2 := NewService(repo, working, testTimeouts(), slog.Default())
	result, err := svc2.CreateChat(ctx, &services.CreateChatRequest{
		UserID:       "alice",
		Title:        "T",
		FirstMessage: models.Turn{Role: models.RoleUser, Text: "hi"},
	})
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	svc3 := NewService(repo, failing, testTimeouts(), slog.Default())
	_, err = svc3.AppendMessage(ctx, "alice", result.ChatID, models.Turn{Role: models.RoleUser, Text: "more"})
	if !errors.As(err, &genErr) {
		t.Fatalf("AppendMessage: got %v, want GenerationError", err)
	}

	chat, _ := repo.Get(ctx, result.ChatID)
	if len(chat.Turns) != 2 {
		t.Errorf("failed append must not persist the user turn, got %d turns", len(chat.Turns))
	}
}

func TestOwnershipIsolation(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	result := createChat(t, svc, "alice", "Alice's chat", "hi")

	// Absent from B's listing.
	bobsChats, err := svc.ListChats(ctx, "bob")
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(bobsChats) != 0 {
		t.Errorf("bob's listing should be empty, got %+v", bobsChats)
	}

	// Direct access as B fails Forbidden on every operation.
	if _, err := svc.GetChat(ctx, "bob", result.ChatID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("GetChat as bob: got %v, want ErrForbidden", err)
	}
	if _, err := svc.AppendMessage(ctx, "bob", result.ChatID, models.Turn{Role: models.RoleUser, Text: "hi"}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("AppendMessage as bob: got %v, want ErrForbidden", err)
	}
	if _, err := svc.RenameChat(ctx, "bob", result.ChatID, "hijacked"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("RenameChat as bob: got %v, want ErrForbidden", err)
	}
	if err := svc.DeleteChat(ctx, "bob", result.ChatID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("DeleteChat as bob: got %v, want ErrForbidden", err)
	}

	// The chat is still intact for A.
	chat, err := svc.GetChat(ctx, "alice", result.ChatID)
	if err != nil {
		t.Fatalf("GetChat as alice: %v", err)
	}
	if chat.Title != "Alice's chat" || len(chat.Turns) != 2 {
		t.Errorf("chat mutated by forbidden operations: %+v", chat)
	}
}

func TestListChatsOnlyOwn(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	createChat(t, svc, "alice", "A1", "hi")
	createChat(t, svc, "bob", "B1", "hi")
	a2 := createChat(t, svc, "alice", "A2", "hi")

	chats, err := svc.ListChats(ctx, "alice")
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("alice's chats: got %d, want 2", len(chats))
	}
	if chats[0].ID != a2.ChatID {
		t.Errorf("most recent chat first: got %+v", chats)
	}
}

func TestRenameChat(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	result := createChat(t, svc, "alice", "Old", "hi")

	chat, err := svc.RenameChat(ctx, "alice", result.ChatID, "  New title  ")
	if err != nil {
		t.Fatalf("RenameChat: %v", err)
	}
	if chat.Title != "New title" {
		t.Errorf("title: got %q, want trimmed %q", chat.Title, "New title")
	}

	if _, err := svc.RenameChat(ctx, "alice", result.ChatID, "   "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank title: got %v, want ErrValidation", err)
	}
	if _, err := svc.RenameChat(ctx, "alice", "no-such-chat", "X"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown chat: got %v, want ErrNotFound", err)
	}
}

func TestMalformedChatIDIsNotFound(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	// A non-UUID id can never name a stored chat; it must map to
	// ErrNotFound on every operation, not to a store fault.
	if _, err := svc.GetChat(ctx, "alice", "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetChat: got %v, want ErrNotFound", err)
	}
	if _, err := svc.AppendMessage(ctx, "alice", "not-a-uuid", models.Turn{Role: models.RoleUser, Text: "hi"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("AppendMessage: got %v, want ErrNotFound", err)
	}
	if _, err := svc.RenameChat(ctx, "alice", "not-a-uuid", "T"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("RenameChat: got %v, want ErrNotFound", err)
	}
	if err := svc.DeleteChat(ctx, "alice", "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteChat: got %v, want ErrNotFound", err)
	}
}

func TestDeleteChatIdempotentNotFound(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	result := createChat(t, svc, "alice", "T", "hi")

	if err := svc.DeleteChat(ctx, "alice", result.ChatID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.DeleteChat(ctx, "alice", result.ChatID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
	if err := svc.DeleteChat(ctx, "alice", "never-existed"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("delete of unknown id: got %v, want ErrNotFound", err)
	}
}
