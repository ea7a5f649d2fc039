package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"parley/internal/domain"
	"parley/internal/domain/models"
)

func newChat(id, owner string) *models.Chat {
	return &models.Chat{
		ID:      id,
		OwnerID: owner,
		Title:   "Chat " + id,
		Turns: []models.Turn{
			{Role: models.RoleUser, Text: "hi"},
			{Role: models.RoleAssistant, Text: "hello"},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newChat("c1", "alice")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	chat, err := repo.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if chat.OwnerID != "alice" || len(chat.Turns) != 2 {
		t.Errorf("unexpected chat: %+v", chat)
	}

	// Stored record must not alias caller slices.
	chat.Turns[0].Text = "mutated"
	again, _ := repo.Get(ctx, "c1")
	if again.Turns[0].Text != "hi" {
		t.Error("Get must return a copy, not shared state")
	}
}

func TestCreateDuplicateConflicts(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newChat("c1", "alice")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, newChat("c1", "bob"))
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate create: got %v, want ErrConflict", err)
	}
}

func TestListFiltersByOwner(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()

	_ = repo.Create(ctx, newChat("c1", "alice"))
	_ = repo.Create(ctx, newChat("c2", "bob"))
	_ = repo.Create(ctx, newChat("c3", "alice"))

	chats, err := repo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("alice's chats: got %d, want 2", len(chats))
	}
	// Most recently touched first.
	if chats[0].ID != "c3" || chats[1].ID != "c1" {
		t.Errorf("unexpected order: %+v", chats)
	}

	empty, err := repo.List(ctx, "carol")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("owner with no chats: got %v, want empty slice", empty)
	}
}

func TestAppendTurns(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, newChat("c1", "alice"))

	updated, err := repo.AppendTurns(ctx, "c1", []models.Turn{
		{Role: models.RoleUser, Text: "more"},
		{Role: models.RoleAssistant, Text: "reply"},
	})
	if err != nil {
		t.Fatalf("AppendTurns: %v", err)
	}
	if len(updated.Turns) != 4 {
		t.Fatalf("turns after append: got %d, want 4", len(updated.Turns))
	}
	if updated.Turns[2].Text != "more" || updated.Turns[3].Role != models.RoleAssistant {
		t.Errorf("unexpected tail: %+v", updated.Turns[2:])
	}
}

func TestAppendTurnsUnknownChat(t *testing.T) {
	repo := NewChatRepository()
	_, err := repo.AppendTurns(context.Background(), "nope", []models.Turn{{Role: models.RoleUser, Text: "x"}})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("append to unknown chat: got %v, want ErrNotFound", err)
	}
}

func TestConcurrentAppendsBothSurvive(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, newChat("c1", "alice"))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AppendTurns(ctx, "c1", []models.Turn{
				{Role: models.RoleUser, Text: "ping"},
				{Role: models.RoleAssistant, Text: "pong"},
			})
			if err != nil {
				t.Errorf("concurrent AppendTurns: %v", err)
			}
		}()
	}
	wg.Wait()

	chat, err := repo.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(chat.Turns) != 6 {
		t.Errorf("turns after concurrent appends: got %d, want 6 (2 original + 2x2)", len(chat.Turns))
	}
}

func TestDeleteIsNotFoundWhenRepeated(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, newChat("c1", "alice"))

	if err := repo.Delete(ctx, "c1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := repo.Delete(ctx, "c1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "never-existed"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("delete of unknown id: got %v, want ErrNotFound", err)
	}
}

func TestRename(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, newChat("c1", "alice"))

	updated, err := repo.Rename(ctx, "c1", "New title")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if updated.Title != "New title" {
		t.Errorf("title: got %q", updated.Title)
	}

	if _, err := repo.Rename(ctx, "nope", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("rename unknown chat: got %v, want ErrNotFound", err)
	}
}
