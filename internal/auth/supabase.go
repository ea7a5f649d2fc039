package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"parley/internal/domain"
	"parley/internal/domain/models"
)

// SupabaseClient talks to the Supabase Auth REST API for signup and
// password login. It implements services.CredentialsService.
type SupabaseClient struct {
	supabaseURL string
	anonKey     string
	httpClient  *http.Client
}

// NewSupabaseClient creates a client for the public auth endpoints.
// The anon key is sufficient; no service role key is needed here.
func NewSupabaseClient(supabaseURL, anonKey string) *SupabaseClient {
	return &SupabaseClient{
		supabaseURL: supabaseURL,
		anonKey:     anonKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// supabaseAuthError is the error body shape returned by Supabase Auth.
// Older endpoints use msg/error_description, newer ones use message.
type supabaseAuthError struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func (e *supabaseAuthError) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Msg != "":
		return e.Msg
	case e.ErrorDescription != "":
		return e.ErrorDescription
	default:
		return "auth request rejected"
	}
}

// SignUp registers a new user with email and password.
func (c *SupabaseClient) SignUp(ctx context.Context, email, password string) error {
	url := fmt.Sprintf("%s/auth/v1/signup", c.supabaseURL)

	_, err := c.post(ctx, url, credentialsPayload{Email: email, Password: password})
	return err
}

// LogIn exchanges email and password for a session via the password grant.
func (c *SupabaseClient) LogIn(ctx context.Context, email, password string) (*models.Session, error) {
	url := fmt.Sprintf("%s/auth/v1/token?grant_type=password", c.supabaseURL)

	body, err := c.post(ctx, url, credentialsPayload{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	if session.AccessToken == "" {
		return nil, &domain.AuthProviderError{
			Status:  http.StatusBadGateway,
			Message: "login response missing access token",
		}
	}

	return &session, nil
}

// post sends a JSON payload to a Supabase Auth endpoint and returns the
// response body, translating non-2xx statuses into AuthProviderError.
func (c *SupabaseClient) post(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	var authErr supabaseAuthError
	_ = json.Unmarshal(body, &authErr)

	return nil, &domain.AuthProviderError{
		Status:     resp.StatusCode,
		Message:    authErr.text(),
		Validation: resp.StatusCode >= 400 && resp.StatusCode < 500,
	}
}
