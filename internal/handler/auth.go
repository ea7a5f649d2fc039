package handler

import (
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"parley/internal/domain"
	"parley/internal/domain/models"
	"parley/internal/domain/services"
	"parley/internal/httputil"
)

// AuthHandler handles signup and login requests.
type AuthHandler struct {
	credentials services.CredentialsService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(credentials services.CredentialsService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		logger:      logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req credentialsRequest) validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required, validation.Length(6, 72)),
	)
}

type signupResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message string          `json:"message"`
	Session *models.Session `json:"session"`
}

// Signup registers a new user with the auth provider
// POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.credentials.SignUp(r.Context(), req.Email, req.Password); err != nil {
		h.respondAuthError(w, err)
		return
	}

	h.logger.Info("user signed up", "email", req.Email)
	httputil.RespondJSON(w, http.StatusCreated, signupResponse{Message: "Signup successful"})
}

// Login exchanges credentials for a session
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.credentials.LogIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Session: session,
	})
}

// respondAuthError maps provider-reported validation problems to 400 and
// everything else through the shared error mapping.
func (h *AuthHandler) respondAuthError(w http.ResponseWriter, err error) {
	var authErr *domain.AuthProviderError
	if errors.As(err, &authErr) && authErr.Validation {
		httputil.RespondError(w, http.StatusBadRequest, authErr.Message)
		return
	}
	handleError(w, err)
}
