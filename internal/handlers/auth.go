package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qfd-delivery/api/internal/platform/httpx"
	"github.com/qfd-delivery/api/internal/services"
)

// AuthHandlers exposes the public credential endpoints.
type AuthHandlers struct {
	identity services.IdentityService
}

const maxAuthBodySize = 8 * 1024

// NewAuthHandlers constructs handlers for registration and password sign-in.
func NewAuthHandlers(identity services.IdentityService) *AuthHandlers {
	return &AuthHandlers{identity: identity}
}

// Routes wires the /auth endpoints onto the provided router.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sessionPayload struct {
	IDToken      string      `json:"idToken"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	ExpiresInSec int64       `json:"expiresInSec,omitempty"`
	User         userPayload `json:"user"`
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.identity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("identity_service_unavailable", "identity service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req registerRequest
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	profile, err := h.identity.Register(ctx, services.RegisterCommand{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.writeIdentityError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{"user": buildUserPayload(profile)})
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.identity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("identity_service_unavailable", "identity service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req loginRequest
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	session, err := h.identity.SignIn(ctx, services.SignInCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeIdentityError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, sessionPayload{
		IDToken:      session.IDToken,
		RefreshToken: session.RefreshToken,
		ExpiresInSec: int64(session.ExpiresIn.Seconds()),
		User:         buildUserPayload(session.Profile),
	})
}

func buildUserPayload(profile services.UserProfile) userPayload {
	return userPayload{
		UID:   profile.UID,
		Email: profile.Email,
		Name:  profile.Name,
	}
}

// writeIdentityError surfaces the fixed client-facing credential messages with
// a status matching the rejection.
func (h *AuthHandlers) writeIdentityError(ctx context.Context, w http.ResponseWriter, err error) {
	if failure, ok := services.IsCredentialFailure(err); ok {
		status := http.StatusBadRequest
		switch failure.Message {
		case services.MsgNoUserFound:
			status = http.StatusNotFound
		case services.MsgIncorrectPassword:
			status = http.StatusUnauthorized
		case services.MsgEmailRegistered:
			status = http.StatusConflict
		}
		httpx.WriteError(ctx, w, httpx.NewError("credentials_rejected", failure.Message, status))
		return
	}

	switch {
	case errors.Is(err, services.ErrIdentityInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "email and password are required", http.StatusBadRequest))
	case errors.Is(err, services.ErrIdentityUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("identity_service_unavailable", "identity service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("identity_error", services.MsgAuthGeneric, http.StatusInternalServerError))
	}
}
