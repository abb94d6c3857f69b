package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/qfd-delivery/api/internal/assistant/live"
	"github.com/qfd-delivery/api/internal/platform/auth"
	"github.com/qfd-delivery/api/internal/services"
)

type stubLiveDialer struct {
	dialFunc func(ctx context.Context) (live.Upstream, error)
}

func (s *stubLiveDialer) DialLive(ctx context.Context) (live.Upstream, error) {
	if s.dialFunc == nil {
		return nil, errors.New("no upstream")
	}
	return s.dialFunc(ctx)
}

func newAssistantRouter(h *AssistantHandlers) chi.Router {
	router := chi.NewRouter()
	router.Route("/assistant", h.Routes)
	return router
}

func authedAssistantRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: "user-9"}))
}

func TestAssistantHandlersAskSuccess(t *testing.T) {
	service := &stubAssistantService{
		askFunc: func(ctx context.Context, cmd services.AskAssistantCommand) (services.AssistantReply, error) {
			if cmd.UserID != "user-9" {
				t.Fatalf("unexpected user id %q", cmd.UserID)
			}
			if cmd.Question != "how do I track my order?" {
				t.Fatalf("unexpected question %q", cmd.Question)
			}
			return services.AssistantReply{
				Answer:   "Open My Orders and tap the order to see its live status.",
				Category: "tracking",
				VideoURL: "https://youtube.com/watch?v=qfd-tracking",
			}, nil
		},
	}

	handler := NewAssistantHandlers(nil, service, &stubLiveDialer{})
	rr := httptest.NewRecorder()
	newAssistantRouter(handler).ServeHTTP(rr, authedAssistantRequest(http.MethodPost, "/assistant/ask", `{"question":"how do I track my order?"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	var resp askResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Category != "tracking" || resp.VideoURL == "" {
		t.Fatalf("unexpected reply %#v", resp)
	}
}

func TestAssistantHandlersAskInvalidInput(t *testing.T) {
	service := &stubAssistantService{
		askFunc: func(ctx context.Context, cmd services.AskAssistantCommand) (services.AssistantReply, error) {
			return services.AssistantReply{}, services.ErrAssistantInvalidInput
		},
	}

	handler := NewAssistantHandlers(nil, service, &stubLiveDialer{})
	rr := httptest.NewRecorder()
	newAssistantRouter(handler).ServeHTTP(rr, authedAssistantRequest(http.MethodPost, "/assistant/ask", `{"question":""}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAssistantHandlersAskUnauthenticated(t *testing.T) {
	handler := NewAssistantHandlers(nil, &stubAssistantService{}, &stubLiveDialer{})
	req := httptest.NewRequest(http.MethodPost, "/assistant/ask", strings.NewReader(`{"question":"hi"}`))
	rr := httptest.NewRecorder()
	newAssistantRouter(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestAssistantHandlersLiveDialFailure(t *testing.T) {
	dialer := &stubLiveDialer{
		dialFunc: func(ctx context.Context) (live.Upstream, error) {
			return nil, errors.New("upstream refused")
		},
	}

	handler := NewAssistantHandlers(nil, &stubAssistantService{}, dialer)
	rr := httptest.NewRecorder()
	newAssistantRouter(handler).ServeHTTP(rr, authedAssistantRequest(http.MethodGet, "/assistant/live", ""))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["error"] != "assistant_live_unavailable" {
		t.Fatalf("expected assistant_live_unavailable error, got %v", body["error"])
	}
}

func TestAssistantHandlersServiceUnavailable(t *testing.T) {
	handler := NewAssistantHandlers(nil, nil, nil)
	rr := httptest.NewRecorder()
	newAssistantRouter(handler).ServeHTTP(rr, authedAssistantRequest(http.MethodPost, "/assistant/ask", `{"question":"hi"}`))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}
