package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/qfd-delivery/api/internal/assistant/live"
	"github.com/qfd-delivery/api/internal/platform/auth"
	"github.com/qfd-delivery/api/internal/platform/httpx"
	"github.com/qfd-delivery/api/internal/platform/requestctx"
	"github.com/qfd-delivery/api/internal/services"
	"go.uber.org/zap"
)

// LiveUpstreamDialer opens the model side of a live audio session.
type LiveUpstreamDialer interface {
	DialLive(ctx context.Context) (live.Upstream, error)
}

// AssistantHandlers exposes the help-desk endpoint and the live audio session.
type AssistantHandlers struct {
	authn     *auth.Authenticator
	assistant services.AssistantService
	dialer    LiveUpstreamDialer
	upgrader  websocket.Upgrader
}

const maxAssistantBodySize = 8 * 1024

// NewAssistantHandlers constructs handlers enforcing Firebase authentication
// on both assistant surfaces.
func NewAssistantHandlers(authn *auth.Authenticator, assistant services.AssistantService, dialer LiveUpstreamDialer) *AssistantHandlers {
	return &AssistantHandlers{
		authn:     authn,
		assistant: assistant,
		dialer:    dialer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 32 * 1024,
		},
	}
}

// Routes wires the /assistant endpoints onto the provided router.
func (h *AssistantHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/ask", h.ask)
	r.Get("/live", h.live)
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer   string `json:"answer"`
	Category string `json:"category"`
	VideoURL string `json:"videoUrl,omitempty"`
}

func (h *AssistantHandlers) ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.assistant == nil {
		writeAssistantUnavailable(ctx, w)
		return
	}

	var req askRequest
	if err := decodeJSONBody(r, maxAssistantBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	reply, err := h.assistant.Ask(ctx, services.AskAssistantCommand{
		UserID:   identity.UID,
		Question: req.Question,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAssistantInvalidInput):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "question is required", http.StatusBadRequest))
		case errors.Is(err, services.ErrAssistantUnavailable):
			writeAssistantUnavailable(ctx, w)
		default:
			httpx.WriteError(ctx, w, httpx.NewError("assistant_error", "failed to answer question", http.StatusInternalServerError))
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, askResponse{
		Answer:   reply.Answer,
		Category: reply.Category,
		VideoURL: reply.VideoURL,
	})
}

// live upgrades the connection and bridges it to a model session until
// either side disconnects.
func (h *AssistantHandlers) live(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	if h.assistant == nil || h.dialer == nil {
		writeAssistantUnavailable(ctx, w)
		return
	}
	logger := requestctx.Logger(ctx)

	upstream, err := h.dialer.DialLive(ctx)
	if err != nil {
		logger.Warn("assistant: live dial failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("assistant_live_unavailable", "live assistant is unavailable", http.StatusBadGateway))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		_ = upstream.Close()
		return
	}

	session, err := live.NewSession(live.SessionDeps{
		UserID:    identity.UID,
		Client:    newWSClientTransport(conn),
		Upstream:  upstream,
		Assistant: h.assistant,
		Logger:    logger,
	})
	if err != nil {
		logger.Warn("assistant: live session setup failed", zap.Error(err))
		_ = upstream.Close()
		_ = conn.Close()
		return
	}

	if err := session.Run(ctx); err != nil {
		logger.Warn("assistant: live session ended with error",
			zap.String("session_id", session.ID()),
			zap.Error(err),
		)
	}
}

func writeAssistantUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("assistant_service_unavailable", "assistant service is unavailable", http.StatusServiceUnavailable))
}

// wsClientTransport adapts a websocket connection to the session transport.
type wsClientTransport struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newWSClientTransport(conn *websocket.Conn) *wsClientTransport {
	return &wsClientTransport{conn: conn}
}

func (t *wsClientTransport) Read() (live.ClientFrame, error) {
	var frame live.ClientFrame
	if err := t.conn.ReadJSON(&frame); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			return live.ClientFrame{}, io.EOF
		}
		return live.ClientFrame{}, err
	}
	return frame, nil
}

func (t *wsClientTransport) Write(frame live.ServerFrame) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteJSON(frame)
}

func (t *wsClientTransport) Close() error {
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		t.writeMu.Unlock()
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}
