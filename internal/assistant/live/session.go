package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/qfd-delivery/api/internal/domain"
	"github.com/qfd-delivery/api/internal/platform/genai"
	"github.com/qfd-delivery/api/internal/services"
	"go.uber.org/zap"
)

var (
	errSessionClientRequired    = errors.New("live session: client transport is required")
	errSessionUpstreamRequired  = errors.New("live session: upstream connection is required")
	errSessionAssistantRequired = errors.New("live session: assistant service is required")
)

// ClientTransport is the app-facing side of the session, typically a
// websocket to the mobile client.
type ClientTransport interface {
	Read() (ClientFrame, error)
	Write(ServerFrame) error
	Close() error
}

// Upstream is the model-facing side of the session.
type Upstream interface {
	SendAudio(data string) error
	SendToolResponse(callID, name, result string) error
	Receive() (genai.ServerMessage, error)
	Close() error
}

// SessionDeps wires one live audio session.
type SessionDeps struct {
	UserID    string
	Client    ClientTransport
	Upstream  Upstream
	Assistant services.AssistantService
	Clock     func() time.Time
	Logger    *zap.Logger
	// TurnID mints identifiers for completed turns. Defaults to ULIDs.
	TurnID func() string
}

// Session relays audio between the app and the live model, keeps the
// playback watermark, accumulates per-turn transcripts, and dispatches
// tool calls into the cart.
type Session struct {
	id        string
	userID    string
	client    ClientTransport
	upstream  Upstream
	assistant services.AssistantService
	logger    *zap.Logger
	turnID    func() string

	playback *playbackClock

	userBuf  strings.Builder
	modelBuf strings.Builder

	turnsMu sync.Mutex
	turns   []domain.AssistantTurn

	teardownOnce sync.Once
}

// NewSession validates dependencies and prepares a session for Run.
func NewSession(deps SessionDeps) (*Session, error) {
	if deps.Client == nil {
		return nil, errSessionClientRequired
	}
	if deps.Upstream == nil {
		return nil, errSessionUpstreamRequired
	}
	if deps.Assistant == nil {
		return nil, errSessionAssistantRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	turnID := deps.TurnID
	if turnID == nil {
		turnID = func() string { return ulid.Make().String() }
	}

	return &Session{
		id:        ulid.Make().String(),
		userID:    deps.UserID,
		client:    deps.Client,
		upstream:  deps.Upstream,
		assistant: deps.Assistant,
		logger:    logger,
		turnID:    turnID,
		playback:  newPlaybackClock(clock),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Turns returns the transcript turns completed so far.
func (s *Session) Turns() []domain.AssistantTurn {
	s.turnsMu.Lock()
	defer s.turnsMu.Unlock()
	out := make([]domain.AssistantTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Run drives both directions until either side disconnects or the context is
// cancelled. Both transports are closed exactly once on every exit path.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	go func() { errs <- s.pumpUplink(ctx) }()
	go func() { errs <- s.pumpDownlink(ctx) }()

	var first error
	received := 0
	select {
	case first = <-errs:
		received = 1
	case <-ctx.Done():
		first = ctx.Err()
	}

	s.teardown()
	cancel()

	// Drain the remaining pump(s); closing the transports unblocks them.
	for ; received < cap(errs); received++ {
		<-errs
	}

	if first != nil && !errors.Is(first, context.Canceled) && !errors.Is(first, io.EOF) {
		return first
	}
	return nil
}

// pumpUplink forwards microphone audio from the app to the model.
func (s *Session) pumpUplink(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := s.client.Read()
		if err != nil {
			return err
		}

		switch frame.Type {
		case ClientFrameAudio:
			if frame.Data == "" {
				continue
			}
			if err := s.upstream.SendAudio(frame.Data); err != nil {
				return err
			}
		case ClientFrameClose:
			return nil
		default:
			s.logger.Debug("live session: ignoring unknown client frame",
				zap.String("session_id", s.id),
				zap.String("type", frame.Type),
			)
		}
	}
}

// pumpDownlink forwards model output to the app and handles session events.
func (s *Session) pumpDownlink(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := s.upstream.Receive()
		if err != nil {
			return err
		}

		if msg.Interrupted {
			s.playback.reset()
			if err := s.client.Write(ServerFrame{Type: ServerFrameInterrupted}); err != nil {
				return err
			}
		}

		for _, chunk := range msg.AudioChunks {
			start := s.playback.schedule(chunkDuration(chunk))
			frame := ServerFrame{
				Type:      ServerFrameAudio,
				Data:      chunk,
				MimeType:  genai.OutputAudioMimeType,
				StartAtMs: s.playback.offsetMs(start),
			}
			if err := s.client.Write(frame); err != nil {
				return err
			}
		}

		if msg.InputTranscription != "" {
			s.userBuf.WriteString(msg.InputTranscription)
		}
		if msg.OutputTranscription != "" {
			s.modelBuf.WriteString(msg.OutputTranscription)
		}

		for _, call := range msg.ToolCalls {
			if err := s.dispatchToolCall(ctx, call); err != nil {
				return err
			}
		}

		if msg.TurnComplete {
			if err := s.completeTurn(); err != nil {
				return err
			}
		}
	}
}

func (s *Session) dispatchToolCall(ctx context.Context, call genai.LiveToolCall) error {
	itemName, _ := call.Args["itemName"].(string)

	result, err := s.assistant.ResolveToolCall(ctx, services.AssistantToolCallCommand{
		UserID:   s.userID,
		CallID:   call.ID,
		Name:     call.Name,
		ItemName: itemName,
	})
	if err != nil {
		s.logger.Warn("live session: tool call failed",
			zap.String("session_id", s.id),
			zap.String("tool", call.Name),
			zap.Error(err),
		)
		result = services.AssistantToolResult{
			CallID:  call.ID,
			Message: fmt.Sprintf("Unsupported tool: %s", call.Name),
		}
	}

	if err := s.upstream.SendToolResponse(call.ID, call.Name, result.Message); err != nil {
		return err
	}
	return s.client.Write(ServerFrame{Type: ServerFrameTool, Message: result.Message})
}

// completeTurn flushes the transcript buffers into a finished turn.
func (s *Session) completeTurn() error {
	userText := strings.TrimSpace(s.userBuf.String())
	modelText := strings.TrimSpace(s.modelBuf.String())
	s.userBuf.Reset()
	s.modelBuf.Reset()

	if userText == "" && modelText == "" {
		return nil
	}

	turn := domain.AssistantTurn{
		ID:          s.turnID(),
		UserText:    userText,
		ModelText:   modelText,
		CompletedAt: s.playback.now().UTC(),
	}

	s.turnsMu.Lock()
	s.turns = append(s.turns, turn)
	s.turnsMu.Unlock()

	return s.client.Write(ServerFrame{
		Type:      ServerFrameTurn,
		UserText:  userText,
		ModelText: modelText,
	})
}

func (s *Session) teardown() {
	s.teardownOnce.Do(func() {
		if err := s.upstream.Close(); err != nil {
			s.logger.Debug("live session: upstream close", zap.Error(err))
		}
		if err := s.client.Close(); err != nil {
			s.logger.Debug("live session: client close", zap.Error(err))
		}
	})
}
