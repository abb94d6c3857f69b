package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/qfd-delivery/api/internal/platform/config"
	"go.uber.org/zap"
)

const liveSystemInstruction = "You are QFD Assistant. Help users order food. Use the addItemToCart tool when they name a food item (Burgir, Milk, etc). Keep answers short."

// Audio formats for the live session. Uplink is 16kHz PCM from the client
// microphone, downlink is 24kHz PCM synthesised by the model.
const (
	InputAudioMimeType  = "audio/pcm;rate=16000"
	OutputAudioMimeType = "audio/pcm;rate=24000"
)

// LiveDialer establishes duplex sessions against the Gemini Live WebSocket API.
type LiveDialer struct {
	endpoint string
	apiKey   string
	model    string
	voice    string
	dialer   *websocket.Dialer
	logger   *zap.Logger
}

// LiveOption customises LiveDialer instances.
type LiveOption func(*LiveDialer)

// WithLiveWebsocketDialer injects a custom websocket dialer (primarily for tests).
func WithLiveWebsocketDialer(dialer *websocket.Dialer) LiveOption {
	return func(d *LiveDialer) {
		if dialer != nil {
			d.dialer = dialer
		}
	}
}

// WithLiveLogger sets the logger used for diagnostic output.
func WithLiveLogger(logger *zap.Logger) LiveOption {
	return func(d *LiveDialer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewLiveDialer constructs a LiveDialer from GenAI configuration.
func NewLiveDialer(cfg config.GenAIConfig, opts ...LiveOption) (*LiveDialer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("genai: api key is required")
	}
	endpoint := strings.TrimSpace(cfg.LiveEndpoint)
	if endpoint == "" {
		return nil, errors.New("genai: live endpoint is required")
	}
	model := strings.TrimSpace(cfg.LiveModel)
	if model == "" {
		return nil, errors.New("genai: live model is required")
	}

	d := &LiveDialer{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		model:    model,
		voice:    strings.TrimSpace(cfg.Voice),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

type liveClientMessage struct {
	Setup         *liveSetup     `json:"setup,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
	ToolResponse  *toolResponse  `json:"toolResponse,omitempty"`
}

type liveSetup struct {
	Model                    string               `json:"model"`
	GenerationConfig         liveGenerationConfig `json:"generationConfig"`
	SystemInstruction        *content             `json:"systemInstruction,omitempty"`
	Tools                    []toolDeclarations   `json:"tools,omitempty"`
	InputAudioTranscription  *struct{}            `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}            `json:"outputAudioTranscription,omitempty"`
}

type liveGenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type toolDeclarations struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type functionDeclaration struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  *schemaNode `json:"parameters,omitempty"`
}

type realtimeInput struct {
	Audio *audioBlob `json:"audio,omitempty"`
}

type audioBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type toolResponse struct {
	FunctionResponses []functionResponse `json:"functionResponses"`
}

type functionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type liveServerMessage struct {
	SetupComplete *struct{}       `json:"setupComplete,omitempty"`
	ServerContent *serverContent  `json:"serverContent,omitempty"`
	ToolCall      *serverToolCall `json:"toolCall,omitempty"`
}

type serverContent struct {
	ModelTurn           *modelTurn     `json:"modelTurn,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
}

type modelTurn struct {
	Parts []livePart `json:"parts"`
}

type livePart struct {
	Text       string     `json:"text,omitempty"`
	InlineData *audioBlob `json:"inlineData,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}

type serverToolCall struct {
	FunctionCalls []serverFunctionCall `json:"functionCalls"`
}

type serverFunctionCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// LiveToolCall is a function call requested by the model mid-session.
type LiveToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ServerMessage is one decoded frame from the live session.
type ServerMessage struct {
	SetupComplete       bool
	AudioChunks         []string
	Interrupted         bool
	TurnComplete        bool
	InputTranscription  string
	OutputTranscription string
	ToolCalls           []LiveToolCall
}

// Dial opens a live session, sends the setup frame, and waits for the
// server's setup acknowledgement.
func (d *LiveDialer) Dial(ctx context.Context) (*LiveConn, error) {
	if d == nil {
		return nil, errors.New("genai: live dialer not initialised")
	}

	url := d.endpoint + "?key=" + d.apiKey
	conn, resp, err := d.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("genai: dial live endpoint: %w", err)
	}

	live := &LiveConn{conn: conn, logger: d.logger}
	if err := live.writeJSON(liveClientMessage{Setup: d.setupFrame()}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("genai: send setup: %w", err)
	}

	msg, err := live.Receive()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("genai: await setup ack: %w", err)
	}
	if !msg.SetupComplete {
		_ = conn.Close()
		return nil, errors.New("genai: live session rejected setup")
	}

	return live, nil
}

func (d *LiveDialer) setupFrame() *liveSetup {
	setup := &liveSetup{
		Model: "models/" + d.model,
		GenerationConfig: liveGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
		SystemInstruction: &content{
			Parts: []part{{Text: liveSystemInstruction}},
		},
		Tools: []toolDeclarations{{
			FunctionDeclarations: []functionDeclaration{{
				Name:        "addItemToCart",
				Description: "Adds a food item to the user's shopping cart by name.",
				Parameters: &schemaNode{
					Type: "OBJECT",
					Properties: map[string]*schemaNode{
						"itemName": {Type: "STRING"},
					},
					Required: []string{"itemName"},
				},
			}},
		}},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}
	if d.voice != "" {
		setup.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: d.voice},
			},
		}
	}
	return setup
}

// LiveConn is an established live session. Receive must be driven by a single
// goroutine; writes are safe for concurrent use.
type LiveConn struct {
	conn   *websocket.Conn
	logger *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// SendAudio forwards one base64-encoded 16kHz PCM chunk to the model.
func (c *LiveConn) SendAudio(data string) error {
	return c.writeJSON(liveClientMessage{
		RealtimeInput: &realtimeInput{
			Audio: &audioBlob{MimeType: InputAudioMimeType, Data: data},
		},
	})
}

// SendToolResponse returns a function call result to the model.
func (c *LiveConn) SendToolResponse(callID, name, result string) error {
	return c.writeJSON(liveClientMessage{
		ToolResponse: &toolResponse{
			FunctionResponses: []functionResponse{{
				ID:       callID,
				Name:     name,
				Response: map[string]any{"result": result},
			}},
		},
	})
}

// Receive blocks for the next server frame and decodes it.
func (c *LiveConn) Receive() (ServerMessage, error) {
	if c == nil || c.conn == nil {
		return ServerMessage{}, errors.New("genai: live connection not initialised")
	}

	var raw liveServerMessage
	if err := c.conn.ReadJSON(&raw); err != nil {
		return ServerMessage{}, err
	}

	msg := ServerMessage{SetupComplete: raw.SetupComplete != nil}
	if sc := raw.ServerContent; sc != nil {
		msg.Interrupted = sc.Interrupted
		msg.TurnComplete = sc.TurnComplete
		if sc.InputTranscription != nil {
			msg.InputTranscription = sc.InputTranscription.Text
		}
		if sc.OutputTranscription != nil {
			msg.OutputTranscription = sc.OutputTranscription.Text
		}
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				if p.InlineData != nil && p.InlineData.Data != "" {
					msg.AudioChunks = append(msg.AudioChunks, p.InlineData.Data)
				}
			}
		}
	}
	if raw.ToolCall != nil {
		for _, call := range raw.ToolCall.FunctionCalls {
			msg.ToolCalls = append(msg.ToolCalls, LiveToolCall{
				ID:   call.ID,
				Name: call.Name,
				Args: call.Args,
			})
		}
	}
	return msg, nil
}

// Close tears the session down; safe to call multiple times.
func (c *LiveConn) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *LiveConn) writeJSON(msg liveClientMessage) error {
	if c == nil || c.conn == nil {
		return errors.New("genai: live connection not initialised")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}
