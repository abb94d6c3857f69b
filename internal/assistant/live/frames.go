package live

// Client frame types accepted over the session websocket.
const (
	ClientFrameAudio = "audio"
	ClientFrameClose = "close"
)

// Server frame types pushed to the app.
const (
	ServerFrameAudio       = "audio"
	ServerFrameInterrupted = "interrupted"
	ServerFrameTurn        = "turn"
	ServerFrameTool        = "tool"
)

// ClientFrame is one message from the app: a base64 PCM 16kHz chunk or an
// explicit close.
type ClientFrame struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// ServerFrame is one message to the app. Audio frames carry the playback
// start offset in milliseconds since the session began.
type ServerFrame struct {
	Type      string `json:"type"`
	Data      string `json:"data,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
	StartAtMs int64  `json:"startAtMs,omitempty"`
	UserText  string `json:"userText,omitempty"`
	ModelText string `json:"modelText,omitempty"`
	Message   string `json:"message,omitempty"`
}
