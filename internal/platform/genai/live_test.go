package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qfd-delivery/api/internal/platform/config"
)

type liveTestServer struct {
	server *httptest.Server

	mu     sync.Mutex
	setups []liveSetup
	frames []liveClientMessage
}

// newLiveTestServer accepts websocket sessions, acks the setup frame, then
// plays back the scripted server messages and records everything the client
// sends.
func newLiveTestServer(t *testing.T, script []liveServerMessage) *liveTestServer {
	t.Helper()
	lts := &liveTestServer{}
	upgrader := websocket.Upgrader{}

	lts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Errorf("expected api key query parameter")
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		var first liveClientMessage
		if err := conn.ReadJSON(&first); err != nil {
			t.Errorf("read setup: %v", err)
			return
		}
		if first.Setup == nil {
			t.Errorf("expected setup frame first, got %#v", first)
			return
		}
		lts.mu.Lock()
		lts.setups = append(lts.setups, *first.Setup)
		lts.mu.Unlock()

		if err := conn.WriteJSON(liveServerMessage{SetupComplete: &struct{}{}}); err != nil {
			return
		}
		for _, msg := range script {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}

		for {
			var frame liveClientMessage
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			lts.mu.Lock()
			lts.frames = append(lts.frames, frame)
			lts.mu.Unlock()
		}
	}))
	t.Cleanup(lts.server.Close)
	return lts
}

func (s *liveTestServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *liveTestServer) recordedSetup(t *testing.T) liveSetup {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.setups) == 0 {
		t.Fatalf("no setup frame recorded")
	}
	return s.setups[0]
}

func (s *liveTestServer) recordedFrames() []liveClientMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]liveClientMessage, len(s.frames))
	copy(out, s.frames)
	return out
}

func newTestLiveDialer(t *testing.T, endpoint string) *LiveDialer {
	t.Helper()
	dialer, err := NewLiveDialer(config.GenAIConfig{
		APIKey:       "test-key",
		LiveEndpoint: endpoint,
		LiveModel:    "gemini-live-test",
		Voice:        "Zephyr",
	})
	if err != nil {
		t.Fatalf("NewLiveDialer: %v", err)
	}
	return dialer
}

func TestLiveDialerSendsSetupFrame(t *testing.T) {
	server := newLiveTestServer(t, nil)
	dialer := newTestLiveDialer(t, server.wsURL())

	conn, err := dialer.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	setup := server.recordedSetup(t)
	if setup.Model != "models/gemini-live-test" {
		t.Fatalf("unexpected model %q", setup.Model)
	}
	if len(setup.GenerationConfig.ResponseModalities) != 1 || setup.GenerationConfig.ResponseModalities[0] != "AUDIO" {
		t.Fatalf("unexpected response modalities %v", setup.GenerationConfig.ResponseModalities)
	}
	if setup.GenerationConfig.SpeechConfig == nil ||
		setup.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Zephyr" {
		t.Fatalf("expected voice Zephyr in speech config")
	}
	if setup.InputAudioTranscription == nil || setup.OutputAudioTranscription == nil {
		t.Fatalf("expected both transcription flags set")
	}

	if len(setup.Tools) != 1 || len(setup.Tools[0].FunctionDeclarations) != 1 {
		t.Fatalf("expected one tool declaration, got %#v", setup.Tools)
	}
	decl := setup.Tools[0].FunctionDeclarations[0]
	if decl.Name != "addItemToCart" {
		t.Fatalf("unexpected tool name %q", decl.Name)
	}
	if decl.Parameters == nil || decl.Parameters.Properties["itemName"] == nil {
		t.Fatalf("expected itemName parameter, got %#v", decl.Parameters)
	}
	if len(decl.Parameters.Required) != 1 || decl.Parameters.Required[0] != "itemName" {
		t.Fatalf("expected itemName required, got %v", decl.Parameters.Required)
	}
}

func TestLiveConnDecodesServerContent(t *testing.T) {
	script := []liveServerMessage{
		{ServerContent: &serverContent{
			ModelTurn:           &modelTurn{Parts: []livePart{{InlineData: &audioBlob{MimeType: OutputAudioMimeType, Data: "AAAA"}}}},
			OutputTranscription: &transcription{Text: "Adding it now."},
		}},
		{ServerContent: &serverContent{Interrupted: true}},
		{ToolCall: &serverToolCall{FunctionCalls: []serverFunctionCall{
			{ID: "call-1", Name: "addItemToCart", Args: map[string]any{"itemName": "burgir"}},
		}}},
		{ServerContent: &serverContent{TurnComplete: true}},
	}
	server := newLiveTestServer(t, script)
	dialer := newTestLiveDialer(t, server.wsURL())

	conn, err := dialer.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	msg, err := conn.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(msg.AudioChunks) != 1 || msg.AudioChunks[0] != "AAAA" {
		t.Fatalf("unexpected audio chunks %v", msg.AudioChunks)
	}
	if msg.OutputTranscription != "Adding it now." {
		t.Fatalf("unexpected transcription %q", msg.OutputTranscription)
	}

	msg, err = conn.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if !msg.Interrupted {
		t.Fatalf("expected interruption flag")
	}

	msg, err = conn.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("expected one tool call, got %d", len(msg.ToolCalls))
	}
	call := msg.ToolCalls[0]
	if call.ID != "call-1" || call.Name != "addItemToCart" {
		t.Fatalf("unexpected tool call %#v", call)
	}
	if call.Args["itemName"] != "burgir" {
		t.Fatalf("unexpected args %v", call.Args)
	}

	msg, err = conn.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if !msg.TurnComplete {
		t.Fatalf("expected turn completion flag")
	}
}

func TestLiveConnClientFrames(t *testing.T) {
	server := newLiveTestServer(t, nil)
	dialer := newTestLiveDialer(t, server.wsURL())

	conn, err := dialer.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	if err := conn.SendAudio("bWljLWNodW5r"); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}
	if err := conn.SendToolResponse("call-1", "addItemToCart", "Success! Added Burgir Supreme to cart."); err != nil {
		t.Fatalf("SendToolResponse: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Close is idempotent.
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var frames []liveClientMessage
	for time.Now().Before(deadline) {
		frames = server.recordedFrames()
		if len(frames) >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(frames) < 2 {
		t.Fatalf("expected 2 client frames, got %d", len(frames))
	}

	audio := frames[0].RealtimeInput
	if audio == nil || audio.Audio == nil {
		t.Fatalf("expected audio frame first, got %s", mustJSON(t, frames[0]))
	}
	if audio.Audio.MimeType != InputAudioMimeType || audio.Audio.Data != "bWljLWNodW5r" {
		t.Fatalf("unexpected audio blob %#v", audio.Audio)
	}

	tool := frames[1].ToolResponse
	if tool == nil || len(tool.FunctionResponses) != 1 {
		t.Fatalf("expected tool response second, got %s", mustJSON(t, frames[1]))
	}
	fr := tool.FunctionResponses[0]
	if fr.ID != "call-1" || fr.Name != "addItemToCart" {
		t.Fatalf("unexpected function response %#v", fr)
	}
	if fr.Response["result"] != "Success! Added Burgir Supreme to cart." {
		t.Fatalf("unexpected result payload %v", fr.Response)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
