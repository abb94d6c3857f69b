package live

import (
	"context"
	"encoding/base64"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/qfd-delivery/api/internal/platform/genai"
	"github.com/qfd-delivery/api/internal/repositories/memory"
	"github.com/qfd-delivery/api/internal/services"
)

type stubClientTransport struct {
	frames chan ClientFrame

	mu      sync.Mutex
	written []ServerFrame
	closed  int
}

func newStubClientTransport() *stubClientTransport {
	return &stubClientTransport{frames: make(chan ClientFrame, 16)}
}

func (c *stubClientTransport) Read() (ClientFrame, error) {
	frame, ok := <-c.frames
	if !ok {
		return ClientFrame{}, io.EOF
	}
	return frame, nil
}

func (c *stubClientTransport) Write(frame ServerFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, frame)
	return nil
}

func (c *stubClientTransport) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed == 0 {
		close(c.frames)
	}
	c.closed++
	return nil
}

func (c *stubClientTransport) sentFrames() []ServerFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ServerFrame, len(c.written))
	copy(out, c.written)
	return out
}

type stubUpstream struct {
	messages chan genai.ServerMessage

	mu        sync.Mutex
	audio     []string
	responses []string
	closed    int
}

func newStubUpstream() *stubUpstream {
	return &stubUpstream{messages: make(chan genai.ServerMessage, 16)}
}

func (u *stubUpstream) SendAudio(data string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.audio = append(u.audio, data)
	return nil
}

func (u *stubUpstream) SendToolResponse(_, _, result string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.responses = append(u.responses, result)
	return nil
}

func (u *stubUpstream) Receive() (genai.ServerMessage, error) {
	msg, ok := <-u.messages
	if !ok {
		return genai.ServerMessage{}, io.EOF
	}
	return msg, nil
}

func (u *stubUpstream) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed == 0 {
		close(u.messages)
	}
	u.closed++
	return nil
}

func newSessionAssistant(t *testing.T) services.AssistantService {
	t.Helper()

	catalogRepo := memory.NewCatalogRepository()
	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{Repository: catalogRepo})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	carts, err := services.NewCartService(services.CartServiceDeps{
		Repository: memory.NewCartRepository(),
		Catalog:    catalogRepo,
		Clock:      time.Now,
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	assistant, err := services.NewAssistantService(services.AssistantServiceDeps{
		Catalog: catalog,
		Carts:   carts,
	})
	if err != nil {
		t.Fatalf("NewAssistantService: %v", err)
	}
	return assistant
}

func newTestSession(t *testing.T, client *stubClientTransport, upstream *stubUpstream) *Session {
	t.Helper()
	session, err := NewSession(SessionDeps{
		UserID:    "uid-1",
		Client:    client,
		Upstream:  upstream,
		Assistant: newSessionAssistant(t),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return session
}

func pcmChunk(samples int) string {
	return base64.StdEncoding.EncodeToString(make([]byte, samples*outputBytesPerFrame))
}

func TestPlaybackWatermarkChainsChunks(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := newPlaybackClock(func() time.Time { return current })

	first := clock.schedule(time.Second)
	if !first.Equal(current) {
		t.Fatalf("first chunk must start immediately, got %v", first)
	}

	second := clock.schedule(500 * time.Millisecond)
	if !second.Equal(current.Add(time.Second)) {
		t.Fatalf("second chunk must queue behind the first, got %v", second)
	}

	// After playback catches up, scheduling starts at "now" again.
	current = current.Add(5 * time.Second)
	third := clock.schedule(time.Second)
	if !third.Equal(current) {
		t.Fatalf("drained queue must restart at now, got %v", third)
	}

	clock.reset()
	fourth := clock.schedule(time.Second)
	if !fourth.Equal(current) {
		t.Fatalf("reset must flush the watermark, got %v", fourth)
	}
}

func TestChunkDuration(t *testing.T) {
	if d := chunkDuration(pcmChunk(outputSampleRate)); d != time.Second {
		t.Fatalf("one second of samples = %v", d)
	}
	if d := chunkDuration("not base64!!!"); d != 0 {
		t.Fatalf("invalid chunk duration = %v", d)
	}
}

func TestSessionRelaysAudioBothWays(t *testing.T) {
	client := newStubClientTransport()
	upstream := newStubUpstream()
	session := newTestSession(t, client, upstream)

	client.frames <- ClientFrame{Type: ClientFrameAudio, Data: "mic-chunk"}
	client.frames <- ClientFrame{Type: ClientFrameClose}
	upstream.messages <- genai.ServerMessage{AudioChunks: []string{pcmChunk(2400)}}
	_ = upstream.Close()

	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	upstream.mu.Lock()
	audio := append([]string(nil), upstream.audio...)
	upstream.mu.Unlock()
	if len(audio) != 1 || audio[0] != "mic-chunk" {
		t.Fatalf("uplink audio = %v", audio)
	}

	var audioFrames int
	for _, frame := range client.sentFrames() {
		if frame.Type == ServerFrameAudio {
			audioFrames++
			if frame.MimeType != genai.OutputAudioMimeType {
				t.Fatalf("mime type = %q", frame.MimeType)
			}
		}
	}
	if audioFrames != 1 {
		t.Fatalf("downlink audio frames = %d", audioFrames)
	}
}

func TestSessionEmitsTurnOnCompletion(t *testing.T) {
	client := newStubClientTransport()
	upstream := newStubUpstream()
	session := newTestSession(t, client, upstream)

	upstream.messages <- genai.ServerMessage{InputTranscription: "add a "}
	upstream.messages <- genai.ServerMessage{InputTranscription: "burgir", OutputTranscription: "Adding it now."}
	upstream.messages <- genai.ServerMessage{TurnComplete: true}
	_ = upstream.Close()

	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	turns := session.Turns()
	if len(turns) != 1 {
		t.Fatalf("turns = %d", len(turns))
	}
	if turns[0].UserText != "add a burgir" || turns[0].ModelText != "Adding it now." {
		t.Fatalf("turn = %+v", turns[0])
	}
	if turns[0].ID == "" {
		t.Fatal("turn id missing")
	}

	var turnFrames int
	for _, frame := range client.sentFrames() {
		if frame.Type == ServerFrameTurn {
			turnFrames++
			if frame.UserText != "add a burgir" {
				t.Fatalf("turn frame = %+v", frame)
			}
		}
	}
	if turnFrames != 1 {
		t.Fatalf("turn frames = %d", turnFrames)
	}

	// Buffers must reset; a second turnComplete without fragments is silent.
	if len(session.Turns()) != 1 {
		t.Fatalf("unexpected extra turns")
	}
}

func TestSessionDispatchesToolCalls(t *testing.T) {
	client := newStubClientTransport()
	upstream := newStubUpstream()
	session := newTestSession(t, client, upstream)

	upstream.messages <- genai.ServerMessage{ToolCalls: []genai.LiveToolCall{{
		ID:   "call-1",
		Name: services.AddItemToCartTool,
		Args: map[string]any{"itemName": "burgir"},
	}}}
	_ = upstream.Close()

	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	upstream.mu.Lock()
	responses := append([]string(nil), upstream.responses...)
	upstream.mu.Unlock()
	if len(responses) != 1 || responses[0] != "Success! Added Burgir Supreme to cart." {
		t.Fatalf("tool responses = %v", responses)
	}

	var toolFrames int
	for _, frame := range client.sentFrames() {
		if frame.Type == ServerFrameTool {
			toolFrames++
			if frame.Message != "Success! Added Burgir Supreme to cart." {
				t.Fatalf("tool frame = %+v", frame)
			}
		}
	}
	if toolFrames != 1 {
		t.Fatalf("tool frames = %d", toolFrames)
	}
}

func TestSessionInterruptionResetsPlayback(t *testing.T) {
	client := newStubClientTransport()
	upstream := newStubUpstream()
	session := newTestSession(t, client, upstream)

	upstream.messages <- genai.ServerMessage{AudioChunks: []string{pcmChunk(outputSampleRate)}}
	upstream.messages <- genai.ServerMessage{Interrupted: true}
	_ = upstream.Close()

	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var sawInterrupted bool
	for _, frame := range client.sentFrames() {
		if frame.Type == ServerFrameInterrupted {
			sawInterrupted = true
		}
	}
	if !sawInterrupted {
		t.Fatal("interruption frame not forwarded")
	}
}

func TestSessionTeardownClosesBothSidesOnce(t *testing.T) {
	client := newStubClientTransport()
	upstream := newStubUpstream()
	session := newTestSession(t, client, upstream)

	client.frames <- ClientFrame{Type: ClientFrameClose}
	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	client.mu.Lock()
	clientClosed := client.closed
	client.mu.Unlock()
	upstream.mu.Lock()
	upstreamClosed := upstream.closed
	upstream.mu.Unlock()

	if clientClosed != 1 || upstreamClosed != 1 {
		t.Fatalf("closes: client=%d upstream=%d", clientClosed, upstreamClosed)
	}
}

func TestSessionUpstreamDisconnectShutsDownCleanly(t *testing.T) {
	client := newStubClientTransport()
	upstream := newStubUpstream()
	session := newTestSession(t, client, upstream)

	_ = upstream.Close()

	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("disconnects must not surface as errors, got %v", err)
	}

	client.mu.Lock()
	clientClosed := client.closed
	client.mu.Unlock()
	if clientClosed == 0 {
		t.Fatal("client side must be closed when upstream drops")
	}
}

func TestSessionCancelledContext(t *testing.T) {
	client := newStubClientTransport()
	upstream := newStubUpstream()
	session := newTestSession(t, client, upstream)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := session.Run(ctx); err != nil {
		t.Fatalf("cancellation must shut down cleanly, got %v", err)
	}
}
