package live

import (
	"encoding/base64"
	"time"
)

// Output audio is 16-bit mono PCM at 24kHz.
const (
	outputSampleRate    = 24000
	outputBytesPerFrame = 2
)

// playbackClock keeps the client-side playback watermark: chunks play
// back-to-back, never before they arrive, and the queue flushes on
// interruption.
type playbackClock struct {
	now       func() time.Time
	epoch     time.Time
	watermark time.Time
}

func newPlaybackClock(now func() time.Time) *playbackClock {
	return &playbackClock{now: now, epoch: now()}
}

// schedule returns the playback start for a chunk of the given duration and
// advances the watermark past it.
func (p *playbackClock) schedule(d time.Duration) time.Time {
	start := p.now()
	if p.watermark.After(start) {
		start = p.watermark
	}
	p.watermark = start.Add(d)
	return start
}

// reset flushes pending playback so the next chunk starts immediately.
func (p *playbackClock) reset() {
	p.watermark = time.Time{}
}

func (p *playbackClock) offsetMs(t time.Time) int64 {
	return t.Sub(p.epoch).Milliseconds()
}

// chunkDuration derives the playback duration of a base64 PCM chunk.
func chunkDuration(encoded string) time.Duration {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return 0
	}
	samples := len(decoded) / outputBytesPerFrame
	return time.Duration(samples) * time.Second / outputSampleRate
}
