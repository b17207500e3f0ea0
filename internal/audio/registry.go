// Package audio implements the player's sound registry over MP3 decoding.
package audio

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hajimehoshi/go-mp3"
	"github.com/jmylchreest/swfplayer/internal/backend"
)

// sound is one registered sound.
type sound struct {
	data       []byte
	sampleRate int
	durationMS float64
}

// Registry implements backend.Audio. Registration decodes enough of the
// stream to validate it and compute its duration; playback decoding happens
// elsewhere.
type Registry struct {
	mu     sync.Mutex
	sounds []sound
	logger *slog.Logger
}

// NewRegistry creates an empty sound registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger.With(slog.String("component", "audio"))}
}

// RegisterMP3 implements backend.Audio.
func (r *Registry) RegisterMP3(data []byte) (backend.SoundHandle, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decoding mp3: %w", err)
	}

	// Length reports decoded PCM bytes: 16-bit samples, two channels.
	const bytesPerFrame = 4
	frames := dec.Length() / bytesPerFrame
	var durationMS float64
	if rate := dec.SampleRate(); rate > 0 {
		durationMS = float64(frames) / float64(rate) * 1000
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sounds = append(r.sounds, sound{
		data:       data,
		sampleRate: dec.SampleRate(),
		durationMS: durationMS,
	})
	handle := backend.SoundHandle(len(r.sounds) - 1)

	r.logger.Debug("registered mp3",
		slog.Int("bytes", len(data)),
		slog.Int("sample_rate", dec.SampleRate()),
		slog.Float64("duration_ms", durationMS),
	)
	return handle, nil
}

// SoundDuration implements backend.Audio.
func (r *Registry) SoundDuration(h backend.SoundHandle) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(h) >= len(r.sounds) {
		return 0, false
	}
	s := r.sounds[h]
	if s.durationMS <= 0 {
		return 0, false
	}
	return s.durationMS, true
}

// Data returns the raw bytes of a registered sound, for playback.
func (r *Registry) Data(h backend.SoundHandle) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(h) >= len(r.sounds) {
		return nil, false
	}
	return r.sounds[h].data, true
}
