// Package voice connects the TTS provider to meeting audio playback.
package voice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/augmentlabs/meetbot/internal/observe"
	"github.com/augmentlabs/meetbot/pkg/provider/tts"
)

// Player queues PCM audio for playback into the meeting. It is satisfied
// by meeting.Surface.
type Player interface {
	PlayAudio(ctx context.Context, pcm []byte) error
}

// Speaker synthesises reply text and plays it into the meeting. It
// implements the dispatch Speaker contract.
type Speaker struct {
	provider tts.Provider
	voice    tts.VoiceProfile
	player   Player
	metrics  *observe.Metrics
}

// Option is a functional option for Speaker.
type Option func(*Speaker)

// WithMetrics sets the metrics sink used to record synthesis latency.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Speaker) {
		s.metrics = m
	}
}

// NewSpeaker creates a Speaker that synthesises with provider using voice
// and plays the result through player.
func NewSpeaker(provider tts.Provider, voice tts.VoiceProfile, player Player, opts ...Option) (*Speaker, error) {
	if provider == nil {
		return nil, errors.New("voice: provider must not be nil")
	}
	if player == nil {
		return nil, errors.New("voice: player must not be nil")
	}
	s := &Speaker{
		provider: provider,
		voice:    voice,
		player:   player,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s, nil
}

// Say synthesises text and queues the resulting PCM for playback.
func (s *Speaker) Say(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	start := time.Now()
	pcm, err := s.provider.Synthesize(ctx, text, s.voice)
	s.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordProviderError(ctx, s.voice.Provider, "tts")
		return fmt.Errorf("voice: synthesize: %w", err)
	}
	s.metrics.RecordProviderRequest(ctx, s.voice.Provider, "tts", "ok")

	if len(pcm) == 0 {
		return nil
	}
	if err := s.player.PlayAudio(ctx, pcm); err != nil {
		return fmt.Errorf("voice: play audio: %w", err)
	}
	return nil
}
