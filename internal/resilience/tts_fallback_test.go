package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/augmentlabs/meetbot/pkg/provider/tts"
	ttsmock "github.com/augmentlabs/meetbot/pkg/provider/tts/mock"
)

func TestTTSFallback_Synthesize_PrimarySuccess(t *testing.T) {
	primary := &ttsmock.Provider{
		SynthesizeResult: []byte("primary-audio"),
	}
	secondary := &ttsmock.Provider{
		SynthesizeResult: []byte("fallback-audio"),
	}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	pcm, err := fb.Synthesize(context.Background(), "hello", tts.VoiceProfile{
		ID:   "v1",
		Name: "TestVoice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(pcm) != "primary-audio" {
		t.Fatalf("audio = %q, want primary-audio", string(pcm))
	}
	if primary.SynthesizeCallCount() != 1 {
		t.Fatalf("primary called %d times, want 1", primary.SynthesizeCallCount())
	}
	if secondary.SynthesizeCallCount() != 0 {
		t.Fatalf("secondary called %d times, want 0", secondary.SynthesizeCallCount())
	}
}

func TestTTSFallback_Synthesize_Failover(t *testing.T) {
	primary := &ttsmock.Provider{
		SynthesizeErr: errors.New("primary down"),
	}
	secondary := &ttsmock.Provider{
		SynthesizeResult: []byte("fallback-audio"),
	}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	pcm, err := fb.Synthesize(context.Background(), "hello", tts.VoiceProfile{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(pcm) != "fallback-audio" {
		t.Fatalf("audio = %q, want fallback-audio", string(pcm))
	}
	if secondary.LastText() != "hello" {
		t.Fatalf("secondary synthesized %q, want hello", secondary.LastText())
	}
}

func TestTTSFallback_Synthesize_AllFail(t *testing.T) {
	primary := &ttsmock.Provider{SynthesizeErr: errors.New("primary down")}
	secondary := &ttsmock.Provider{SynthesizeErr: errors.New("secondary down")}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Synthesize(context.Background(), "hello", tts.VoiceProfile{})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestTTSFallback_ListVoices_Failover(t *testing.T) {
	primary := &ttsmock.Provider{
		VoicesErr: errors.New("primary down"),
	}
	secondary := &ttsmock.Provider{
		VoicesResult: []tts.VoiceProfile{
			{ID: "v1", Name: "Alice"},
			{ID: "v2", Name: "Bob"},
		},
	}

	fb := NewTTSFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	voices, err := fb.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("got %d voices, want 2", len(voices))
	}
	if voices[0].Name != "Alice" {
		t.Fatalf("voices[0].Name = %q, want Alice", voices[0].Name)
	}
}
