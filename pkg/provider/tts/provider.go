// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs or a
// local Coqui instance) and presents a uniform batch interface. The
// primary entry point is Synthesize, which converts one reply text into
// raw PCM audio ready for playback into the meeting.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Synthesize converts text into raw 16-bit little-endian mono PCM
	// audio using the given voice. The sample rate is provider-specific;
	// configure the provider to emit the rate your playback path expects.
	//
	// voice specifies the voice profile to use. Providers should return
	// an error if the requested voice is not available.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)

	// ListVoices returns all voice profiles available from this
	// provider. The list reflects the provider's current catalogue and
	// may change between calls if the underlying service adds or removes
	// voices.
	//
	// Returns an error if the provider cannot be reached or if ctx is
	// cancelled before the list is retrieved.
	ListVoices(ctx context.Context) ([]VoiceProfile, error)
}
