// Package mock provides a mock tts.Provider for testing.
package mock

import (
	"context"
	"sync"

	"github.com/augmentlabs/meetbot/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Provider.Synthesize.
type SynthesizeCall struct {
	// Text is the text passed to Synthesize.
	Text string
	// Voice is the voice profile passed to Synthesize.
	Voice tts.VoiceProfile
}

// Provider is a mock implementation of tts.Provider. Configure the exported
// fields before use; recorded calls can be inspected after the fact.
// Safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	// SynthesizeResult is the PCM returned by Synthesize when
	// SynthesizeErr is nil.
	SynthesizeResult []byte

	// SynthesizeErr, if non-nil, is returned by every Synthesize call.
	SynthesizeErr error

	// VoicesResult is returned by ListVoices when VoicesErr is nil.
	VoicesResult []tts.VoiceProfile

	// VoicesErr, if non-nil, is returned by ListVoices.
	VoicesErr error

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

var _ tts.Provider = (*Provider)(nil)

// Synthesize records the call and returns SynthesizeResult, SynthesizeErr.
func (p *Provider) Synthesize(_ context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Text: text, Voice: voice})
	if p.SynthesizeErr != nil {
		return nil, p.SynthesizeErr
	}
	return p.SynthesizeResult, nil
}

// ListVoices returns VoicesResult, VoicesErr.
func (p *Provider) ListVoices(_ context.Context) ([]tts.VoiceProfile, error) {
	if p.VoicesErr != nil {
		return nil, p.VoicesErr
	}
	return p.VoicesResult, nil
}

// SynthesizeCallCount returns the number of Synthesize calls. Thread-safe.
func (p *Provider) SynthesizeCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.SynthesizeCalls)
}

// LastText returns the text of the most recent Synthesize call, or "" if
// none were made.
func (p *Provider) LastText() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.SynthesizeCalls) == 0 {
		return ""
	}
	return p.SynthesizeCalls[len(p.SynthesizeCalls)-1].Text
}
