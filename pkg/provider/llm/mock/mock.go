// Package mock provides a mock llm.Provider for testing.
package mock

import (
	"context"
	"sync"

	"github.com/augmentlabs/meetbot/pkg/provider/llm"
)

// Provider is a mock llm.Provider. Configure the exported fields before
// use; recorded calls can be inspected after the fact. Safe for
// concurrent use.
type Provider struct {
	mu sync.Mutex

	// CompleteResponse is returned by Complete when CompleteErr is nil.
	CompleteResponse *llm.CompletionResponse

	// CompleteErr, when non-nil, is returned by Complete.
	CompleteErr error

	// CapabilitiesResult is returned by Capabilities.
	CapabilitiesResult llm.Capabilities

	// CompleteCalls records every request passed to Complete.
	CompleteCalls []llm.CompletionRequest
}

var _ llm.Provider = (*Provider)(nil)

// Complete implements llm.Provider.
func (p *Provider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls = append(p.CompleteCalls, req)
	if p.CompleteErr != nil {
		return nil, p.CompleteErr
	}
	if p.CompleteResponse != nil {
		return p.CompleteResponse, nil
	}
	return &llm.CompletionResponse{Content: "mock response"}, nil
}

// Capabilities implements llm.Provider.
func (p *Provider) Capabilities() llm.Capabilities {
	return p.CapabilitiesResult
}

// CallCount returns the number of Complete calls recorded so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.CompleteCalls)
}

// LastRequest returns the most recent Complete request, or a zero value
// if none were made.
func (p *Provider) LastRequest() llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.CompleteCalls) == 0 {
		return llm.CompletionRequest{}
	}
	return p.CompleteCalls[len(p.CompleteCalls)-1]
}
