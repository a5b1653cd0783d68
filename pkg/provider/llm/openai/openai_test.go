package openai

import (
	"strings"
	"testing"

	"github.com/augmentlabs/meetbot/pkg/provider/llm"
)

// TestNew_Validation checks that missing arguments are rejected.
func TestNew_Validation(t *testing.T) {
	if _, err := New("", "gpt-4o-mini"); err == nil {
		t.Error("expected error for empty apiKey")
	}
	if _, err := New("sk-test", ""); err == nil {
		t.Error("expected error for empty model")
	}
}

// TestBuildParams checks system prompt injection and tuning knobs.
func TestBuildParams(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}

	params, err := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "You summarize meetings.",
		Messages: []llm.Message{
			{Role: "user", Content: "Summarize this."},
			{Role: "assistant", Content: "Sure."},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}

	if string(params.Model) != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", params.Model)
	}
	if len(params.Messages) != 3 {
		t.Fatalf("expected 3 messages (system + 2), got %d", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil {
		t.Error("expected leading system message")
	}
	if params.Messages[1].OfUser == nil {
		t.Error("expected user message at index 1")
	}
	if params.Messages[2].OfAssistant == nil {
		t.Error("expected assistant message at index 2")
	}
	if !params.Temperature.Valid() || params.Temperature.Value != 0.3 {
		t.Errorf("expected temperature 0.3, got %+v", params.Temperature)
	}
	if !params.MaxCompletionTokens.Valid() || params.MaxCompletionTokens.Value != 500 {
		t.Errorf("expected max completion tokens 500, got %+v", params.MaxCompletionTokens)
	}
}

// TestBuildParams_UnknownRole checks that an unknown role is rejected.
func TestBuildParams_UnknownRole(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	_, err := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "narrator", Content: "hm"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
	if !strings.Contains(err.Error(), "unknown message role") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestModelCapabilities checks representative model lookups.
func TestModelCapabilities(t *testing.T) {
	tests := []struct {
		model         string
		contextWindow int
		maxOutput     int
	}{
		{"gpt-4o-mini", 128_000, 16_384},
		{"gpt-4", 8_192, 4_096},
		{"o1-mini", 128_000, 65_536},
		{"o3", 200_000, 100_000},
		{"ft:gpt-weird", 128_000, 4_096}, // default
	}
	for _, tt := range tests {
		caps := modelCapabilities(tt.model)
		if caps.ContextWindow != tt.contextWindow {
			t.Errorf("%s: expected context window %d, got %d", tt.model, tt.contextWindow, caps.ContextWindow)
		}
		if caps.MaxOutputTokens != tt.maxOutput {
			t.Errorf("%s: expected max output %d, got %d", tt.model, tt.maxOutput, caps.MaxOutputTokens)
		}
	}
}
