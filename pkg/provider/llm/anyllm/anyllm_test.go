package anyllm

import (
	"strings"
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/augmentlabs/meetbot/pkg/provider/llm"
)

// TestNew_Validation checks that missing arguments are rejected.
func TestNew_Validation(t *testing.T) {
	if _, err := New("", "gpt-4o-mini"); err == nil {
		t.Error("expected error for empty provider name")
	}
	if _, err := New("ollama", ""); err == nil {
		t.Error("expected error for empty model")
	}
}

// TestNew_UnsupportedProvider checks the error for an unknown backend.
func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New("watson", "granite-13b")
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
	if !strings.Contains(err.Error(), "unsupported provider") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestNew_KnownProviders checks that every documented provider name resolves.
func TestNew_KnownProviders(t *testing.T) {
	names := []string{
		"openai", "anthropic", "gemini", "ollama", "deepseek",
		"mistral", "groq", "llamacpp", "llamafile",
		"OpenAI", // case-insensitive
	}
	for _, name := range names {
		if _, err := New(name, "some-model"); err != nil {
			t.Errorf("New(%q): unexpected error: %v", name, err)
		}
	}
}

// TestBuildParams_SystemPrompt checks that a system prompt becomes the
// leading system-role message.
func TestBuildParams_SystemPrompt(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	params := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "You summarize meetings.",
		Messages: []llm.Message{
			{Role: "user", Content: "Summarize this."},
		},
	})

	if len(params.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].Role != anyllmlib.RoleSystem {
		t.Errorf("expected leading system message, got role %q", params.Messages[0].Role)
	}
	if params.Messages[0].Content != "You summarize meetings." {
		t.Errorf("unexpected system content: %q", params.Messages[0].Content)
	}
	if params.Messages[1].Role != "user" || params.Messages[1].Content != "Summarize this." {
		t.Errorf("unexpected user message: %+v", params.Messages[1])
	}
	if params.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", params.Model)
	}
}

// TestBuildParams_Tuning checks temperature and max-token propagation.
func TestBuildParams_Tuning(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}

	params := p.buildParams(llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: "hi"}},
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if params.Temperature == nil || *params.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", params.Temperature)
	}
	if params.MaxTokens == nil || *params.MaxTokens != 500 {
		t.Errorf("expected max tokens 500, got %v", params.MaxTokens)
	}

	params = p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if params.Temperature != nil {
		t.Errorf("expected nil temperature for zero value, got %v", *params.Temperature)
	}
	if params.MaxTokens != nil {
		t.Errorf("expected nil max tokens for zero value, got %v", *params.MaxTokens)
	}
}

// TestModelCapabilities checks a few representative model lookups.
func TestModelCapabilities(t *testing.T) {
	tests := []struct {
		model         string
		contextWindow int
		maxOutput     int
	}{
		{"gpt-4o-mini", 128_000, 16_384},
		{"gpt-4", 8_192, 4_096},
		{"gpt-3.5-turbo", 16_385, 4_096},
		{"o3-mini", 200_000, 100_000},
		{"claude-3-5-haiku-latest", 200_000, 8_192},
		{"gemini-1.5-pro", 2_097_152, 8_192},
		{"gemini-2.0-flash", 1_048_576, 8_192},
		{"llama3.1", 128_000, 4_096}, // default
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
