package elevenlabs

import (
	"strings"
	"testing"

	"github.com/augmentlabs/meetbot/pkg/provider/tts"
)

func voiceProfileWithID(id string) tts.VoiceProfile {
	return tts.VoiceProfile{ID: id, Provider: "elevenlabs"}
}

func TestNew_EmptyAPIKey(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNew_Defaults(t *testing.T) {
	p, err := New("key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model != defaultModel {
		t.Errorf("expected model %q, got %q", defaultModel, p.model)
	}
	if p.outputFormat != defaultOutputFmt {
		t.Errorf("expected output format %q, got %q", defaultOutputFmt, p.outputFormat)
	}
}

func TestNew_Options(t *testing.T) {
	p, err := New("key", WithModel("eleven_turbo_v2"), WithOutputFormat("pcm_24000"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model != "eleven_turbo_v2" {
		t.Errorf("expected model eleven_turbo_v2, got %q", p.model)
	}
	if p.outputFormat != "pcm_24000" {
		t.Errorf("expected output format pcm_24000, got %q", p.outputFormat)
	}
}

func TestBuildSynthesizeURL(t *testing.T) {
	got := buildSynthesizeURL("voice123", "pcm_16000")
	want := "https://api.elevenlabs.io/v1/text-to-speech/voice123?output_format=pcm_16000"
	if got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestParseVoicesResponse(t *testing.T) {
	raw := []byte(`{
		"voices": [
			{"voice_id": "v1", "name": "Rachel", "category": "premade", "labels": {"accent": "american"}},
			{"voice_id": "v2", "name": "Clyde", "labels": {}}
		]
	}`)

	profiles, err := parseVoicesResponse(raw)
	if err != nil {
		t.Fatalf("parseVoicesResponse: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	first := profiles[0]
	if first.ID != "v1" || first.Name != "Rachel" {
		t.Errorf("unexpected first profile: %+v", first)
	}
	if first.Provider != "elevenlabs" {
		t.Errorf("expected provider elevenlabs, got %q", first.Provider)
	}
	if first.Metadata["accent"] != "american" {
		t.Errorf("expected accent label, got %v", first.Metadata)
	}
	if first.Metadata["category"] != "premade" {
		t.Errorf("expected category metadata, got %v", first.Metadata)
	}

	if profiles[1].ID != "v2" {
		t.Errorf("unexpected second profile: %+v", profiles[1])
	}
}

func TestParseVoicesResponse_InvalidJSON(t *testing.T) {
	_, err := parseVoicesResponse([]byte(`{invalid`))
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSynthesize_Validation(t *testing.T) {
	p, err := New("key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = p.Synthesize(t.Context(), "hello", voiceProfileWithID(""))
	if err == nil || !strings.Contains(err.Error(), "voice.ID") {
		t.Errorf("expected voice.ID error, got %v", err)
	}

	_, err = p.Synthesize(t.Context(), "", voiceProfileWithID("v1"))
	if err == nil || !strings.Contains(err.Error(), "text") {
		t.Errorf("expected text error, got %v", err)
	}
}
