package coqui

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/augmentlabs/meetbot/pkg/provider/tts"
)

// makeWAV builds a minimal RIFF/WAVE container around pcm for test servers.
func makeWAV(pcm []byte, sampleRate, channels int) []byte {
	buf := make([]byte, 44+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[44:], pcm)
	return buf
}

// ---- constructor ----

func TestNew_EmptyURL(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Error("expected error for empty server URL")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	p, err := New("http://localhost:5002/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.serverURL != "http://localhost:5002" {
		t.Errorf("expected trailing slash trimmed, got %q", p.serverURL)
	}
	if p.apiMode != APIModeStandard {
		t.Errorf("expected default API mode standard, got %q", p.apiMode)
	}
}

// ---- Synthesize ----

func TestSynthesize_Standard(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tts" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("text") != "I've muted my microphone." {
			t.Errorf("unexpected text param: %q", q.Get("text"))
		}
		if q.Get("speaker_id") != "p225" {
			t.Errorf("unexpected speaker_id: %q", q.Get("speaker_id"))
		}
		if q.Get("language_id") != "en" {
			t.Errorf("unexpected language_id: %q", q.Get("language_id"))
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(makeWAV(pcm, 16000, 1))
	}))
	defer srv.Close()

	p, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := p.Synthesize(context.Background(), "I've muted my microphone.", tts.VoiceProfile{ID: "p225"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(got) != string(pcm) {
		t.Errorf("expected PCM %v, got %v", pcm, got)
	}
}

func TestSynthesize_XTTS(t *testing.T) {
	pcm := []byte{0x10, 0x20}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts_to_audio/" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req ttsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != "hello" || req.SpeakerWav != "claribel" || req.Language != "en" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Write(makeWAV(pcm, 16000, 1))
	}))
	defer srv.Close()

	p, err := New(srv.URL, WithAPIMode(APIModeXTTS))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := p.Synthesize(context.Background(), "hello", tts.VoiceProfile{ID: "claribel"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(got) != string(pcm) {
		t.Errorf("expected PCM %v, got %v", pcm, got)
	}
}

func TestSynthesize_XTTSRequiresVoice(t *testing.T) {
	p, err := New("http://localhost:1", WithAPIMode(APIModeXTTS))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), "hi", tts.VoiceProfile{}); err == nil {
		t.Error("expected error for missing voice ID in XTTS mode")
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	p, err := New("http://localhost:1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), "", tts.VoiceProfile{ID: "v"}); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), "hi", tts.VoiceProfile{}); err == nil {
		t.Error("expected error for HTTP 500")
	}
}

func TestSynthesize_Resamples(t *testing.T) {
	// Two samples at 32 kHz halved to 16 kHz should yield one sample.
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:2], uint16(int16(1000)))
	binary.LittleEndian.PutUint16(pcm[2:4], uint16(int16(2000)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(makeWAV(pcm, 32000, 1))
	}))
	defer srv.Close()

	p, err := New(srv.URL, WithOutputSampleRate(16000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := p.Synthesize(context.Background(), "hi", tts.VoiceProfile{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 1 resampled sample (2 bytes), got %d bytes", len(got))
	}
}

// ---- ListVoices ----

func TestListVoices_Standard_MultiSpeaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/details" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(detailsResponse{
			ModelName: "vctk",
			Language:  "en",
			Speakers:  []string{"p226", "p225"},
		})
	}))
	defer srv.Close()

	p, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(voices))
	}
	// Sorted output.
	if voices[0].ID != "p225" || voices[1].ID != "p226" {
		t.Errorf("expected sorted speakers, got %v", voices)
	}
	if voices[0].Metadata["model_name"] != "vctk" {
		t.Errorf("expected model_name metadata, got %v", voices[0].Metadata)
	}
}

func TestListVoices_Standard_SingleSpeaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(detailsResponse{ModelName: "ljspeech"})
	}))
	defer srv.Close()

	p, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 1 || voices[0].ID != "ljspeech" {
		t.Errorf("expected single ljspeech voice, got %v", voices)
	}
}

func TestListVoices_XTTS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/studio_speakers" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"Claribel Dervla": {}, "Ana Florence": {}}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL, WithAPIMode(APIModeXTTS))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(voices))
	}
	if voices[0].Name != "Ana Florence" || voices[1].Name != "Claribel Dervla" {
		t.Errorf("expected sorted voices, got %v", voices)
	}
}

// ---- helpers ----

func TestParseWAV_Valid(t *testing.T) {
	wav := makeWAV([]byte{1, 2, 3, 4}, 22050, 1)
	info, err := parseWAV(wav)
	if err != nil {
		t.Fatalf("parseWAV: %v", err)
	}
	if info.DataOffset != 44 {
		t.Errorf("expected data offset 44, got %d", info.DataOffset)
	}
	if info.SampleRate != 22050 || info.Channels != 1 {
		t.Errorf("unexpected format: %+v", info)
	}
}

func TestParseWAV_Invalid(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("too short"),
		[]byte("NOTRIFFxxWAVE"),
		makeWAV(nil, 16000, 1)[:20],
	}
	for i, c := range cases {
		if _, err := parseWAV(c); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestResampleMono16_SameRate(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	got := resampleMono16(pcm, 16000, 16000)
	if string(got) != string(pcm) {
		t.Error("expected unchanged PCM for equal rates")
	}
}

func TestResampleMono16_Upsample(t *testing.T) {
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:2], uint16(int16(0)))
	binary.LittleEndian.PutUint16(pcm[2:4], uint16(int16(1000)))

	got := resampleMono16(pcm, 8000, 16000)
	if len(got) != 8 {
		t.Fatalf("expected 4 samples (8 bytes), got %d bytes", len(got))
	}
	// Midpoint between 0 and 1000 should be interpolated.
	mid := int16(binary.LittleEndian.Uint16(got[2:4]))
	if mid != 500 {
		t.Errorf("expected interpolated sample 500, got %d", mid)
	}
}
