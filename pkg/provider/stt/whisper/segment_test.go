package whisper

import (
	"encoding/binary"
	"math"
	"testing"
)

// speechPCM generates a 440 Hz sine-wave buffer whose RMS is well above the
// quiet floor. The buffer contains `samples` 16-bit little-endian samples.
func speechPCM(samples int) []byte {
	const amplitude = 10_000.0
	buf := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(amplitude * math.Sin(2*math.Pi*440*float64(i)/16000))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

func silencePCM(samples int) []byte {
	return make([]byte, samples*2)
}

func TestUtteranceBuffer_LeadingQuietDiscarded(t *testing.T) {
	b := newUtteranceBuffer(16000, 1, 100, 10_000)

	// 1 s of quiet before any speech: never ready, nothing buffered.
	if ready := b.feed(silencePCM(16000)); ready {
		t.Error("feed(quiet) before speech reported ready")
	}
	if pcm := b.take(); pcm != nil {
		t.Errorf("take() after quiet-only input returned %d bytes; want nil", len(pcm))
	}
}

func TestUtteranceBuffer_SpeechThenQuietIsReady(t *testing.T) {
	b := newUtteranceBuffer(16000, 1, 100, 10_000)

	// 100 ms of speech (1600 samples at 16 kHz) — not ready yet.
	if ready := b.feed(speechPCM(1600)); ready {
		t.Error("feed(speech) reported ready before the quiet threshold")
	}
	// 100 ms of trailing quiet meets the 100 ms threshold.
	if ready := b.feed(silencePCM(1600)); !ready {
		t.Fatal("feed(quiet) after speech did not report ready")
	}

	pcm := b.take()
	if len(pcm) != 1600*2+1600*2 {
		t.Errorf("take() returned %d bytes; want %d", len(pcm), 1600*4)
	}
}

func TestUtteranceBuffer_MaxBytesForcesReady(t *testing.T) {
	// 200 ms cap with a quiet threshold that will never be reached.
	b := newUtteranceBuffer(16000, 1, 60_000, 200)

	// 210 ms of continuous speech exceeds the cap.
	if ready := b.feed(speechPCM(3360)); !ready {
		t.Fatal("feed(speech) past the duration cap did not report ready")
	}
	if pcm := b.take(); pcm == nil {
		t.Error("take() after forced flush returned nil")
	}
}

func TestUtteranceBuffer_TakeResetsState(t *testing.T) {
	b := newUtteranceBuffer(16000, 1, 100, 10_000)

	b.feed(speechPCM(1600))
	b.feed(silencePCM(1600))
	if pcm := b.take(); pcm == nil {
		t.Fatal("first take() returned nil")
	}

	// After a take, trailing quiet alone must not produce another utterance.
	if ready := b.feed(silencePCM(1600)); ready {
		t.Error("feed(quiet) after take reported ready")
	}
	if pcm := b.take(); pcm != nil {
		t.Errorf("second take() returned %d bytes; want nil", len(pcm))
	}
}

func TestRMS_QuietAndSpeech(t *testing.T) {
	if got := rms(silencePCM(160)); got != 0 {
		t.Errorf("rms(silence) = %f; want 0", got)
	}
	if got := rms(speechPCM(160)); got < defaultRMSThreshold {
		t.Errorf("rms(speech) = %f; want >= %f", got, defaultRMSThreshold)
	}
	if got := rms(nil); got != 0 {
		t.Errorf("rms(nil) = %f; want 0", got)
	}
}

func TestDurationMs(t *testing.T) {
	// 16 kHz mono 16-bit: 32 bytes per millisecond.
	if got := durationMs(make([]byte, 3200), 16000, 1); got != 100 {
		t.Errorf("durationMs(3200 B) = %d; want 100", got)
	}
	if got := durationMs(make([]byte, 3200), 0, 1); got != 0 {
		t.Errorf("durationMs with zero sample rate = %d; want 0", got)
	}
}

func TestPcmToWAV_Header(t *testing.T) {
	pcm := speechPCM(160)
	wav := pcmToWAV(pcm, 16000, 1)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav length = %d; want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if sr := binary.LittleEndian.Uint32(wav[24:28]); sr != 16000 {
		t.Errorf("sample rate in header = %d; want 16000", sr)
	}
	if ds := binary.LittleEndian.Uint32(wav[40:44]); int(ds) != len(pcm) {
		t.Errorf("data size in header = %d; want %d", ds, len(pcm))
	}
}
