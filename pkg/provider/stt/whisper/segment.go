package whisper

import (
	"encoding/binary"
	"math"
)

const (
	// bitsPerSample is fixed at 16 for the 16-bit signed little-endian PCM
	// audio that whisper.cpp expects.
	bitsPerSample = 16

	// defaultRMSThreshold is the root-mean-square energy level (in 16-bit PCM
	// units) below which audio is considered quiet. The maximum possible value
	// for 16-bit audio is 32 767; 300 corresponds to near-silence.
	defaultRMSThreshold = 300.0
)

// utteranceBuffer is the energy-gated segmenter shared by the HTTP and
// native whisper sessions. It accumulates PCM until enough trailing quiet
// has been heard after speech, or until the size cap is hit, at which point
// take returns the buffered utterance for batch inference.
//
// Not safe for concurrent use. Each session drives one instance from its
// processing goroutine.
type utteranceBuffer struct {
	rmsFloor     float64
	quietAfterMs int
	maxBytes     int
	sampleRate   int
	channels     int

	pending []byte
	voiced  bool
	quietMs int
}

// newUtteranceBuffer builds a segmenter for the given audio format.
// quietAfterMs is the trailing-quiet duration that marks the end of an
// utterance; maxDurationMs caps how much audio may accumulate during
// continuous speech before a flush is forced.
func newUtteranceBuffer(sampleRate, channels, quietAfterMs, maxDurationMs int) *utteranceBuffer {
	bytesPerMs := sampleRate * channels * (bitsPerSample / 8) / 1000
	if bytesPerMs <= 0 {
		bytesPerMs = 32 // 16 kHz, mono, 16-bit
	}
	return &utteranceBuffer{
		rmsFloor:     defaultRMSThreshold,
		quietAfterMs: quietAfterMs,
		maxBytes:     maxDurationMs * bytesPerMs,
		sampleRate:   sampleRate,
		channels:     channels,
	}
}

// feed analyses one PCM chunk and reports whether the buffered utterance is
// ready to be taken. Quiet chunks heard before any speech are discarded so
// that leading silence never reaches the inference engine.
func (b *utteranceBuffer) feed(chunk []byte) bool {
	if rms(chunk) < b.rmsFloor {
		if !b.voiced {
			return false
		}
		b.pending = append(b.pending, chunk...)
		b.quietMs += durationMs(chunk, b.sampleRate, b.channels)
		return b.quietMs >= b.quietAfterMs
	}

	b.voiced = true
	b.quietMs = 0
	b.pending = append(b.pending, chunk...)
	return b.maxBytes > 0 && len(b.pending) >= b.maxBytes
}

// take returns the buffered utterance and resets the segmenter. It returns
// nil when nothing but quiet has been buffered since the last take.
func (b *utteranceBuffer) take() []byte {
	pcm := b.pending
	voiced := b.voiced
	b.pending = nil
	b.voiced = false
	b.quietMs = 0
	if !voiced || len(pcm) == 0 {
		return nil
	}
	return pcm
}

// rms returns the root-mean-square energy of a 16-bit signed little-endian
// PCM buffer, expressed in PCM sample units (0–32 767). Buffers shorter than
// one sample yield 0.
func rms(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2])))
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// durationMs returns the playback duration of a PCM chunk in milliseconds.
// Returns 0 for invalid sample rates or channel counts.
func durationMs(chunk []byte, sampleRate, channels int) int {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	bytesPerSec := sampleRate * channels * (bitsPerSample / 8)
	return len(chunk) * 1000 / bytesPerSec
}
