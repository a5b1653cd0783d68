// Package recorder captures meeting audio to WAV files on disk. The
// audio consumer feeds it the same 16 kHz mono PCM stream the speech
// recognizer sees; between Start and Stop every chunk is buffered and
// finalized into a timestampable, uniquely named file.
package recorder

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

const (
	defaultSampleRate = 16000
	bitDepth          = 16
	numChannels       = 1
)

// Option is a functional option for configuring a Recorder.
type Option func(*Recorder)

// WithSampleRate overrides the sample rate written into the WAV header.
// Must match the rate of the PCM actually fed to Write. Default: 16000.
func WithSampleRate(rate int) Option {
	return func(r *Recorder) { r.sampleRate = rate }
}

// Recorder buffers PCM while recording and writes a WAV file on Stop.
// Safe for concurrent use — the audio consumer writes while command
// handlers toggle recording.
type Recorder struct {
	dir        string
	sampleRate int

	mu        sync.Mutex
	recording bool
	samples   []int
}

// New returns a Recorder that writes files into dir.
func New(dir string, opts ...Option) *Recorder {
	r := &Recorder{
		dir:        dir,
		sampleRate: defaultSampleRate,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Start begins a new capture, discarding any leftover buffer from a
// previous one. Returns an error if a capture is already running or
// the target directory cannot be created.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("recorder: already recording")
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("recorder: create dir: %w", err)
	}
	r.samples = r.samples[:0]
	r.recording = true
	return nil
}

// Write appends a chunk of 16-bit little-endian mono PCM to the current
// capture. Chunks arriving while no capture is running are dropped, so
// the audio consumer can feed the recorder unconditionally.
func (r *Recorder) Write(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		r.samples = append(r.samples, int(int16(binary.LittleEndian.Uint16(pcm[i:]))))
	}
}

// Stop finalizes the capture into a uniquely named WAV file and returns
// its path.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return "", fmt.Errorf("recorder: not recording")
	}
	r.recording = false
	samples := r.samples
	r.samples = nil
	r.mu.Unlock()

	path := filepath.Join(r.dir, "meeting-"+uuid.NewString()+".wav")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("recorder: create file: %w", err)
	}

	enc := wav.NewEncoder(f, r.sampleRate, bitDepth, numChannels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  r.sampleRate,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return "", fmt.Errorf("recorder: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return "", fmt.Errorf("recorder: finalize: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("recorder: close: %w", err)
	}
	return path, nil
}
