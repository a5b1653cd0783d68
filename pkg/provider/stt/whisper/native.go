// This file contains the NativeProvider implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/augmentlabs/meetbot/pkg/provider/stt"
	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// Compile-time assertion that NativeProvider satisfies stt.Provider.
var _ stt.Provider = (*NativeProvider)(nil)

// NativeProvider implements stt.Provider using the whisper.cpp Go bindings,
// eliminating HTTP overhead entirely. The model is loaded once at startup
// and shared across all sessions; each session creates its own inference
// context, so sessions can run concurrently.
type NativeProvider struct {
	model    whisperlib.Model
	language string

	// Same segmentation parameters as the HTTP provider.
	sampleRate   int
	quietAfterMs int
	maxBufferMs  int
}

// NativeOption is a functional option for configuring a NativeProvider.
type NativeOption func(*NativeProvider)

// WithNativeLanguage sets the BCP-47 language code for transcription
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(p *NativeProvider) { p.language = lang }
}

// WithNativeSampleRate sets the audio sample rate in Hz. This must match the
// actual sample rate of PCM data delivered via SendAudio. Defaults to 16000.
func WithNativeSampleRate(rate int) NativeOption {
	return func(p *NativeProvider) { p.sampleRate = rate }
}

// WithNativeSilenceThresholdMs sets the trailing-quiet duration (ms) that
// marks the end of an utterance and triggers inference. Defaults to 500 ms.
func WithNativeSilenceThresholdMs(ms int) NativeOption {
	return func(p *NativeProvider) { p.quietAfterMs = ms }
}

// WithNativeMaxBufferDurationMs sets the maximum buffered audio duration (ms)
// before inference is forced. Defaults to 10 000 ms.
func WithNativeMaxBufferDurationMs(ms int) NativeOption {
	return func(p *NativeProvider) { p.maxBufferMs = ms }
}

// NewNative creates a NativeProvider that loads the whisper.cpp model from
// the given file path. The caller must call Close when the provider is no
// longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*NativeProvider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &NativeProvider{
		model:        model,
		language:     defaultLanguage,
		sampleRate:   defaultSampleRate,
		quietAfterMs: defaultSilenceThresholdMs,
		maxBufferMs:  defaultMaxBufferDurationMs,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model. Must be called when the provider is no
// longer needed.
func (p *NativeProvider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// StartStream opens a new transcription session over the shared model.
// cfg.SampleRate, cfg.Channels, and cfg.Language override the
// provider-level defaults when set.
func (p *NativeProvider) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.SessionHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context already cancelled: %w", err)
	}

	lang := cfg.Language
	if lang == "" {
		lang = p.language
	}
	sr := cfg.SampleRate
	if sr <= 0 {
		sr = p.sampleRate
	}
	ch := cfg.Channels
	if ch <= 0 {
		ch = 1
	}

	s := &nativeSession{
		model:        p.model,
		language:     lang,
		sampleRate:   sr,
		channels:     ch,
		quietAfterMs: p.quietAfterMs,
		maxBufferMs:  p.maxBufferMs,

		frames:   make(chan []byte, 256),
		partials: make(chan stt.Transcript),
		finals:   make(chan stt.Transcript, 64),
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.processLoop(ctx)

	return s, nil
}

// ---- nativeSession ----------------------------------------------------------

// Compile-time assertion that nativeSession satisfies stt.SessionHandle.
var _ stt.SessionHandle = (*nativeSession)(nil)

// nativeSession is a live transcription session using the CGO bindings. It
// implements stt.SessionHandle. All segmentation state lives in the
// processLoop goroutine.
type nativeSession struct {
	model        whisperlib.Model
	language     string
	sampleRate   int
	channels     int
	quietAfterMs int
	maxBufferMs  int

	frames   chan []byte
	partials chan stt.Transcript
	finals   chan stt.Transcript

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// SendAudio queues a chunk of raw 16-bit little-endian signed PCM audio for
// segmentation. Calling SendAudio after Close returns an error.
func (s *nativeSession) SendAudio(chunk []byte) error {
	select {
	case <-s.done:
		return errors.New("whisper: session is closed")
	default:
	}
	select {
	case s.frames <- chunk:
		return nil
	case <-s.done:
		return errors.New("whisper: session is closed")
	}
}

// Partials returns the interim-transcript channel. Batch inference produces
// no interim hypotheses, so nothing is ever sent on it; it is closed when
// the session ends.
func (s *nativeSession) Partials() <-chan stt.Transcript { return s.partials }

// Finals returns the channel that emits one authoritative Transcript per
// completed utterance. The channel is closed when the session ends.
func (s *nativeSession) Finals() <-chan stt.Transcript { return s.finals }

// SetKeywords always returns an error because whisper.cpp does not expose a
// keyword-boosting API.
func (s *nativeSession) SetKeywords(_ []stt.KeywordBoost) error {
	return fmt.Errorf("whisper: %w", errNotSupported)
}

// Close terminates the session, transcribes any buffered speech, closes the
// Partials and Finals channels, and releases all associated resources.
func (s *nativeSession) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

// processLoop drives the segmenter and runs native inference on completed
// utterances.
func (s *nativeSession) processLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.partials)
	defer close(s.finals)

	seg := newUtteranceBuffer(s.sampleRate, s.channels, s.quietAfterMs, s.maxBufferMs)

	emit := func() {
		pcm := seg.take()
		if pcm == nil {
			return
		}
		text, err := s.transcribe(pcm)
		if err != nil {
			slog.Error("whisper native inference failed", "error", err)
			return
		}
		if text == "" {
			return
		}
		select {
		case s.finals <- stt.Transcript{Text: text, IsFinal: true}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			emit()
			return

		case <-s.done:
			emit()
			return

		case chunk, ok := <-s.frames:
			if !ok {
				emit()
				return
			}
			if seg.feed(chunk) {
				emit()
			}
		}
	}
}

// transcribe converts the buffered PCM audio to float32 mono, runs
// whisper.cpp inference on a fresh context, and returns the concatenated
// segment text.
func (s *nativeSession) transcribe(pcm []byte) (string, error) {
	samples := pcmToFloat32Mono(pcm, s.channels)

	// Contexts are not thread-safe; the shared model is.
	wctx, err := s.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(s.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", s.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}
