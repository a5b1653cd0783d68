// Package whisper provides whisper.cpp-backed STT providers.
//
// whisper.cpp is a batch transcription engine, so both providers in this
// package simulate streaming: incoming PCM is run through an energy-based
// segmenter (utteranceBuffer) that cuts the audio into utterances at quiet
// boundaries, and each completed utterance is transcribed in one shot. The
// result is delivered on the Finals channel only; the Partials channel
// stays silent and is closed when the session ends, since a batch engine
// has no interim hypotheses to report.
//
// Provider talks to a running whisper-server binary over its REST API
// (POST /inference). NativeProvider links whisper.cpp directly through its
// CGO bindings.
//
// Usage:
//
//	p, err := whisper.New("http://localhost:8080",
//	    whisper.WithLanguage("en"),
//	    whisper.WithSilenceThresholdMs(500),
//	)
//	handle, err := p.StartStream(ctx, cfg)
//	handle.SendAudio(pcmChunk)
//	transcript := <-handle.Finals()
//	handle.Close()
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/augmentlabs/meetbot/pkg/provider/stt"
)

const (
	defaultLanguage            = "en"
	defaultSampleRate          = 16000
	defaultSilenceThresholdMs  = 500
	defaultMaxBufferDurationMs = 10_000
)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// errNotSupported is returned by SetKeywords because whisper.cpp does not
// expose a keyword boosting API.
var errNotSupported = errors.New("keyword boosting is not supported by whisper.cpp")

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with — this is the default.
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithLanguage sets the BCP-47 language code sent to the whisper.cpp server
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithSampleRate sets the audio sample rate in Hz. This must match the actual
// sample rate of PCM data delivered via SendAudio. Defaults to 16000.
func WithSampleRate(rate int) Option {
	return func(p *Provider) {
		p.sampleRate = rate
	}
}

// WithSilenceThresholdMs sets the trailing-quiet duration (in milliseconds)
// that marks the end of an utterance and triggers inference. Shorter values
// produce more responsive transcription at the cost of potentially splitting
// utterances. Defaults to 500 ms.
func WithSilenceThresholdMs(ms int) Option {
	return func(p *Provider) {
		p.quietAfterMs = ms
	}
}

// WithMaxBufferDurationMs sets the maximum duration of audio (in milliseconds)
// that may accumulate during continuous speech before inference is forced.
// This bounds memory growth when nobody pauses. Defaults to 10 000 ms.
func WithMaxBufferDurationMs(ms int) Option {
	return func(p *Provider) {
		p.maxBufferMs = ms
	}
}

// Provider implements stt.Provider backed by a whisper.cpp HTTP server.
// Multiple sessions may be open simultaneously; each session runs its own
// segmenter and goroutine.
type Provider struct {
	serverURL    string
	model        string
	language     string
	sampleRate   int
	quietAfterMs int
	maxBufferMs  int
	httpClient   *http.Client
}

// New creates a Provider that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:    serverURL,
		language:     defaultLanguage,
		sampleRate:   defaultSampleRate,
		quietAfterMs: defaultSilenceThresholdMs,
		maxBufferMs:  defaultMaxBufferDurationMs,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// StartStream opens a new transcription session. The returned SessionHandle
// accepts audio immediately; no network connection is made until the first
// utterance completes. cfg.SampleRate, cfg.Channels, and cfg.Language
// override the provider-level defaults when set.
func (p *Provider) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.SessionHandle, error) {
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

	s := &session{
		serverURL:    p.serverURL,
		model:        p.model,
		language:     lang,
		sampleRate:   sr,
		channels:     ch,
		quietAfterMs: p.quietAfterMs,
		maxBufferMs:  p.maxBufferMs,
		httpClient:   p.httpClient,

		frames:   make(chan []byte, 256),
		partials: make(chan stt.Transcript),
		finals:   make(chan stt.Transcript, 64),
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.processLoop(ctx)

	return s, nil
}

// ---- session ----------------------------------------------------------------

// session is a live transcription session against the whisper.cpp HTTP
// server. It implements stt.SessionHandle. All segmentation state lives in
// the processLoop goroutine.
type session struct {
	serverURL    string
	model        string
	language     string
	sampleRate   int
	channels     int
	quietAfterMs int
	maxBufferMs  int
	httpClient   *http.Client

	frames   chan []byte
	partials chan stt.Transcript
	finals   chan stt.Transcript

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// SendAudio queues a chunk of raw 16-bit little-endian signed PCM audio for
// segmentation. The chunk's sample rate and channel count must match the
// values agreed in StreamConfig. Calling SendAudio after Close returns an
// error.
func (s *session) SendAudio(chunk []byte) error {
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
func (s *session) Partials() <-chan stt.Transcript { return s.partials }

// Finals returns the channel that emits one authoritative Transcript per
// completed utterance. The channel is closed when the session ends.
func (s *session) Finals() <-chan stt.Transcript { return s.finals }

// SetKeywords always returns an error because whisper.cpp does not expose a
// keyword-boosting API. The session remains usable after this call.
func (s *session) SetKeywords(_ []stt.KeywordBoost) error {
	return fmt.Errorf("whisper: %w", errNotSupported)
}

// Close terminates the session, transcribes any buffered speech, closes the
// Partials and Finals channels, and releases all associated resources.
// Calling Close more than once is safe and returns nil.
func (s *session) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

// processLoop drives the segmenter and dispatches completed utterances to
// the server. It is the only goroutine touching segmentation state.
func (s *session) processLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.partials)
	defer close(s.finals)

	seg := newUtteranceBuffer(s.sampleRate, s.channels, s.quietAfterMs, s.maxBufferMs)

	emit := func(inferCtx context.Context) {
		pcm := seg.take()
		if pcm == nil {
			return
		}
		text, err := s.transcribe(inferCtx, pcm)
		if err != nil {
			slog.Debug("whisper inference failed", "error", err)
			return
		}
		if text == "" {
			return
		}
		// Non-blocking send: the channel is buffered, and a stalled consumer
		// must not wedge shutdown.
		select {
		case s.finals <- stt.Transcript{Text: text, IsFinal: true}:
		default:
		}
	}

	// drain runs the final flush on a fresh context: the caller's ctx may
	// already be cancelled when the session winds down.
	drain := func() {
		fc, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		emit(fc)
	}

	for {
		select {
		case <-ctx.Done():
			drain()
			return

		case <-s.done:
			drain()
			return

		case chunk, ok := <-s.frames:
			if !ok {
				drain()
				return
			}
			if seg.feed(chunk) {
				emit(ctx)
			}
		}
	}
}

// transcribe encodes pcm as a WAV file and POSTs it to the whisper.cpp
// /inference endpoint as multipart/form-data, returning the transcribed text.
func (s *session) transcribe(ctx context.Context, pcm []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(pcmToWAV(pcm, s.sampleRate, s.channels)); err != nil {
		return "", fmt.Errorf("whisper: write wav data: %w", err)
	}

	if s.language != "" {
		if err := mw.WriteField("language", s.language); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if s.model != "" {
		if err := mw.WriteField("model", s.model); err != nil {
			return "", fmt.Errorf("whisper: write model field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	// whisper-server pads segment text with a leading space.
	return strings.TrimSpace(result.Text), nil
}
