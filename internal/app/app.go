// Package app wires all meetbot subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run joins the meeting and executes the producer and
// dispatch loops, and Shutdown tears everything down in order,
// archiving the transcript and emailing the summary on the way out.
//
// For testing, inject doubles via functional options (WithSurface,
// WithMailer, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/augmentlabs/meetbot/internal/config"
	"github.com/augmentlabs/meetbot/internal/dispatch"
	"github.com/augmentlabs/meetbot/internal/event"
	"github.com/augmentlabs/meetbot/internal/health"
	"github.com/augmentlabs/meetbot/internal/meeting"
	"github.com/augmentlabs/meetbot/internal/meeting/bridge"
	"github.com/augmentlabs/meetbot/internal/observe"
	"github.com/augmentlabs/meetbot/internal/recorder"
	"github.com/augmentlabs/meetbot/internal/redact"
	"github.com/augmentlabs/meetbot/internal/summary"
	"github.com/augmentlabs/meetbot/internal/tools/websearch"
	"github.com/augmentlabs/meetbot/internal/transcript"
	"github.com/augmentlabs/meetbot/internal/transcript/phonetic"
	"github.com/augmentlabs/meetbot/internal/voice"
	"github.com/augmentlabs/meetbot/pkg/provider/llm"
	"github.com/augmentlabs/meetbot/pkg/provider/stt"
	"github.com/augmentlabs/meetbot/pkg/provider/tts"
)

// eventQueueSize bounds the merged producer queue. Producers block when
// the dispatcher falls this far behind.
const eventQueueSize = 64

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	LLM llm.Provider
	STT stt.Provider
	TTS tts.Provider
}

// App owns all subsystem lifetimes and orchestrates the meeting assistant.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems, initialised in New, torn down in Shutdown.
	surface    meeting.Surface
	translog   *transcript.Log
	filter     *redact.Filter
	rec        *recorder.Recorder
	scriber    *liveTranscriber
	dispatcher *dispatch.Dispatcher
	generator  *summary.Generator
	mailer     dispatch.Mailer
	searcher   dispatch.Searcher
	speaker    dispatch.Speaker
	archive    *transcript.Store
	metrics    *observe.Metrics

	meetingID string
	startedAt time.Time
	events    chan event.Event

	httpSrv *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSurface injects a meeting surface instead of dialling the bridge.
func WithSurface(s meeting.Surface) Option {
	return func(a *App) { a.surface = s }
}

// WithMailer injects a summary mailer instead of creating one from config.
func WithMailer(m dispatch.Mailer) Option {
	return func(a *App) { a.mailer = m }
}

// WithSearcher injects a web searcher instead of creating one from config.
func WithSearcher(s dispatch.Searcher) Option {
	return func(a *App) { a.searcher = s }
}

// WithSpeaker injects a voice speaker instead of creating one from the
// TTS provider.
func WithSpeaker(s dispatch.Speaker) Option {
	return func(a *App) { a.speaker = s }
}

// WithMetrics injects a metrics instance (tests use a private meter
// provider here).
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithArchive injects a transcript archive store.
func WithArchive(s *transcript.Store) Option {
	return func(a *App) { a.archive = s }
}

// New creates an App by wiring all subsystems together. The providers
// struct comes from main.go (populated via the config registry). Use
// Option functions to inject test doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
		translog:  transcript.NewLog(),
		filter:    redact.New(cfg.Transcript.RedactPII),
		rec:       recorder.New(cfg.Recording.Dir),
		scriber:   newLiveTranscriber(),
		meetingID: uuid.NewString(),
		startedAt: time.Now(),
		events:    make(chan event.Event, eventQueueSize),
	}
	for _, o := range opts {
		o(a)
	}

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if a.surface == nil {
		b, err := bridge.Dial(ctx, cfg.Bridge.URL, bridge.WithSelfName(cfg.Meeting.BotName))
		if err != nil {
			return nil, fmt.Errorf("app: dial bridge %q: %w", cfg.Bridge.URL, err)
		}
		a.surface = b
		a.closers = append(a.closers, b.Close)
	}

	if err := a.initSummary(); err != nil {
		return nil, fmt.Errorf("app: init summary: %w", err)
	}
	if err := a.initMailer(); err != nil {
		return nil, fmt.Errorf("app: init mailer: %w", err)
	}
	if err := a.initSearcher(); err != nil {
		return nil, fmt.Errorf("app: init searcher: %w", err)
	}
	if err := a.initSpeaker(); err != nil {
		return nil, fmt.Errorf("app: init speaker: %w", err)
	}
	if err := a.initArchive(ctx); err != nil {
		return nil, fmt.Errorf("app: init archive: %w", err)
	}

	a.initDispatcher()
	a.initHTTP()

	return a, nil
}

// initSummary creates the summary generator when an LLM is configured.
func (a *App) initSummary() error {
	if a.generator != nil || a.providers.LLM == nil {
		return nil
	}
	g, err := summary.NewGenerator(a.providers.LLM,
		summary.WithProviderName(a.cfg.Providers.LLM.Name),
		summary.WithLength(summary.Length(a.cfg.Summary.Length)),
		summary.WithActionItems(a.cfg.Summary.ActionItems),
		summary.WithMetrics(a.metrics),
	)
	if err != nil {
		return err
	}
	a.generator = g
	return nil
}

// initMailer creates the summary mailer when email delivery is enabled.
func (a *App) initMailer() error {
	if a.mailer != nil || !a.cfg.Email.Enabled {
		return nil
	}
	e := a.cfg.Email
	if len(e.Recipients) == 0 {
		slog.Warn("email enabled but no recipients configured; summary email disabled")
		return nil
	}

	switch e.Provider {
	case config.EmailSMTP:
		m, err := summary.NewSMTPMailer(e.SMTP.Host, e.SMTP.Port, e.SMTP.Username, e.SMTP.Password,
			e.FromName, e.FromAddr, e.Recipients)
		if err != nil {
			return err
		}
		a.mailer = m
	default:
		m, err := summary.NewMailer(e.SendGridAPIKey, e.FromName, e.FromAddr, e.Recipients)
		if err != nil {
			return err
		}
		a.mailer = m
	}
	return nil
}

// initSearcher creates the web search client when credentials are present.
func (a *App) initSearcher() error {
	if a.searcher != nil || a.cfg.Search.APIKey == "" || a.cfg.Search.EngineID == "" {
		return nil
	}
	c, err := websearch.New(a.cfg.Search.APIKey, a.cfg.Search.EngineID)
	if err != nil {
		return err
	}
	a.searcher = c
	return nil
}

// initSpeaker creates the voice speaker when voice replies are enabled.
func (a *App) initSpeaker() error {
	if a.speaker != nil || !a.cfg.Meeting.VoiceReplies || a.providers.TTS == nil {
		return nil
	}
	sp, err := voice.NewSpeaker(a.providers.TTS,
		tts.VoiceProfile{ID: a.cfg.Providers.TTS.Voice, Provider: a.cfg.Providers.TTS.Name},
		a.surface,
		voice.WithMetrics(a.metrics),
	)
	if err != nil {
		return err
	}
	a.speaker = sp
	return nil
}

// initArchive connects the PostgreSQL transcript archive when a DSN is
// configured.
func (a *App) initArchive(ctx context.Context) error {
	if a.archive != nil || a.cfg.Transcript.PostgresDSN == "" {
		return nil
	}
	store, err := transcript.NewStore(ctx, a.cfg.Transcript.PostgresDSN)
	if err != nil {
		return err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return err
	}
	a.archive = store
	a.closers = append(a.closers, func() error {
		store.Close()
		return nil
	})
	return nil
}

// initDispatcher assembles trigger, handlers, router, and emitter into
// the command dispatcher.
func (a *App) initDispatcher() {
	trig := dispatch.NewTrigger(a.cfg.Meeting.TriggerWord)

	deps := dispatch.Deps{
		Trigger:    trig,
		Surface:    a.surface,
		Transcript: a.translog,
		Recorder:   a.rec,
		Scriber:    a.scriber,
	}
	// Optional collaborators go in only when present; a typed nil
	// inside the interface would defeat the handlers' nil checks.
	if a.generator != nil {
		deps.Summarizer = a.generator
	}
	if a.mailer != nil {
		deps.Mailer = a.mailer
	}
	if a.searcher != nil {
		deps.Searcher = a.searcher
	}

	handlers := dispatch.NewHandlers(deps)
	router := dispatch.NewRouter(handlers.Routes(), dispatch.FallbackReply(trig.Word()))

	emitter := &transcriptEmitter{
		inner:   dispatch.NewChatEmitter(a.surface, a.speaker),
		log:     a.translog,
		botName: a.cfg.Meeting.BotName,
	}

	dopts := []dispatch.Option{dispatch.WithMetrics(a.metrics)}
	if a.cfg.Meeting.PhoneticCorrection {
		corr := transcript.NewCorrector(phonetic.New(), trig.Word())
		dopts = append(dopts, dispatch.WithCorrector(corr.Correct))
	}
	a.dispatcher = dispatch.New(trig, router, emitter, dopts...)
}

// initHTTP builds the diagnostics server: health probes and the
// Prometheus scrape endpoint, wrapped in the tracing middleware.
func (a *App) initHTTP() {
	h := health.New(health.Checker{
		Name: "meeting",
		Check: func(ctx context.Context) error {
			if !a.surface.InMeeting() {
				return errors.New("not in a meeting")
			}
			return nil
		},
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	a.httpSrv = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           observe.Middleware(a.metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run joins the meeting and blocks running the producer loops and the
// dispatcher until ctx is cancelled. It returns context.Canceled on a
// clean shutdown signal.
func (a *App) Run(ctx context.Context) error {
	if url := a.cfg.Meeting.URL; url != "" {
		if err := a.surface.Join(ctx, url); err != nil {
			return fmt.Errorf("app: join meeting: %w", err)
		}
		slog.Info("joined meeting", "url", url, "meeting_id", a.meetingID)
	}

	// One STT session covers the whole meeting: the bridge delivers a
	// single mixed audio stream, with diarization separating speakers.
	var session stt.SessionHandle
	if a.providers.STT != nil {
		sess, err := a.providers.STT.StartStream(ctx, stt.StreamConfig{
			SampleRate: 16000,
			Channels:   1,
			Language:   "en-US",
			Keywords:   []stt.KeywordBoost{{Keyword: a.cfg.Meeting.TriggerWord, Boost: 5}},
			Diarize:    true,
		})
		if err != nil {
			return fmt.Errorf("app: start stt session: %w", err)
		}
		session = sess
		defer session.Close()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.chatPollLoop(gctx) })
	g.Go(func() error { return a.audioLoop(gctx, session) })
	if session != nil {
		g.Go(func() error { return a.finalsLoop(gctx, session) })
	}
	g.Go(func() error { return a.dispatcher.Run(gctx, a.events) })
	g.Go(func() error { return a.serveHTTP(gctx) })

	slog.Info("app running",
		"trigger", a.cfg.Meeting.TriggerWord,
		"listen_addr", a.cfg.Server.ListenAddr,
	)
	return g.Wait()
}

// chatPollLoop polls the chat pane on a fixed interval and emits every
// visible message as an event. Repeats collapse in the dispatcher's
// deduplicator, mirroring the full-pane read semantics of the bridge.
func (a *App) chatPollLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Meeting.ChatPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		msgs, err := a.surface.ChatMessages(ctx)
		if err != nil {
			slog.Warn("chat poll failed", "err", err)
			continue
		}
		for _, m := range msgs {
			if strings.TrimSpace(m.Text) == "" {
				continue
			}
			sender := m.Sender
			if sender == "" {
				sender = "Unknown Speaker"
			}
			ev := event.Event{
				Speaker:       sender,
				Text:          m.Text,
				Timestamp:     time.Now(),
				Channel:       event.ChannelChat,
				FromAssistant: m.FromSelf || m.Sender == a.cfg.Meeting.BotName,
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case a.events <- ev:
			}
		}
	}
}

// audioLoop fans meeting audio out to the recorder and the STT session.
// session may be nil; recording still works without speech recognition.
func (a *App) audioLoop(ctx context.Context, session stt.SessionHandle) error {
	frames := a.surface.AudioFrames()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if a.rec.Recording() {
				a.rec.Write(frame)
			}
			if session != nil {
				if err := session.SendAudio(frame); err != nil {
					slog.Warn("stt send failed", "err", err)
				}
			}
		}
	}
}

// finalsLoop consumes finalized transcripts: lines are appended to the
// transcript log (while transcription is on) and emitted as spoken
// events for command detection.
func (a *App) finalsLoop(ctx context.Context, session stt.SessionHandle) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-session.Finals():
			if !ok {
				return nil
			}
			if strings.TrimSpace(t.Text) == "" {
				continue
			}

			speaker := t.SpeakerID
			if speaker == "" {
				speaker = "Unknown Speaker"
			}
			now := time.Now()

			if a.scriber.Transcribing() {
				a.translog.Append(transcript.Entry{
					Speaker:   speaker,
					Text:      a.filter.Apply(t.Text),
					Timestamp: now,
				})
				a.metrics.TranscriptLines.Add(ctx, 1)
			}

			ev := event.Event{
				Speaker:   speaker,
				Text:      t.Text,
				Timestamp: now,
				Channel:   event.ChannelSpoken,
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case a.events <- ev:
			}
		}
	}
}

// serveHTTP runs the diagnostics server until ctx is cancelled.
func (a *App) serveHTTP(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("app: http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

// Shutdown finalizes the meeting: stops any running recording, saves
// and archives the transcript, emails the summary, leaves the meeting,
// and closes all subsystems in order. It respects the context deadline.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "meeting_id", a.meetingID)

		if a.rec.Recording() {
			if path, err := a.rec.Stop(); err != nil {
				slog.Warn("stop recording failed", "err", err)
			} else {
				slog.Info("recording saved", "path", path)
			}
		}

		a.saveTranscript(ctx)
		a.emailSummary(ctx)

		if err := a.surface.Leave(ctx); err != nil {
			slog.Warn("leave meeting failed", "err", err)
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// saveTranscript writes the transcript JSON and archives entries to
// PostgreSQL when configured. Nothing is written for an empty log.
func (a *App) saveTranscript(ctx context.Context) {
	entries := a.translog.Entries()
	if len(entries) == 0 {
		return
	}

	name := fmt.Sprintf("meeting-%s-%s.json", a.startedAt.Format("20060102-150405"), a.meetingID)
	path := filepath.Join(a.cfg.Transcript.Dir, name)
	if err := a.translog.SaveJSON(path); err != nil {
		slog.Warn("save transcript failed", "err", err)
	} else {
		slog.Info("transcript saved", "path", path, "lines", len(entries))
	}

	if a.archive == nil {
		return
	}
	for _, e := range entries {
		if err := a.archive.WriteEntry(ctx, a.meetingID, e); err != nil {
			slog.Warn("archive transcript entry failed", "err", err)
			return
		}
	}
	slog.Info("transcript archived", "meeting_id", a.meetingID, "entries", len(entries))
}

// emailSummary generates the meeting report and mails it to the
// configured recipients. Requires both an LLM and a mailer.
func (a *App) emailSummary(ctx context.Context) {
	if a.mailer == nil || a.generator == nil || a.translog.Lines() == 0 {
		return
	}

	report, err := a.generator.Generate(ctx, a.translog.Entries())
	if err != nil {
		slog.Warn("summary generation failed", "err", err)
		return
	}
	body, err := report.RenderEmail()
	if err != nil {
		slog.Warn("summary rendering failed", "err", err)
		return
	}

	subject := "Meeting Summary - " + a.startedAt.Format("2006-01-02 15:04")
	if err := a.mailer.SendSummary(ctx, subject, body); err != nil {
		slog.Warn("summary email failed", "err", err)
		return
	}
}

// ApplyConfig applies a hot-reload diff. Only log level changes take
// effect live; everything else is reported as requiring a restart.
func (a *App) ApplyConfig(d config.ConfigDiff, level *slog.LevelVar) {
	if d.LogLevelChanged && level != nil {
		level.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level updated", "level", d.NewLogLevel)
	}
	if d.TriggerWordChanged || d.PollIntervalChanged || d.VoiceRepliesChanged || d.RedactPIIChanged {
		slog.Warn("config changes to trigger word, poll interval, voice replies, or redaction require a restart")
	}
}

// slogLevel maps a config.LogLevel onto the slog scale.
func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// liveTranscriber is the transcription toggle behind the transcribe and
// stop transcribing commands. Capture is on from the moment the bot
// joins, matching the assistant's default behaviour.
type liveTranscriber struct {
	on atomic.Bool
}

func newLiveTranscriber() *liveTranscriber {
	t := &liveTranscriber{}
	t.on.Store(true)
	return t
}

func (t *liveTranscriber) Transcribing() bool { return t.on.Load() }
func (t *liveTranscriber) Start()             { t.on.Store(true) }
func (t *liveTranscriber) Stop()              { t.on.Store(false) }

// transcriptEmitter decorates the chat emitter so every reply lands in
// the transcript as an assistant-authored line. Replies never re-enter
// the pipeline: the chat poller marks the bot's own messages and the
// dispatcher drops them.
type transcriptEmitter struct {
	inner   dispatch.Emitter
	log     *transcript.Log
	botName string
}

func (e *transcriptEmitter) Emit(ctx context.Context, ev event.Event, reply string) error {
	if err := e.inner.Emit(ctx, ev, reply); err != nil {
		return err
	}
	e.log.Append(transcript.Entry{
		Speaker:   e.botName,
		Text:      reply,
		Timestamp: time.Now(),
	})
	return nil
}
