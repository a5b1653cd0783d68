package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// Surface is the slice of the meeting connection that handlers drive.
type Surface interface {
	// InMeeting reports whether the bot is currently joined.
	InMeeting() bool
	// Participants returns the display names of everyone in the meeting.
	Participants(ctx context.Context) ([]string, error)
	// SetMicMuted mutes or unmutes the bot's microphone.
	SetMicMuted(ctx context.Context, muted bool) error
	// Leave disconnects from the meeting.
	Leave(ctx context.Context) error
}

// TranscriptSource exposes the running transcript to handlers.
type TranscriptSource interface {
	// Lines returns the number of transcript lines captured so far.
	Lines() int
	// Render returns the transcript as display text, one line per entry.
	Render() string
}

// Recorder controls audio capture to disk.
type Recorder interface {
	Recording() bool
	Start() error
	// Stop finalizes the recording and returns the file it was saved to.
	Stop() (string, error)
}

// Transcriber toggles live speech-to-text capture.
type Transcriber interface {
	Transcribing() bool
	Start()
	Stop()
}

// Summarizer produces meeting summaries from transcript text.
type Summarizer interface {
	QuickSummary(ctx context.Context, transcript string) (string, error)
}

// Mailer delivers a generated summary to the configured recipients.
type Mailer interface {
	SendSummary(ctx context.Context, subject, body string) error
}

// Searcher answers ad-hoc lookup queries.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// leaveDelay is how long the leave handler waits before disconnecting,
// giving the goodbye reply time to land in chat first.
const leaveDelay = 2 * time.Second

// Handlers owns the built-in command set. Optional collaborators may be
// nil; the corresponding handlers then reply that the capability is
// unavailable instead of failing.
type Handlers struct {
	trigger    Trigger
	surface    Surface
	transcript TranscriptSource
	recorder   Recorder
	scriber    Transcriber
	summarize  Summarizer
	mailer     Mailer
	searcher   Searcher

	leaveAfter time.Duration
}

// Deps collects the collaborators for NewHandlers. Surface is required;
// everything else degrades gracefully when nil.
type Deps struct {
	Trigger    Trigger
	Surface    Surface
	Transcript TranscriptSource
	Recorder   Recorder
	Scriber    Transcriber
	Summarizer Summarizer
	Mailer     Mailer
	Searcher   Searcher
}

// NewHandlers wires the built-in command handlers.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		trigger:    deps.Trigger,
		surface:    deps.Surface,
		transcript: deps.Transcript,
		recorder:   deps.Recorder,
		scriber:    deps.Scriber,
		summarize:  deps.Summarizer,
		mailer:     deps.Mailer,
		searcher:   deps.Searcher,
		leaveAfter: leaveDelay,
	}
}

// Routes returns the command routes in precedence order. Order matters:
// patterns are substring searches, so "unmute" must precede "mute" and
// the "stop ..." variants must precede their bare counterparts, or the
// broader pattern would swallow the narrower command.
func (h *Handlers) Routes() []Route {
	routes := []Route{
		{Name: "summarize", Regex: regexp.MustCompile(`(?i)summarize`), Handle: h.handleSummarize},
		{Name: "take-notes", Regex: regexp.MustCompile(`(?i)take\s+notes`), Handle: h.handleTakeNotes},
		{Name: "list-participants", Regex: regexp.MustCompile(`(?i)list\s+participants`), Handle: h.handleListParticipants},
		{Name: "help", Regex: regexp.MustCompile(`(?i)help`), Handle: h.handleHelp},
		{Name: "status", Regex: regexp.MustCompile(`(?i)status`), Handle: h.handleStatus},
		{Name: "leave", Regex: regexp.MustCompile(`(?i)leave`), Handle: h.handleLeave},
		{Name: "unmute", Regex: regexp.MustCompile(`(?i)unmute`), Handle: h.handleUnmute},
		{Name: "mute", Regex: regexp.MustCompile(`(?i)mute`), Handle: h.handleMute},
		{Name: "stop-recording", Regex: regexp.MustCompile(`(?i)stop\s+recording`), Handle: h.handleStopRecording},
		{Name: "record", Regex: regexp.MustCompile(`(?i)record`), Handle: h.handleRecord},
		{Name: "stop-transcribing", Regex: regexp.MustCompile(`(?i)stop\s+transcribing`), Handle: h.handleStopTranscribing},
		{Name: "transcribe", Regex: regexp.MustCompile(`(?i)transcribe`), Handle: h.handleTranscribe},
	}
	if h.mailer != nil {
		routes = append(routes, Route{Name: "email-summary", Regex: regexp.MustCompile(`(?i)email\s+summary`), Handle: h.handleEmailSummary})
	}
	if h.searcher != nil {
		routes = append(routes, Route{Name: "search", Regex: regexp.MustCompile(`(?i)search\s+\S`), Handle: h.handleSearch})
	}
	return routes
}

func (h *Handlers) handleSummarize(ctx context.Context, _ Command) (Result, error) {
	if h.transcript == nil || h.transcript.Lines() == 0 {
		return Result{Reply: "There's no transcript to summarize yet."}, nil
	}
	if h.summarize == nil {
		return Result{Reply: "I can't generate a summary right now."}, nil
	}
	summary, err := h.summarize.QuickSummary(ctx, h.transcript.Render())
	if err != nil {
		return Result{}, fmt.Errorf("quick summary: %w", err)
	}
	return Result{Reply: "Here's a quick summary of the meeting so far: " + summary}, nil
}

func (h *Handlers) handleTakeNotes(context.Context, Command) (Result, error) {
	return Result{Reply: "I'm already taking notes of this meeting. I'll provide a summary at the end."}, nil
}

func (h *Handlers) handleListParticipants(ctx context.Context, _ Command) (Result, error) {
	participants, err := h.surface.Participants(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list participants: %w", err)
	}
	if len(participants) == 0 {
		return Result{Reply: "I couldn't detect any participants."}, nil
	}
	return Result{Reply: "Current participants: " + strings.Join(participants, ", ")}, nil
}

func (h *Handlers) handleHelp(context.Context, Command) (Result, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are the commands you can use (prefix with '%s'):\n", h.trigger.Word())
	b.WriteString("- summarize: Generate a summary of the meeting so far\n")
	b.WriteString("- take notes: Confirm that I'm taking notes\n")
	b.WriteString("- list participants: Show who's in the meeting\n")
	b.WriteString("- status: Show my current status\n")
	b.WriteString("- mute/unmute: Control my microphone\n")
	b.WriteString("- record/stop recording: Control audio recording\n")
	b.WriteString("- transcribe/stop transcribing: Control transcription\n")
	if h.mailer != nil {
		b.WriteString("- email summary: Send the meeting summary by email\n")
	}
	if h.searcher != nil {
		b.WriteString("- search <query>: Look something up on the web\n")
	}
	b.WriteString("- leave: Leave the meeting")
	return Result{Reply: b.String()}, nil
}

func (h *Handlers) handleStatus(context.Context, Command) (Result, error) {
	recording := h.recorder != nil && h.recorder.Recording()
	lines := 0
	if h.transcript != nil {
		lines = h.transcript.Lines()
	}
	reply := fmt.Sprintf("Current Status:\n- In meeting: %t\n- Recording: %t\n- Transcript lines: %d",
		h.surface.InMeeting(), recording, lines)
	return Result{Reply: reply}, nil
}

func (h *Handlers) handleLeave(context.Context, Command) (Result, error) {
	// Detached on purpose: the reply must reach chat before the
	// connection drops, and leaving must survive dispatcher shutdown.
	time.AfterFunc(h.leaveAfter, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.surface.Leave(ctx); err != nil {
			slog.Error("dispatch: leave meeting failed", "error", err)
		}
	})
	return Result{Reply: "I'll leave the meeting now. Goodbye!"}, nil
}

func (h *Handlers) handleMute(ctx context.Context, _ Command) (Result, error) {
	if err := h.surface.SetMicMuted(ctx, true); err != nil {
		return Result{}, fmt.Errorf("mute: %w", err)
	}
	return Result{Reply: "I've muted my microphone."}, nil
}

func (h *Handlers) handleUnmute(ctx context.Context, _ Command) (Result, error) {
	if err := h.surface.SetMicMuted(ctx, false); err != nil {
		return Result{}, fmt.Errorf("unmute: %w", err)
	}
	return Result{Reply: "I've unmuted my microphone."}, nil
}

func (h *Handlers) handleRecord(context.Context, Command) (Result, error) {
	if h.recorder == nil {
		return Result{Reply: "I can't control recording without audio handler."}, nil
	}
	if h.recorder.Recording() {
		return Result{Reply: "I'm already recording the meeting."}, nil
	}
	if err := h.recorder.Start(); err != nil {
		return Result{}, fmt.Errorf("start recording: %w", err)
	}
	return Result{Reply: "I've started recording the meeting."}, nil
}

func (h *Handlers) handleStopRecording(context.Context, Command) (Result, error) {
	if h.recorder == nil {
		return Result{Reply: "I can't control recording without audio handler."}, nil
	}
	if !h.recorder.Recording() {
		return Result{Reply: "I'm not currently recording the meeting."}, nil
	}
	path, err := h.recorder.Stop()
	if err != nil {
		return Result{}, fmt.Errorf("stop recording: %w", err)
	}
	return Result{Reply: "I've stopped recording the meeting. Recording saved to " + path}, nil
}

func (h *Handlers) handleTranscribe(context.Context, Command) (Result, error) {
	if h.scriber == nil {
		return Result{Reply: "I can't control transcription right now."}, nil
	}
	h.scriber.Start()
	return Result{Reply: "I've started transcribing the meeting."}, nil
}

func (h *Handlers) handleStopTranscribing(context.Context, Command) (Result, error) {
	if h.scriber == nil {
		return Result{Reply: "I can't control transcription right now."}, nil
	}
	h.scriber.Stop()
	return Result{Reply: "I've stopped transcribing the meeting."}, nil
}

func (h *Handlers) handleEmailSummary(ctx context.Context, _ Command) (Result, error) {
	if h.transcript == nil || h.transcript.Lines() == 0 {
		return Result{Reply: "There's no transcript to summarize yet."}, nil
	}
	if h.summarize == nil {
		return Result{Reply: "I can't generate a summary right now."}, nil
	}
	summary, err := h.summarize.QuickSummary(ctx, h.transcript.Render())
	if err != nil {
		return Result{}, fmt.Errorf("quick summary: %w", err)
	}
	if err := h.mailer.SendSummary(ctx, "Meeting Summary", summary); err != nil {
		return Result{}, fmt.Errorf("email summary: %w", err)
	}
	return Result{Reply: "I've emailed the meeting summary."}, nil
}

var searchQueryRe = regexp.MustCompile(`(?i)search\s+(?:for\s+)?(.+)`)

func (h *Handlers) handleSearch(ctx context.Context, cmd Command) (Result, error) {
	m := searchQueryRe.FindStringSubmatch(cmd.Text)
	if m == nil {
		return Result{Reply: "What should I search for?"}, nil
	}
	answer, err := h.searcher.Search(ctx, strings.TrimSpace(m[1]))
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	return Result{Reply: answer}, nil
}
