// Package summary turns meeting transcripts into summaries, key points,
// and action items using an LLM provider, and renders them for email
// delivery.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/augmentlabs/meetbot/internal/observe"
	"github.com/augmentlabs/meetbot/internal/transcript"
	"github.com/augmentlabs/meetbot/pkg/provider/llm"
)

// Length selects how detailed the generated summary should be.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// maxTokensFor maps a summary length to the completion-token budget.
func maxTokensFor(l Length) int {
	switch l {
	case LengthShort:
		return 150
	case LengthLong:
		return 500
	default:
		return 300
	}
}

// ActionItem is a task extracted from the meeting with its owner.
type ActionItem struct {
	Assignee string `json:"assignee"`
	Task     string `json:"task"`
}

// Report is the full output of Generate.
type Report struct {
	Summary     string
	ActionItems []ActionItem
	KeyPoints   []string
	Speakers    []string
	Transcript  string
}

// Generator produces meeting summaries from transcript text.
type Generator struct {
	provider     llm.Provider
	providerName string
	length       Length
	actionItems  bool
	metrics      *observe.Metrics
}

// Option is a functional option for Generator.
type Option func(*Generator)

// WithLength sets the summary length. Defaults to LengthMedium.
func WithLength(l Length) Option {
	return func(g *Generator) {
		g.length = l
	}
}

// WithActionItems toggles action-item extraction in Generate. Defaults to
// enabled.
func WithActionItems(enabled bool) Option {
	return func(g *Generator) {
		g.actionItems = enabled
	}
}

// WithMetrics sets the metrics sink used to record LLM latency.
func WithMetrics(m *observe.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithProviderName sets the backend name reported in provider metrics,
// e.g. "openai". Defaults to "llm".
func WithProviderName(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.providerName = name
		}
	}
}

// NewGenerator creates a Generator backed by provider.
func NewGenerator(provider llm.Provider, opts ...Option) (*Generator, error) {
	if provider == nil {
		return nil, errors.New("summary: provider must not be nil")
	}
	g := &Generator{
		provider:     provider,
		providerName: "llm",
		length:       LengthMedium,
		actionItems:  true,
	}
	for _, o := range opts {
		o(g)
	}
	if g.metrics == nil {
		g.metrics = observe.DefaultMetrics()
	}
	return g, nil
}

// QuickSummary produces a short in-meeting summary of the transcript so
// far. It is what the "summarize" voice command calls.
func (g *Generator) QuickSummary(ctx context.Context, transcriptText string) (string, error) {
	if strings.TrimSpace(transcriptText) == "" {
		return "", errors.New("summary: transcript is empty")
	}

	prompt := fmt.Sprintf(
		"Please provide a brief summary of the meeting discussion so far. "+
			"Keep it to two or three sentences covering the main points.\n\nTranscript:\n%s",
		transcriptText)

	text, err := g.complete(ctx, prompt, maxTokensFor(LengthShort))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Generate produces a full end-of-meeting report: summary, action items,
// key points, and the speaker list. Extraction failures for action items
// and key points degrade to empty lists rather than failing the report.
func (g *Generator) Generate(ctx context.Context, entries []transcript.Entry) (*Report, error) {
	if len(entries) == 0 {
		return nil, errors.New("summary: no transcript entries")
	}

	text := renderEntries(entries)

	summaryText, err := g.summarize(ctx, text)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Summary:    summaryText,
		Speakers:   extractSpeakers(entries),
		Transcript: text,
	}

	if g.actionItems {
		items, err := g.extractActionItems(ctx, text)
		if err != nil {
			slog.Warn("action item extraction failed", "error", err)
		} else {
			report.ActionItems = items
		}
	}

	points, err := g.extractKeyPoints(ctx, text)
	if err != nil {
		slog.Warn("key point extraction failed", "error", err)
	} else {
		report.KeyPoints = points
	}

	return report, nil
}

// summarize runs the main summary prompt.
func (g *Generator) summarize(ctx context.Context, transcriptText string) (string, error) {
	prompt := fmt.Sprintf(
		"Please summarize the following meeting transcript. "+
			"Provide a %s summary that captures the main points discussed, "+
			"decisions made, and the overall purpose of the meeting.\n\nTranscript:\n%s",
		g.length, transcriptText)

	text, err := g.complete(ctx, prompt, maxTokensFor(g.length))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// extractActionItems asks the LLM for a JSON array of assignee/task pairs.
func (g *Generator) extractActionItems(ctx context.Context, transcriptText string) ([]ActionItem, error) {
	prompt := fmt.Sprintf(
		"Please extract action items from the following meeting transcript. "+
			"For each action item, identify the assignee (who is responsible) and the task. "+
			"Format your response as a JSON array of objects, each with \"assignee\" and \"task\" fields. "+
			"Respond with only the JSON array.\n\nTranscript:\n%s",
		transcriptText)

	text, err := g.complete(ctx, prompt, 500)
	if err != nil {
		return nil, err
	}

	var raw []ActionItem
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &raw); err != nil {
		return nil, fmt.Errorf("summary: parse action items: %w", err)
	}

	items := raw[:0]
	for _, it := range raw {
		if it.Assignee != "" && it.Task != "" {
			items = append(items, it)
		}
	}
	return items, nil
}

// extractKeyPoints asks the LLM for a JSON array of key point strings.
func (g *Generator) extractKeyPoints(ctx context.Context, transcriptText string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Please extract the key points from the following meeting transcript. "+
			"Provide a list of the most important points discussed, decisions made, "+
			"or insights shared. Format your response as a JSON array of strings. "+
			"Respond with only the JSON array.\n\nTranscript:\n%s",
		transcriptText)

	text, err := g.complete(ctx, prompt, 500)
	if err != nil {
		return nil, err
	}

	var points []string
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &points); err != nil {
		return nil, fmt.Errorf("summary: parse key points: %w", err)
	}
	return points, nil
}

// complete issues one completion request and records LLM latency.
func (g *Generator) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	start := time.Now()
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	})
	g.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		g.metrics.RecordProviderError(ctx, g.providerName, "llm")
		return "", fmt.Errorf("summary: completion: %w", err)
	}
	g.metrics.RecordProviderRequest(ctx, g.providerName, "llm", "ok")
	return resp.Content, nil
}

// renderEntries formats transcript entries as "[HH:MM:SS] Speaker: text"
// lines for inclusion in prompts and the email report.
func renderEntries(entries []transcript.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Render())
		b.WriteByte('\n')
	}
	return b.String()
}

// extractSpeakers returns the unique speaker names in first-seen order.
func extractSpeakers(entries []transcript.Entry) []string {
	seen := make(map[string]struct{}, 8)
	var speakers []string
	for _, e := range entries {
		if e.Speaker == "" {
			continue
		}
		if _, ok := seen[e.Speaker]; ok {
			continue
		}
		seen[e.Speaker] = struct{}{}
		speakers = append(speakers, e.Speaker)
	}
	return speakers
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models add despite instructions to return bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
