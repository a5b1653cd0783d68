package dispatch

import (
	"context"
	"fmt"
	"regexp"

	"github.com/augmentlabs/meetbot/internal/event"
)

// Command is a recognized command candidate handed to handlers.
type Command struct {
	// Event is the originating utterance.
	Event event.Event
	// Text is the portion of the utterance after the trigger word.
	Text string
}

// Result is what a handler produced. Reply, when non-empty, is emitted
// back into the meeting chat.
type Result struct {
	Reply string
}

// HandlerFunc executes one command. A handler that fails should still
// return the Result it wants emitted (usually empty); the dispatcher
// logs the error and falls back to a generic apology when the reply is
// empty.
type HandlerFunc func(ctx context.Context, cmd Command) (Result, error)

// Route pairs a compiled regex with the handler to execute when it
// matches. Patterns are tested with search semantics against the
// command text, so "please summarize now" still routes to summarize.
type Route struct {
	// Name is a stable label for logging and metrics.
	Name string

	// Regex is the compiled pattern. Submatches are not used; routing
	// only cares whether the pattern occurs in the command text.
	Regex *regexp.Regexp

	// Handle executes the command.
	Handle HandlerFunc
}

// Router matches command text against an ordered route list. The first
// matching route wins; order is the only precedence mechanism, so
// routes whose pattern is a substring of another's ("mute" vs
// "unmute", "record" vs "stop recording") must come after the more
// specific one.
//
// Router is stateless after construction and safe for concurrent use,
// though in practice only the single dispatcher goroutine calls it.
type Router struct {
	routes   []Route
	fallback string
}

// NewRouter builds a Router over the given routes. fallback is the
// reply emitted when no route matches.
func NewRouter(routes []Route, fallback string) *Router {
	return &Router{routes: routes, fallback: fallback}
}

// Route dispatches cmd to the first route whose pattern matches. It
// returns the matched route name (empty when nothing matched), the
// handler result and the handler error. A miss is not an error: the
// result carries the fallback reply.
func (r *Router) Route(ctx context.Context, cmd Command) (string, Result, error) {
	for _, rt := range r.routes {
		if !rt.Regex.MatchString(cmd.Text) {
			continue
		}
		res, err := rt.Handle(ctx, cmd)
		if err != nil {
			return rt.Name, res, fmt.Errorf("dispatch: %s: %w", rt.Name, err)
		}
		return rt.Name, res, nil
	}
	return "", Result{Reply: r.fallback}, nil
}

// FallbackReply builds the standard "not understood" reply, naming the
// trigger word so users learn how to ask for help.
func FallbackReply(triggerWord string) string {
	return fmt.Sprintf("I'm sorry, I don't understand that command. Try saying '%s help' for a list of commands.", triggerWord)
}
