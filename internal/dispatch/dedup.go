package dispatch

import "sync"

const (
	// dedupMax is the number of remembered utterances that triggers a trim.
	dedupMax = 100
	// dedupKeep is how many of the most recent utterances survive a trim.
	dedupKeep = 50
)

// Deduper suppresses repeated utterances. The meeting surface re-reads
// the whole chat pane on every poll, so the same message is observed
// many times; the deduper remembers (speaker, text) pairs and lets each
// through exactly once.
//
// Memory is bounded: once dedupMax pairs are remembered, only the
// dedupKeep most recent are kept. A message older than the retained
// window can therefore be processed again — acceptable, since chat
// polls only ever surface recent messages.
//
// Safe for concurrent use.
type Deduper struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

// NewDeduper returns an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Seen reports whether the (speaker, text) pair was already observed,
// recording it if not. The first call for a given pair returns false,
// every subsequent call returns true until the pair ages out.
func (d *Deduper) Seen(speaker, text string) bool {
	key := speaker + ":" + text

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	d.order = append(d.order, key)

	if len(d.order) > dedupMax {
		drop := d.order[:len(d.order)-dedupKeep]
		d.order = append([]string(nil), d.order[len(d.order)-dedupKeep:]...)
		for _, k := range drop {
			delete(d.seen, k)
		}
	}
	return false
}

// Len returns the number of currently remembered pairs.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}
