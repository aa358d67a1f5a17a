package tools

import (
	"context"
	"sync"
)

// Source identifies where a piece of retrieved content came from.
// Link is empty when no URL is known for the source.
type Source struct {
	Label string `json:"label"`
	Link  string `json:"link,omitempty"`
}

// Recorder accumulates the sources consulted while answering one query.
// Tool handlers record into it through the request context; the
// orchestrator reads the collected set after generation finishes.
//
// Recorder is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	sources []Source
}

// Record appends sources, skipping exact duplicates.
func (r *Recorder) Record(sources ...Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range sources {
		dup := false
		for _, have := range r.sources {
			if have == s {
				dup = true
				break
			}
		}
		if !dup {
			r.sources = append(r.sources, s)
		}
	}
}

// Sources returns the recorded sources in recording order.
func (r *Recorder) Sources() []Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// recorderKey is an unexported context key for zero-allocation type safety.
type recorderKey struct{}

// WithRecorder attaches a fresh Recorder to ctx and returns both.
// The orchestrator calls this once per query before generation.
func WithRecorder(ctx context.Context) (context.Context, *Recorder) {
	r := &Recorder{}
	return context.WithValue(ctx, recorderKey{}, r), r
}

// RecordSources records into the context's Recorder. A context without a
// recorder drops the sources silently so tool handlers never need to
// care whether tracking is active.
func RecordSources(ctx context.Context, sources ...Source) {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	if r == nil {
		return
	}
	r.Record(sources...)
}
