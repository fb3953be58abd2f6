package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Sink receives per-component instrumentation events. Scorers hold a Sink
// instead of embedding their own mutable counters, so concurrent scoring
// never mutates business-logic state.
type Sink interface {
	Observe(component string, duration time.Duration, failed bool)
}

// Recorder is the default Sink backed by atomic counters.
type Recorder struct {
	mu         sync.RWMutex
	components map[string]*componentCounters
}

type componentCounters struct {
	processed atomic.Int64
	errors    atomic.Int64
	totalNs   atomic.Int64
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{components: make(map[string]*componentCounters)}
}

// Observe records one scoring call for the named component.
func (r *Recorder) Observe(component string, duration time.Duration, failed bool) {
	if r == nil {
		return
	}
	c := r.counters(component)
	c.processed.Add(1)
	c.totalNs.Add(duration.Nanoseconds())
	if failed {
		c.errors.Add(1)
	}
}

func (r *Recorder) counters(component string) *componentCounters {
	r.mu.RLock()
	c, ok := r.components[component]
	r.mu.RUnlock()
	if ok {
		return c
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.components[component]; ok {
		return c
	}
	c = &componentCounters{}
	r.components[component] = c
	return c
}

// Stats returns a diagnostics snapshot for the named component.
func (r *Recorder) Stats(component string) map[string]any {
	if r == nil {
		return map[string]any{}
	}
	r.mu.RLock()
	c, ok := r.components[component]
	r.mu.RUnlock()
	if !ok {
		return map[string]any{
			"processed": int64(0),
			"errors":    int64(0),
			"avg_ms":    float64(0),
		}
	}
	processed := c.processed.Load()
	avgMs := 0.0
	if processed > 0 {
		avgMs = float64(c.totalNs.Load()) / float64(processed) / float64(time.Millisecond)
	}
	return map[string]any{
		"processed": processed,
		"errors":    c.errors.Load(),
		"avg_ms":    avgMs,
	}
}

// Nop is a Sink that discards every observation.
type Nop struct{}

// Observe implements Sink.
func (Nop) Observe(string, time.Duration, bool) {}
