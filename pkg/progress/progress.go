// Package progress reports generation progress to callers.
package progress

import (
	"sync"
	"time"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// Percent milestones of a run. Section settlement moves between
// StartPercent and SectionsDonePercent.
const (
	StartPercent        = 5
	SectionsDonePercent = 90
	ValidatingPercent   = 92
	AssemblingPercent   = 95
	CompletePercent     = 100
)

// SectionPercent returns the percent after settled of total sections resolved.
func SectionPercent(settled, total int) int {
	if total <= 0 {
		return SectionsDonePercent
	}
	if settled > total {
		settled = total
	}
	return StartPercent + settled*(SectionsDonePercent-StartPercent)/total
}

// Sink receives progress events. Implementations must not block for long.
type Sink interface {
	Emit(evt models.ProgressEvent)
}

// FuncSink adapts a function to Sink.
type FuncSink func(evt models.ProgressEvent)

// Emit implements Sink.
func (f FuncSink) Emit(evt models.ProgressEvent) { f(evt) }

// Discard drops every event.
var Discard Sink = FuncSink(func(models.ProgressEvent) {})

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(evt models.ProgressEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(evt)
		}
	}
}

// ChannelSink forwards events to a channel. Intermediate events are dropped
// when the buffer is full; terminal events always block until delivered.
type ChannelSink struct {
	ch chan<- models.ProgressEvent
}

// NewChannelSink wraps ch.
func NewChannelSink(ch chan<- models.ProgressEvent) *ChannelSink {
	return &ChannelSink{ch: ch}
}

// Emit implements Sink.
func (c *ChannelSink) Emit(evt models.ProgressEvent) {
	if IsTerminal(evt) {
		c.ch <- evt
		return
	}
	select {
	case c.ch <- evt:
	default:
	}
}

// IsTerminal reports whether evt ends a run.
func IsTerminal(evt models.ProgressEvent) bool {
	return evt.Stage == models.StageComplete || evt.Stage == models.StageFailed
}

// Reporter stamps events for one run and enforces the progress contract:
// percent never decreases, stays at or below AssemblingPercent until the run
// resolves, and 100 is emitted exactly once, on success.
type Reporter struct {
	mu    sync.Mutex
	runID string
	sink  Sink
	now   func() time.Time
	last  int
	done  bool
}

// NewReporter creates a Reporter for runID. A nil sink discards events.
func NewReporter(runID string, sink Sink, now func() time.Time) *Reporter {
	if sink == nil {
		sink = Discard
	}
	if now == nil {
		now = time.Now
	}
	return &Reporter{runID: runID, sink: sink, now: now}
}

// Report emits an intermediate event. Percent is clamped to the contract.
// Calls after Complete or Fail are ignored.
func (r *Reporter) Report(percent int, stage string, section models.Section, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	if percent > AssemblingPercent {
		percent = AssemblingPercent
	}
	if percent < r.last {
		percent = r.last
	}
	r.last = percent
	r.emit(percent, stage, section, msg)
}

// Complete emits the single 100 event.
func (r *Reporter) Complete(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.last = CompletePercent
	r.emit(CompletePercent, models.StageComplete, "", msg)
}

// Fail emits a terminal failure event at the current percent.
func (r *Reporter) Fail(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.emit(r.last, models.StageFailed, "", msg)
}

// Percent returns the last emitted percent.
func (r *Reporter) Percent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Reporter) emit(percent int, stage string, section models.Section, msg string) {
	r.sink.Emit(models.ProgressEvent{
		RunID:     r.runID,
		Percent:   percent,
		Stage:     stage,
		Section:   section,
		Message:   msg,
		Timestamp: r.now().UTC(),
	})
}
