// Package orchestrator runs one guide generation: it fans out to every
// section fetcher, collects results until all settle or the run deadline
// passes, validates the draft, and assembles the guide.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarer-ai/wayfarer/pkg/budget"
	"github.com/wayfarer-ai/wayfarer/pkg/guide"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/progress"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
	"github.com/wayfarer-ai/wayfarer/pkg/section"
	"github.com/wayfarer-ai/wayfarer/pkg/validate"
)

const (
	DefaultTimeout = 45 * time.Second
	DefaultGrace   = 2 * time.Second
)

// Metrics receives per-section and per-run outcomes.
type Metrics interface {
	ObserveSection(section, status string)
	ObserveGeneration(outcome string, d time.Duration)
}

// Auditor persists the per-section outcome of a run.
type Auditor interface {
	LogRun(ctx context.Context, entries []models.AuditEntry) error
}

// Options configures an Orchestrator.
type Options struct {
	// Fetchers must cover every required section.
	Fetchers  []section.Fetcher
	Validator *validate.Validator
	// Timeout is the overall run deadline when Generate is called without one.
	Timeout      time.Duration
	SectionShare float64
	// Grace bounds how long the run waits for fetchers after the deadline.
	Grace   time.Duration
	Logger  *slog.Logger
	Metrics Metrics
	Auditor Auditor
	Now     func() time.Time
}

// Orchestrator generates guides. It is safe for concurrent use; runs share
// nothing but the fetchers' cache and in-flight provider calls.
type Orchestrator struct {
	fetchers  []section.Fetcher
	validator *validate.Validator
	timeout   time.Duration
	share     float64
	grace     time.Duration
	log       *slog.Logger
	metrics   Metrics
	auditor   Auditor
	now       func() time.Time
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		fetchers:  opts.Fetchers,
		validator: opts.Validator,
		timeout:   opts.Timeout,
		share:     opts.SectionShare,
		grace:     opts.Grace,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		auditor:   opts.Auditor,
		now:       opts.Now,
	}
	if o.validator == nil {
		o.validator = validate.New(validate.DefaultThresholds())
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	if o.grace <= 0 {
		o.grace = DefaultGrace
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Run describes one generation run.
type Run struct {
	// ID identifies the run in progress events and audit entries. A new one is
	// generated when empty.
	ID      string
	TripID  string
	Request models.TripRequest
	Sink    progress.Sink
	Timeout time.Duration
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Generate runs one generation for req, reporting progress to sink.
func (o *Orchestrator) Generate(ctx context.Context, req models.TripRequest, sink progress.Sink, overallTimeout time.Duration) (*models.Guide, error) {
	return o.Execute(ctx, Run{Request: req, Sink: sink, Timeout: overallTimeout})
}

type settled struct {
	result  models.SectionResult
	latency time.Duration
}

// Execute runs one generation. On failure the error is a *GenerationError.
func (o *Orchestrator) Execute(ctx context.Context, run Run) (*models.Guide, error) {
	start := o.now()
	if run.ID == "" {
		run.ID = NewRunID()
	}
	rep := progress.NewReporter(run.ID, run.Sink, o.now)
	log := o.log.With("run_id", run.ID)

	if err := run.Request.Validate(); err != nil {
		rep.Fail(err.Error())
		o.observeGeneration(string(ClassInvalidRequest), start)
		return nil, &GenerationError{RunID: run.ID, Classification: ClassInvalidRequest, Err: err}
	}
	req := run.Request.Normalized()

	timeout := run.Timeout
	if timeout <= 0 {
		timeout = o.timeout
	}
	alloc := budget.New(timeout, o.share)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Info("generation started", "destination", req.Destination, "days", req.Days(), "timeout", timeout)
	rep.Report(progress.StartPercent, models.StageStarted, "", fmt.Sprintf("Generating guide for %s", req.Destination))

	results := make(chan settled, len(o.fetchers))
	for _, f := range o.fetchers {
		go func() {
			s := f.Section()
			sctx, scancel := context.WithTimeout(runCtx, alloc.Section())
			defer scancel()
			t0 := o.now()
			tick := func(stage, msg string) { rep.Report(rep.Percent(), stage, s, msg) }
			res := f.Resolve(sctx, req, alloc.Section(), tick)
			res.Section = s
			results <- settled{result: res, latency: o.now().Sub(t0)}
		}()
	}

	draft, entries, deadlineHit := o.collect(runCtx, log, run, req, start, rep, results)

	rep.Report(progress.ValidatingPercent, models.StageValidating, "", "Validating guide")
	verdict := o.validator.Validate(req, draft)
	annotate(entries, verdict.Issues)
	o.audit(ctx, log, entries)

	if !verdict.Passed {
		class := ClassValidationFailure
		if deadlineHit {
			class = ClassTimeout
		}
		gerr := &GenerationError{RunID: run.ID, Classification: class, Missing: verdict.Issues}
		log.Warn("generation failed", "classification", class, "missing", gerr.MissingSections())
		rep.Fail(gerr.Error())
		o.observeGeneration(string(class), start)
		return nil, gerr
	}

	rep.Report(progress.AssemblingPercent, models.StageAssembling, "", "Assembling guide")
	g, err := guide.Assemble(req, draft)
	if err != nil {
		rep.Fail(err.Error())
		o.observeGeneration("error", start)
		return nil, err
	}
	g.RunID = run.ID

	rep.Complete(fmt.Sprintf("Guide for %s is ready", req.Destination))
	o.observeGeneration("success", start)
	log.Info("generation complete", "elapsed", o.now().Sub(start))
	return g, nil
}

// collect gathers results until every fetcher settles or runCtx ends. After
// the deadline it waits at most the grace period, then records every
// unsettled section as a timeout.
func (o *Orchestrator) collect(runCtx context.Context, log *slog.Logger, run Run, req models.TripRequest, start time.Time, rep *progress.Reporter, results <-chan settled) (models.GuideDraft, []models.AuditEntry, bool) {
	total := len(o.fetchers)
	draft := make(models.GuideDraft, total)
	entries := make([]models.AuditEntry, 0, total)

	record := func(s settled) {
		res := s.result
		if _, dup := draft[res.Section]; dup {
			return
		}
		draft[res.Section] = res
		entries = append(entries, o.entry(run, req, res, s.latency))
		o.observeSection(res)

		msg := res.Section.Title() + " ready"
		switch res.Status {
		case models.StatusCacheHit:
			msg = res.Section.Title() + " ready (cached)"
		case models.StatusFailure:
			msg = res.Section.Title() + " failed: " + provider.KindOf(res.Err).Reason()
		}
		log.Debug("section settled", "section", res.Section, "status", res.Status, "latency", s.latency)
		rep.Report(progress.SectionPercent(len(draft), total), models.StageSection, res.Section, msg)
	}

	deadlineHit := false
wait:
	for len(draft) < total {
		select {
		case s := <-results:
			record(s)
		case <-runCtx.Done():
			deadlineHit = true
			break wait
		}
	}
	if !deadlineHit {
		return draft, entries, false
	}

	grace := time.NewTimer(o.grace)
	defer grace.Stop()
drain:
	for len(draft) < total {
		select {
		case s := <-results:
			record(s)
		case <-grace.C:
			break drain
		}
	}
	for _, f := range o.fetchers {
		s := f.Section()
		if _, ok := draft[s]; ok {
			continue
		}
		log.Warn("section abandoned at deadline", "section", s)
		record(settled{
			result:  models.Failure(s, &provider.Error{Kind: provider.KindTimeout, Provider: string(s), Err: runCtx.Err()}),
			latency: o.now().Sub(start),
		})
	}
	return draft, entries, true
}

func (o *Orchestrator) entry(run Run, req models.TripRequest, res models.SectionResult, latency time.Duration) models.AuditEntry {
	e := models.AuditEntry{
		RunID:       run.ID,
		TripID:      run.TripID,
		Destination: req.Destination,
		Section:     res.Section,
		Status:      res.Status,
		LatencyMs:   latency.Milliseconds(),
		CreatedAt:   o.now().UTC(),
	}
	if res.Status == models.StatusFailure {
		kind := provider.KindOf(res.Err)
		e.ErrorKind = string(kind)
		e.Reason = kind.Reason()
	}
	return e
}

// annotate copies validation reasons onto the matching audit entries.
func annotate(entries []models.AuditEntry, issues []models.SectionIssue) {
	reasons := make(map[models.Section]string, len(issues))
	for _, is := range issues {
		reasons[is.Section] = is.Reason
	}
	for i := range entries {
		if r, ok := reasons[entries[i].Section]; ok {
			entries[i].Reason = r
		}
	}
}

func (o *Orchestrator) audit(ctx context.Context, log *slog.Logger, entries []models.AuditEntry) {
	if o.auditor == nil {
		return
	}
	if err := o.auditor.LogRun(context.WithoutCancel(ctx), entries); err != nil {
		log.Warn("audit write failed", "err", err)
	}
}

func (o *Orchestrator) observeSection(res models.SectionResult) {
	if o.metrics != nil {
		o.metrics.ObserveSection(string(res.Section), string(res.Status))
	}
}

func (o *Orchestrator) observeGeneration(outcome string, start time.Time) {
	if o.metrics != nil {
		o.metrics.ObserveGeneration(outcome, o.now().Sub(start))
	}
}
