package orchestrator

import (
	"fmt"
	"strings"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

// Classification says why a run produced no guide.
type Classification string

const (
	ClassValidationFailure Classification = "validation_failure"
	ClassTimeout           Classification = "timeout"
	ClassInvalidRequest    Classification = "invalid_request"
)

// GenerationError is returned when a run produces no guide. Missing lists
// every required section that failed or fell short, in canonical order.
type GenerationError struct {
	RunID          string
	Classification Classification
	Missing        []models.SectionIssue
	Err            error
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "generation %s failed (%s)", e.RunID, e.Classification)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for i, m := range e.Missing {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", m.Section, m.Reason)
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// MissingSections returns the section names in Missing.
func (e *GenerationError) MissingSections() []models.Section {
	out := make([]models.Section, len(e.Missing))
	for i, m := range e.Missing {
		out[i] = m.Section
	}
	return out
}
