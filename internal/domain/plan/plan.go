// Package plan holds the in-memory representation of a parsed plan file:
// Plan, Step, and the statuses/outputs produced while running one.
package plan

import streamyerrors "github.com/forgerun/runnerd/pkg/errors"

// Plan is one parsed plan file: an id and its ordered steps. Ordering is
// significant — it is both parse order and scheduling order.
type Plan struct {
	ID     string
	Status StepStatus
	Steps  []Step
}

// Validate checks the plan-level invariants from §3: a non-empty id, every
// step individually valid, and every Parent reference resolving to a step
// that appears earlier in Steps.
func (p Plan) Validate() error {
	if p.ID == "" {
		return streamyerrors.NewValidationError("id", "Plan ID is missing", nil)
	}
	seen := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		if err := step.Validate(); err != nil {
			return err
		}
		if step.Parent != "" && !seen[step.Parent] {
			return streamyerrors.NewValidationError(
				step.Name,
				"Reference as parent for "+step.Parent+" but does not exist yet",
				nil,
			)
		}
		seen[step.Name] = true
	}
	return nil
}

// StepByName returns the named step and whether it exists.
func (p Plan) StepByName(name string) (Step, bool) {
	for _, step := range p.Steps {
		if step.Name == name {
			return step, true
		}
	}
	return Step{}, false
}
