package engine

import (
	"fmt"
	"time"

	"github.com/forgerun/runnerd/internal/domain/plan"
)

// AppendFunc persists lines into a run's log buffer (runregistry.Registry's
// Append, injected so this package stays free of a registry dependency).
type AppendFunc func(lines []string)

// Scheduler walks a plan's steps in parse order, applying the enable rule
// against each step's declared parent, driving the Executor, and tracking
// the plan's aggregate status (spec §4.3). Grounded on the teacher's
// internal/infrastructure/engine/executor.go level-walking executor,
// simplified to the spec's single linear pass over a `completed` snapshot
// map — spec §4.3's own design rationale calls for this simplification over
// graph traversal, since parent references only ever point backwards.
type Scheduler struct {
	executor *Executor
	now      func() time.Time
}

// NewScheduler builds a Scheduler around a fresh Executor.
func NewScheduler() *Scheduler {
	return &Scheduler{executor: NewExecutor(), now: time.Now}
}

// Run drives p's steps to completion, calling append with each batch of log
// lines as it is produced (a control line, or one step's whole output), and
// returns the plan's finalized aggregate status. p is updated in place: each
// step's Status and the plan's Status are populated.
func (s *Scheduler) Run(p *plan.Plan, append AppendFunc) plan.StepStatus {
	completed := make(map[string]plan.Step, len(p.Steps))
	aggregate := plan.StatusOk

	for i := range p.Steps {
		step := p.Steps[i]

		append([]string{s.formatControlLine(plan.ChannelInfo, fmt.Sprintf("----> %s => Pending", step.Name))})

		if s.enabled(step, completed) {
			output, status := s.executor.Execute(step)
			step.Status = status
			lines := make([]string, 0, len(output))
			for _, line := range output {
				lines = append(lines, FormatLine(line))
			}
			append(lines)
		} else {
			step.Status = plan.StatusNotRun
		}

		completed[step.Name] = step
		p.Steps[i] = step

		if step.Status != plan.StatusOk && step.Status != plan.StatusNotRun {
			aggregate = step.Status
		}

		append([]string{s.formatControlLine(plan.ChannelInfo, fmt.Sprintf("----> %s => %s", step.Name, step.Status))})
	}

	append([]string{s.formatControlLine(plan.ChannelInfo, fmt.Sprintf("----> Plan is ended, overall status: %s", aggregate))})

	p.Status = aggregate
	return aggregate
}

// enabled applies the enable rule (spec §4.3): no parent means always run;
// an Action step runs iff its parent finished Ok; a Recovery step runs iff
// its parent finished Nok or Failed — this includes a "recovery chain" where
// an Action step names a Recovery parent, evaluated with the Action rule, per
// the explicit design note in spec §9.
func (s *Scheduler) enabled(step plan.Step, completed map[string]plan.Step) bool {
	if step.Parent == "" {
		return true
	}
	parent, ok := completed[step.Parent]
	if !ok {
		return false
	}
	if step.Kind == plan.KindRecovery {
		return parent.Status == plan.StatusNok || parent.Status == plan.StatusFailed
	}
	return parent.Status == plan.StatusOk
}

func (s *Scheduler) formatControlLine(channel plan.Channel, text string) string {
	return fmt.Sprintf("%s %s %s", s.now().Format(timestampLayout), channel, text)
}
