package plan

import (
	"strings"

	streamyerrors "github.com/forgerun/runnerd/pkg/errors"
)

// StepKind distinguishes an Action step from a Recovery step.
type StepKind string

const (
	KindAction   StepKind = "action"
	KindRecovery StepKind = "recovery"
)

// StepStatus is the outcome of attempting (or skipping) a step.
type StepStatus string

const (
	// StatusNotRun means the step was never attempted because its enable
	// rule did not hold.
	StatusNotRun StepStatus = "NotRun"
	// StatusOk means the subprocess exited with code zero.
	StatusOk StepStatus = "Ok"
	// StatusNok means the subprocess exited with a non-zero code.
	StatusNok StepStatus = "Nok"
	// StatusFailed means the engine could not even run the step.
	StatusFailed StepStatus = "Failed"
)

// Channel identifies which stream a captured line came from.
type Channel string

const (
	ChannelInfo  Channel = "Info"
	ChannelError Channel = "Error"
)

// StepOutput is one captured output line, already stripped of its trailing
// newline.
type StepOutput struct {
	Time    string
	Text    string
	Channel Channel
}

// Step is one shell command with its scheduling metadata.
type Step struct {
	Name        string
	Description string
	Kind        StepKind
	User        string
	WorkDir     string
	Env         map[string]string
	Parent      string
	Command     []string
	Status      StepStatus
}

// Validate checks the per-step invariants from §3: non-empty name and
// description, a recognised kind, a non-empty command, and a parent present
// whenever the step is a Recovery step. It does not check that Parent
// resolves to an earlier step — that is a whole-plan, positional check the
// parser performs while it still has the preceding steps in hand.
func (s Step) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return streamyerrors.NewValidationError("name", "step name is missing", nil)
	}
	if strings.TrimSpace(s.Description) == "" {
		return streamyerrors.NewValidationError(s.Name, "step description is missing", nil)
	}
	if s.Kind != KindAction && s.Kind != KindRecovery {
		return streamyerrors.NewValidationError(s.Name, "step kind is not Action or Recovery", nil)
	}
	if s.Kind == KindRecovery && strings.TrimSpace(s.Parent) == "" {
		return streamyerrors.NewValidationError(s.Name, "recovery step must declare a parent", nil)
	}
	if len(s.Command) == 0 {
		return streamyerrors.NewValidationError(s.Name, "step command is empty", nil)
	}
	return nil
}

// RenderedCommand is the space-joined command tokens, prefixed with
// "cd <workDir> && " when a working directory is set. This is the form
// listPlan shows to clients (§4.5).
func (s Step) RenderedCommand() string {
	joined := strings.Join(s.Command, " ")
	if s.WorkDir == "" {
		return joined
	}
	return "cd " + s.WorkDir + " && " + joined
}
