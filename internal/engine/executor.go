// Package engine implements the step executor and plan scheduler (spec
// §4.2, §4.3). Grounded on the teacher's internal/plugins/command/command.go
// (shell selection, env construction, working-directory handling) and
// internal/plugins/internalexec (streaming capture), generalized from
// "capture combined output into one buffer" to "capture stdout/stderr on
// separate concurrently-drained pipes, each line timestamped, merged by a
// stable sort" per spec §4.2/§5.
package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/forgerun/runnerd/internal/domain/plan"
)

const timestampLayout = "2006-01-02 15:04:05"

// Executor runs a single step's subprocess and returns its merged log.
type Executor struct {
	// now is overridable for tests; defaults to time.Now.
	now func() time.Time
}

// NewExecutor returns an Executor using the wall clock.
func NewExecutor() *Executor {
	return &Executor{now: time.Now}
}

// Execute spawns the step's subprocess, concurrently drains stdout/stderr
// with timestamps, and classifies the outcome (spec §4.2).
func (e *Executor) Execute(step plan.Step) ([]plan.StepOutput, plan.StepStatus) {
	if step.WorkDir != "" {
		if _, err := os.Stat(step.WorkDir); err != nil {
			return []plan.StepOutput{e.errorLine("Work directory does not exist: " + step.WorkDir)}, plan.StatusFailed
		}
	}
	if len(step.Command) == 0 {
		return []plan.StepOutput{e.errorLine("Command is not specified")}, plan.StatusFailed
	}

	cmd := e.buildCommand(step)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return []plan.StepOutput{e.errorLine(fmt.Sprintf("----> Step is failed: %v", err))}, plan.StatusFailed
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return []plan.StepOutput{e.errorLine(fmt.Sprintf("----> Step is failed: %v", err))}, plan.StatusFailed
	}

	if err := cmd.Start(); err != nil {
		return []plan.StepOutput{e.errorLine(fmt.Sprintf("----> Step is failed: %v", err))}, plan.StatusFailed
	}

	var wg sync.WaitGroup
	var stdoutLines, stderrLines []plan.StepOutput
	wg.Add(2)
	go func() {
		defer wg.Done()
		stdoutLines = e.drain(stdout, plan.ChannelInfo)
	}()
	go func() {
		defer wg.Done()
		stderrLines = e.drain(stderr, plan.ChannelError)
	}()
	wg.Wait()

	merged := mergeByTimestamp(stdoutLines, stderrLines)

	waitErr := cmd.Wait()
	if waitErr == nil {
		merged = append(merged, e.infoLine("----> Step is ended with exit code 0"))
		return merged, plan.StatusOk
	}

	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		merged = append(merged, e.errorLine(fmt.Sprintf("----> Step is ended with exit code %d", exitErr.ExitCode())))
		return merged, plan.StatusNok
	}

	merged = append(merged, e.errorLine(fmt.Sprintf("----> Step is failed: %v", waitErr)))
	return merged, plan.StatusFailed
}

// buildCommand constructs the shell invocation for the step: always run
// through "bash -c <joined command>", prefixed with "sudo -u <user>" when
// User is set, with the step's Env merged over the inherited environment.
func (e *Executor) buildCommand(step plan.Step) *exec.Cmd {
	joined := strings.Join(step.Command, " ")

	var cmd *exec.Cmd
	if step.User != "" {
		cmd = exec.Command("sudo", "-u", step.User, "bash", "-c", joined)
	} else {
		cmd = exec.Command("bash", "-c", joined)
	}

	if step.WorkDir != "" {
		cmd.Dir = step.WorkDir
	}
	cmd.Env = buildEnv(step.Env)
	return cmd
}

func buildEnv(custom map[string]string) []string {
	env := os.Environ()
	for k, v := range custom {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

func (e *Executor) drain(r io.Reader, channel plan.Channel) []plan.StepOutput {
	var out []plan.StepOutput
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out = append(out, plan.StepOutput{
			Time:    e.now().Format(timestampLayout),
			Text:    strings.TrimRight(scanner.Text(), "\r\n"),
			Channel: channel,
		})
	}
	return out
}

func (e *Executor) infoLine(text string) plan.StepOutput {
	return plan.StepOutput{Time: e.now().Format(timestampLayout), Text: text, Channel: plan.ChannelInfo}
}

func (e *Executor) errorLine(text string) plan.StepOutput {
	return plan.StepOutput{Time: e.now().Format(timestampLayout), Text: text, Channel: plan.ChannelError}
}

// mergeByTimestamp merges two already-ordered sequences by timestamp, ties
// broken by insertion order (stable sort), per spec §4.2/§5.
func mergeByTimestamp(a, b []plan.StepOutput) []plan.StepOutput {
	merged := make([]plan.StepOutput, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time < merged[j].Time
	})
	return merged
}

// FormatLine renders a StepOutput as the registry's stored line format:
// "YYYY-MM-DD HH:MM:SS <channel> <text>".
func FormatLine(out plan.StepOutput) string {
	return fmt.Sprintf("%s %s %s", out.Time, out.Channel, out.Text)
}
