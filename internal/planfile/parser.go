// Package planfile implements the tag-aware reader for plan files (spec
// §4.1, §6): a hand-tokenized, whitespace/quote heuristic, not a general
// grammar. It is grounded on the original parser's line-accumulation and
// positional-token approach, generalized to a small per-attribute recording
// state machine so that any `key="value"` attribute — not only description
// and environment entries — may span multiple whitespace-separated tokens.
package planfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/forgerun/runnerd/internal/domain/plan"
	streamyerrors "github.com/forgerun/runnerd/pkg/errors"
)

// Parse reads the plan file at path and returns a validated Plan. Failure is
// reported as a single error identifying the offending attribute or rule; on
// failure the returned Plan is nil — plans are never partially returned.
func Parse(path string) (*plan.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, streamyerrors.NewParseError(path, 0, err)
	}
	defer f.Close()

	p, err := parseReader(f)
	if err != nil {
		return nil, streamyerrors.NewParseError(path, 0, err)
	}
	return p, nil
}

type tagKind int

const (
	tagNone tagKind = iota
	tagPlan
	tagStep
	tagRecovery
)

func parseReader(r io.Reader) (*plan.Plan, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var result plan.Plan
	knownNames := make(map[string]bool)

	var collecting bool
	var current tagKind
	var body strings.Builder

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !collecting && strings.HasPrefix(line, "#") {
			continue
		}

		if !collecting {
			switch {
			case strings.HasPrefix(line, "<plan"):
				collecting, current, body = true, tagPlan, strings.Builder{}
			case strings.HasPrefix(line, "<recovery"):
				collecting, current, body = true, tagRecovery, strings.Builder{}
			case strings.HasPrefix(line, "<step"):
				collecting, current, body = true, tagStep, strings.Builder{}
			default:
				continue
			}
		}

		body.WriteByte(' ')
		body.WriteString(line)

		var closeTag string
		switch current {
		case tagPlan:
			closeTag = "</plan>"
		case tagStep:
			closeTag = "</step>"
		case tagRecovery:
			closeTag = "</recovery>"
		}

		if !strings.Contains(line, closeTag) {
			continue
		}

		tokens := strings.Fields(body.String())
		switch current {
		case tagPlan:
			id, err := parsePlanTag(tokens)
			if err != nil {
				return nil, err
			}
			result.ID = id
		default:
			kind := plan.KindAction
			if current == tagRecovery {
				kind = plan.KindRecovery
			}
			step, err := parseStepTag(tokens, kind, knownNames)
			if err != nil {
				return nil, err
			}
			if err := step.Validate(); err != nil {
				return nil, err
			}
			knownNames[step.Name] = true
			result.Steps = append(result.Steps, step)
		}

		collecting = false
		current = tagNone
		body = strings.Builder{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if result.ID == "" {
		return nil, streamyerrors.NewValidationError("id", "Plan ID is missing", nil)
	}
	return &result, nil
}

func parsePlanTag(tokens []string) (string, error) {
	var id string
	var rec *recorder
	for _, tok := range tokens {
		if tok == "<plan" || tok == "</plan>" {
			continue
		}
		if rec != nil {
			if done, value := rec.feed(tok); done {
				id = value
				rec = nil
			}
			continue
		}
		if value, complete, ok := extractAttr(tok, "id"); ok {
			if complete {
				id = value
			} else {
				rec = newRecorder(value)
			}
		}
	}
	return id, nil
}

// extractAttr looks for `key="` inside tok. ok reports whether the marker
// was found at all; complete reports whether the same token also closed the
// value with a second quote.
func extractAttr(tok, key string) (value string, complete bool, ok bool) {
	marker := key + `="`
	idx := strings.Index(tok, marker)
	if idx < 0 {
		return "", false, false
	}
	rest := tok[idx+len(marker):]
	if q := strings.IndexByte(rest, '"'); q >= 0 {
		return rest[:q], true, true
	}
	return rest, false, true
}

// recorder accumulates the whitespace-separated pieces of a multi-token
// attribute value until a token closes it with a quote.
type recorder struct {
	pieces []string
}

func newRecorder(first string) *recorder {
	return &recorder{pieces: []string{first}}
}

// feed appends tok to the recording. done is true once tok closed the value
// (contained a quote); value is the accumulated, single-space-joined value.
func (r *recorder) feed(tok string) (done bool, value string) {
	if q := strings.IndexByte(tok, '"'); q >= 0 {
		r.pieces = append(r.pieces, tok[:q])
		return true, strings.Join(r.pieces, " ")
	}
	r.pieces = append(r.pieces, tok)
	return false, ""
}

// parseStepTag walks the tokens of one <step>/<recovery> body. Attribute
// values of name/desc/user/cwd/parent span tokens until a closing quote, per
// the generic recording rule (§4.1). setenv is a two-phase attribute: the
// fragment immediately after `setenv="` in the *same* token is the key (env
// keys never contain whitespace), and every token from there on accumulates
// into the value until a later token closes with a quote. A setenv whose key
// and closing quote both land in a single token is the pathological case
// called out in spec §9 (embedded quotes/no value separator) — rejected with
// a parse error rather than guessed at.
func parseStepTag(tokens []string, kind plan.StepKind, knownNames map[string]bool) (plan.Step, error) {
	step := plan.Step{Kind: kind, Env: map[string]string{}}

	var mode string // "", "name", "desc", "user", "cwd", "parent", "envvalue"
	var rec *recorder
	var pendingEnvKey string

	finishAttr := func(field, value string) error {
		switch field {
		case "name":
			step.Name = value
		case "desc":
			step.Description = value
		case "user":
			step.User = value
		case "cwd":
			step.WorkDir = value
		case "parent":
			if !knownNames[value] {
				return streamyerrors.NewValidationError(
					"parent",
					fmt.Sprintf("Reference as parent for %s but does not exist yet", value),
					nil,
				)
			}
			step.Parent = value
		case "envvalue":
			if pendingEnvKey == "" || value == "" {
				return streamyerrors.NewValidationError("setenv", "key and/or value is missing in setenv option", nil)
			}
			step.Env[pendingEnvKey] = value
			pendingEnvKey = ""
		}
		mode = ""
		rec = nil
		return nil
	}

	markers := []string{"name", "desc", "user", "cwd", "parent"}
	commandStart := len(tokens)

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if mode != "" {
			if done, value := rec.feed(tok); done {
				if err := finishAttr(mode, value); err != nil {
					return plan.Step{}, err
				}
			}
			continue
		}

		if tok == "<step" || tok == "<recovery" {
			continue
		}

		if value, complete, ok := extractAttr(tok, "setenv"); ok {
			if complete {
				return plan.Step{}, streamyerrors.NewValidationError(
					"setenv", "setenv key and value must be separated by whitespace, not a single quoted token", nil)
			}
			pendingEnvKey = value
			mode = "envvalue"
			rec = &recorder{}
			continue
		}

		matched := false
		for _, marker := range markers {
			value, complete, ok := extractAttr(tok, marker)
			if !ok {
				continue
			}
			matched = true
			if complete {
				if err := finishAttr(marker, value); err != nil {
					return plan.Step{}, err
				}
			} else {
				mode = marker
				rec = newRecorder(value)
			}
			break
		}
		if matched {
			continue
		}

		if idx := strings.IndexByte(tok, '>'); idx >= 0 {
			commandStart = i + 1
			if rest := tok[idx+1:]; rest != "" {
				step.Command = append(step.Command, rest)
			}
			break
		}
	}

	for i := commandStart; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "</step>" || tok == "</recovery>" {
			break
		}
		step.Command = append(step.Command, tok)
	}

	return step, nil
}
