package engine

import (
	"fmt"
	"time"

	"github.com/forgerun/runnerd/internal/domain/plan"
	streamyerrors "github.com/forgerun/runnerd/pkg/errors"
)

// FormatFailureLine renders the run-log line recorded when execute's
// synchronous parse fails before the scheduler ever starts (spec §4.5,
// §8's "Parse error propagates" scenario): a single Error line,
// "<time> Error ----> <set>/<plan> => Failed to parse the plan: <message>".
func FormatFailureLine(set, planName string, err error) string {
	text := fmt.Sprintf("----> %s/%s => Failed to parse the plan: %s", set, planName, failureMessage(err))
	return fmt.Sprintf("%s %s %s", time.Now().Format(timestampLayout), plan.ChannelError, text)
}

// failureMessage unwraps a parse failure down to its innermost human-facing
// message, since the parser wraps validation failures (e.g. "Plan ID is
// missing") inside a ParseError whose own Error() would otherwise repeat the
// "validation error: ..." prefix.
func failureMessage(err error) string {
	for {
		switch e := err.(type) {
		case *streamyerrors.ParseError:
			if e.Err == nil {
				return e.Message
			}
			err = e.Err
		case *streamyerrors.ValidationError:
			return e.Message
		default:
			return err.Error()
		}
	}
}
