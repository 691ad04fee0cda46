package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/matzehuels/amrraster/pkg/errors"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1   // internal or unclassified failure
	ExitUsage       = 2   // bad flags, settings or paths
	ExitData        = 3   // missing or unreadable solver output
	ExitInterrupted = 130 // SIGINT or SIGTERM
)

// ExitCode maps a command error to the process exit code. Scripts driving
// many cases use it to tell a misconfigured case from a broken run.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if stderrors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidExtent, errors.ErrCodeInvalidResolution,
		errors.ErrCodeInvalidLevel, errors.ErrCodeInvalidSettings, errors.ErrCodeInvalidPath,
		errors.ErrCodeEmptyRange:
		return ExitUsage
	case errors.ErrCodeMissingFrame, errors.ErrCodeMissingMetadata, errors.ErrCodeCorruptFrame,
		errors.ErrCodeCorruptMetadata, errors.ErrCodeLevelNotFound, errors.ErrCodeNonMonotonicTime:
		return ExitData
	}
	return ExitFailure
}

// ErrorLine formats err for stderr, prefixed with its code when it has one.
func ErrorLine(err error) string {
	if code := errors.GetCode(err); code != "" {
		return fmt.Sprintf("%s: %s [%s]", appName, errors.UserMessage(err), code)
	}
	return fmt.Sprintf("%s: %s", appName, err)
}
