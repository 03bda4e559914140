package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
)

// Exit statuses.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2 // invalid input, ids or names
	ExitNotFound    = 3
	ExitUnavailable = 4 // store or cache backend unreachable
	ExitInterrupted = 130
)

// ExitCode maps the error returned by a command to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	switch cgerrors.GetCode(err) {
	case cgerrors.ErrCodeInvalidInput, cgerrors.ErrCodeInvalidID, cgerrors.ErrCodeInvalidName,
		cgerrors.ErrCodeInvalidPage, cgerrors.ErrCodeCycle:
		return ExitUsage
	case cgerrors.ErrCodeNotFound, cgerrors.ErrCodeCategoryNotFound, cgerrors.ErrCodeFileNotFound:
		return ExitNotFound
	case cgerrors.ErrCodeStoreUnavailable, cgerrors.ErrCodeTimeout:
		return ExitUnavailable
	default:
		return ExitFailure
	}
}

// ReportError writes err to w. Interrupts and declined confirmations print
// nothing.
func ReportError(w io.Writer, err error) {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, errAborted) {
		return
	}
	msg := cgerrors.UserMessage(err)
	if code := cgerrors.GetCode(err); code != "" {
		msg += " " + StyleDim.Render("("+string(code)+")")
	}
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+msg)
}
