package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/alexanderramin/upf/internal/cli/formatter"
	"github.com/alexanderramin/upf/internal/contract"
	"github.com/alexanderramin/upf/internal/service"
)

var errAborted = errors.New("aborted")

// reportedError wraps an error whose details were already written to the
// terminal, so main only sets the exit status.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already printed by a command.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// reportConversionError prints core failures as a block on w. Other errors
// pass through untouched.
func reportConversionError(w io.Writer, err error) error {
	if ce, ok := contract.AsConversionError(err); ok {
		fmt.Fprint(w, formatter.FormatConversionError(ce))
		return reportedError{err: err}
	}
	return err
}

// historyError rewrites a disabled history store into an actionable message.
func historyError(err error) error {
	if errors.Is(err, service.ErrHistoryDisabled) {
		return fmt.Errorf("%w (remove --no-history or set history.enabled = true)", err)
	}
	return err
}
