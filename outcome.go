package winnow

import "github.com/pkg/errors"

// OutcomeKind classifies how a pick resolved.
type OutcomeKind int

const (
	// OutcomeSelected means the user accepted one or more items.
	OutcomeSelected OutcomeKind = iota + 1

	// OutcomeQuit means the user exited cleanly with no selection.
	OutcomeQuit

	// OutcomeAborted means the user interrupted, or the application
	// posted an abort event.
	OutcomeAborted
)

// Outcome is the result of a completed pick. Items is populated only for
// OutcomeSelected: the single highlighted item, or the marked items in
// insertion order when the multi-select set is non-empty.
type Outcome[T any] struct {
	Kind  OutcomeKind
	Items []T
}

// ExitStatus maps the outcome to the conventional process exit code:
// 0 selected, 1 quit, 2 aborted.
func (o *Outcome[T]) ExitStatus() int {
	switch o.Kind {
	case OutcomeSelected:
		return 0
	case OutcomeQuit:
		return 1
	}
	return 2
}

type notInteractiveError struct{}

func (notInteractiveError) Error() string        { return "input and output must be connected to a terminal" }
func (notInteractiveError) NotInteractive() bool { return true }
func (notInteractiveError) ExitStatus() int      { return 2 }

// ErrNotInteractive is returned by Pick when it is invoked without a
// usable terminal. The screen is never touched in that case.
var ErrNotInteractive error = notInteractiveError{}

// ApplicationError carries an application-defined abort payload through
// the engine verbatim.
type ApplicationError struct {
	Payload any
}

// Error implements error.
func (e *ApplicationError) Error() string {
	if err, ok := e.Payload.(error); ok {
		return "application abort: " + err.Error()
	}
	return "application abort"
}

// Unwrap exposes the payload when it is itself an error.
func (e *ApplicationError) Unwrap() error {
	if err, ok := e.Payload.(error); ok {
		return err
	}
	return nil
}

// Aborted marks the error as an abort for the behavioral probes in
// internal/util.
func (e *ApplicationError) Aborted() bool { return true }

// ExitStatus implements the conventional CLI mapping.
func (e *ApplicationError) ExitStatus() int { return 2 }

func wrapIoError(err error, msg string) error {
	return errors.Wrap(err, msg)
}
