package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bamsammich/devfs/internal/event"
	"github.com/bamsammich/devfs/internal/vfs"
)

var (
	// ErrSelfTransfer is returned when a destination resolves to the source
	// object itself or to a path inside it.
	ErrSelfTransfer = errors.New("copying into itself")
	// ErrInvalidDestination is returned for an empty or unusable
	// destination expression.
	ErrInvalidDestination = errors.New("invalid destination")
	// ErrInvalidName is returned for a selected name that is not a single
	// path element.
	ErrInvalidName = errors.New("invalid object name")
	// ErrNothingSelected is returned for a request without objects.
	ErrNothingSelected = errors.New("nothing selected")
	// ErrCancelled reports that the user stopped the request. It is not
	// counted as an error.
	ErrCancelled = errors.New("cancelled by user")
)

// Outcome tells the pipeline loop what to do after one object.
type Outcome int

const (
	// Continue with the next object.
	Continue Outcome = iota
	// ObjectError means the object failed, was counted, and the request goes
	// on because errors are ignored.
	ObjectError
	// Abort stops the request.
	Abort
	// Cancel stops the request on user request.
	Cancel
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case ObjectError:
		return "object-error"
	case Abort:
		return "abort"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Stop reports whether the pipeline must end.
func (o Outcome) Stop() bool { return o == Abort || o == Cancel }

// settle classifies the result of one object operation, records it and
// returns what the loop should do next. Disconnection and cancellation end
// the request without counting an object error.
func (r *run) settle(t event.Type, path string, err error) Outcome {
	if err == nil {
		return Continue
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) || r.ctx.Err() != nil {
		r.stop(ErrCancelled)
		return Cancel
	}
	r.log.Record(t, path, err)
	if vfs.IsDisconnected(err) {
		r.stop(err)
		return Abort
	}

	r.stats.AddErrors(1)
	slog.Warn("transfer object failed", "op", t.String(), "path", path, "error", err)
	if r.tc.Options.IgnoreErrors {
		return ObjectError
	}
	r.stop(err)
	return Abort
}

// cancelled polls for a user break between objects.
func (r *run) cancelled() bool {
	if r.ctx.Err() != nil {
		r.stop(ErrCancelled)
		return true
	}
	return false
}

func (r *run) stop(err error) {
	if r.err == nil {
		r.err = err
	}
}
