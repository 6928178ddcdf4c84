package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/strogmv/apiblocks/compiler/blocks"
)

// ErrMissingContext means a statement needed response state that does not
// exist yet.
var ErrMissingContext = errors.New("missing response context")

// MissingContext builds an ErrMissingContext with a user-facing reason.
func MissingContext(reason string) error {
	return &missingContextError{reason: reason}
}

type missingContextError struct {
	reason string
}

func (e *missingContextError) Error() string { return e.reason }

func (e *missingContextError) Unwrap() error { return ErrMissingContext }

// AssertionError is a failed check. Message is what the script author sees.
type AssertionError struct {
	Check    string
	Expected any
	Actual   any
	Message  string
}

func (e *AssertionError) Error() string { return e.Message }

// RequestError is a transport-level failure: no response was received.
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Kind is the failure taxonomy reported for a run.
type Kind string

const (
	KindNone             Kind = ""
	KindUnknownBlockType Kind = "UnknownBlockType"
	KindMissingContext   Kind = "MissingContext"
	KindAssertionFailure Kind = "AssertionFailure"
	KindRequestFailure   Kind = "RequestFailure"
	KindCanceled         Kind = "Canceled"
	KindInternal         Kind = "Internal"
)

// Classify maps err onto the failure taxonomy.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var assertion *AssertionError
	var request *RequestError
	switch {
	case errors.As(err, &assertion):
		return KindAssertionFailure
	case errors.Is(err, ErrMissingContext):
		return KindMissingContext
	case errors.As(err, &request):
		if errors.Is(request.Err, context.Canceled) || errors.Is(request.Err, context.DeadlineExceeded) {
			return KindCanceled
		}
		return KindRequestFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, blocks.ErrUnknownBlockType):
		return KindUnknownBlockType
	default:
		return KindInternal
	}
}
