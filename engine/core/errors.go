package core

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadParam      = errors.New("bad parameter")
	ErrNotSupported  = errors.New("not supported")
	ErrNoMemory      = errors.New("out of memory")
	// ErrWait is not a failure: the operation is in progress and must be
	// polled again on the next update.
	ErrWait    = errors.New("operation in progress")
	ErrUnknown = errors.New("unknown")
)

// Result is the closed set of engine-wide result codes. Every error returned
// by the engine classifies into exactly one of them through ResultOf.
type Result int

const (
	ResultSuccess Result = iota
	ResultWait
	ResultAlreadyExists
	ResultNotFound
	ResultBadParam
	ResultNotSupported
	ResultNoMemory
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "SUCCESS"
	case ResultWait:
		return "WAIT"
	case ResultAlreadyExists:
		return "ERROR_ALREADY_EXISTS"
	case ResultNotFound:
		return "ERROR_NOT_FOUND"
	case ResultBadParam:
		return "ERROR_BAD_PARAM"
	case ResultNotSupported:
		return "ERROR_NOT_SUPPORTED"
	case ResultNoMemory:
		return "ERROR_NO_MEMORY"
	default:
		return "ERROR"
	}
}

// Err maps a result back to its sentinel error. ResultSuccess maps to nil.
func (r Result) Err() error {
	switch r {
	case ResultSuccess:
		return nil
	case ResultWait:
		return ErrWait
	case ResultAlreadyExists:
		return ErrAlreadyExists
	case ResultNotFound:
		return ErrNotFound
	case ResultBadParam:
		return ErrBadParam
	case ResultNotSupported:
		return ErrNotSupported
	case ResultNoMemory:
		return ErrNoMemory
	default:
		return ErrUnknown
	}
}

// ResultOf classifies err. When err wraps several sentinels (for instance an
// errors.Join of resource failures) the most severe one wins.
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrNoMemory):
		return ResultNoMemory
	case errors.Is(err, ErrNotSupported):
		return ResultNotSupported
	case errors.Is(err, ErrBadParam):
		return ResultBadParam
	case errors.Is(err, ErrNotFound):
		return ResultNotFound
	case errors.Is(err, ErrAlreadyExists):
		return ResultAlreadyExists
	case errors.Is(err, ErrWait):
		return ResultWait
	default:
		return ResultError
	}
}

// IsWait reports whether err asks the caller to poll again.
func IsWait(err error) bool {
	return errors.Is(err, ErrWait)
}
