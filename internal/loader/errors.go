package loader

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed load.
type ErrorKind int

const (
	// KindSourceUnavailable means there were no bytes to read.
	KindSourceUnavailable ErrorKind = iota + 1
	// KindEngineInit means the decoding context could not be created.
	KindEngineInit
	// KindHeaderCorrupt means the engine failed while reading header or pixels.
	KindHeaderCorrupt
	// KindAllocation means the surface could not be allocated.
	KindAllocation
)

func (k ErrorKind) String() string {
	switch k {
	case KindSourceUnavailable:
		return "SourceUnavailable"
	case KindEngineInit:
		return "EngineInitFailure"
	case KindHeaderCorrupt:
		return "HeaderCorrupt"
	case KindAllocation:
		return "AllocationFailure"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinels for errors.Is; every *Error matches the sentinel of its kind.
var (
	ErrSourceUnavailable = errors.New("pngsurface: source unavailable")
	ErrEngineInit        = errors.New("pngsurface: engine init failure")
	ErrHeaderCorrupt     = errors.New("pngsurface: header corrupt")
	ErrAllocation        = errors.New("pngsurface: allocation failure")
)

// Error is the single failure value a load returns.
type Error struct {
	Kind ErrorKind
	// Msg is the human-readable diagnostic.
	Msg string
	// Err is the underlying engine or surface error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "pngsurface: " + e.Msg + ": " + e.Err.Error()
	}
	return "pngsurface: " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindSourceUnavailable:
		return target == ErrSourceUnavailable
	case KindEngineInit:
		return target == ErrEngineInit
	case KindHeaderCorrupt:
		return target == ErrHeaderCorrupt
	case KindAllocation:
		return target == ErrAllocation
	}
	return false
}

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}
