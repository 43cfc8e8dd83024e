// Package errors provides structured error handling for the
// virtualization engine.
//
// Faults inside the engine are contained: a failing item builder is
// reported here and the affected index skipped for the pass, never
// propagated as a crash. A global handler receives every report; hosts
// install their own handler to route errors into their logging.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfig indicates an invalid or unreadable configuration.
	KindConfig
	// KindBuild indicates an item-builder failure.
	KindBuild
	// KindMeasure indicates an invalid measurement report.
	KindMeasure
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindBuild:
		return "build"
	case KindMeasure:
		return "measure"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// EngineError represents a structured error in the virtualization
// engine.
type EngineError struct {
	// Op is the operation that failed (e.g. "engine.BuildChildren").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g. "engine.Step").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// BuildError represents a failure while materializing one item.
type BuildError struct {
	// Index is the item index whose builder failed.
	Index int
	// ItemType is the item's pool discriminator, if any.
	ItemType string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error (nil for panics).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BuildError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic building item %d: %v", e.Index, e.Recovered)
	}
	if e.Err != nil {
		return fmt.Sprintf("error building item %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("unknown error building item %d", e.Index)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives errors reported by the virtualization engine.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *EngineError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleBuildError is called when an item build fails.
	HandleBuildError(err *BuildError)
}
