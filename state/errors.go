package state

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrSourceUnavailable - The OS query failed or was denied, retried on the next tick
var ErrSourceUnavailable = errors.New("telemetry source unavailable")

// ErrSourceUnsupported - The platform lacks this capability for the process lifetime
var ErrSourceUnsupported = errors.New("telemetry source unsupported on this platform")

// ErrSubscriberOverflow - A subscriber fell behind and older snapshots were replaced
var ErrSubscriberOverflow = errors.New("subscriber queue overflow")

// SourceError - Failure of a single component query, classified as unavailable or unsupported
type SourceError struct {
	Component Component
	Kind      error
	Err       error
}

func (e *SourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Component, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Component, e.Kind, e.Err)
}

// Cause lets errors.Cause unwrap to the classification sentinel
func (e *SourceError) Cause() error {
	return e.Kind
}

func (e *SourceError) Unwrap() error {
	return e.Kind
}

// Unavailable wraps err as a transient failure of the given component
func Unavailable(component Component, err error) error {
	return &SourceError{Component: component, Kind: ErrSourceUnavailable, Err: err}
}

// UnsupportedError wraps err as a permanent failure of the given component
func UnsupportedError(component Component, err error) error {
	return &SourceError{Component: component, Kind: ErrSourceUnsupported, Err: err}
}

// IsUnsupported - Whether err (possibly wrapped) marks a permanently missing capability
func IsUnsupported(err error) bool {
	return err != nil && errors.Cause(err) == ErrSourceUnsupported
}

// IsUnavailable - Whether err should be retried on the next tick. Unclassified
// errors count as unavailable.
func IsUnavailable(err error) bool {
	return err != nil && !IsUnsupported(err)
}

// InvariantError - A snapshot that breaks one of the model invariants
type InvariantError struct {
	Component Component
	Message   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invalid %s snapshot: %s", e.Component, e.Message)
}

func invariantErrorf(component Component, format string, args ...interface{}) error {
	return &InvariantError{Component: component, Message: fmt.Sprintf(format, args...)}
}
