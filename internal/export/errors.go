package export

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound indicates that the conversion tool is not installed
	// or not reachable.
	ErrToolNotFound = errors.New("conversion tool not found")

	// ErrConversion indicates that the tool ran but did not produce a valid
	// document.
	ErrConversion = errors.New("conversion failed")

	// ErrUnknownEngine indicates an engine name that is not supported.
	ErrUnknownEngine = errors.New("unknown export engine")
)

// ExportError describes a failed export.
//
// Kind is ErrToolNotFound or ErrConversion. Err is the underlying cause, if
// any, and Output holds the diagnostic output of an external tool.
type ExportError struct { //nolint:revive // export.ExportError reads better at call sites than export.Error
	Engine Engine
	Kind   error
	Err    error
	Output string
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Engine, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

// Unwrap returns both the kind and the cause so that errors.Is matches
// either of them.
func (e *ExportError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// toolNotFound builds an ExportError of kind ErrToolNotFound.
func toolNotFound(engine Engine, err error) *ExportError {
	return &ExportError{Engine: engine, Kind: ErrToolNotFound, Err: err}
}

// conversionFailed builds an ExportError of kind ErrConversion.
func conversionFailed(engine Engine, err error, output string) *ExportError {
	return &ExportError{Engine: engine, Kind: ErrConversion, Err: err, Output: output}
}
