package loader

import "errors"

var (
	// ErrSourceNotFound is returned when the issue source does not exist.
	ErrSourceNotFound = errors.New("issue source not found")

	// ErrSourceMalformed is returned when the issue source cannot be parsed
	// as an issue list.
	ErrSourceMalformed = errors.New("issue source malformed")
)
