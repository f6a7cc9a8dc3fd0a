package parse

import "fmt"

// MalformedInputError means the export could not be opened or is not a JSON
// array of objects. It aborts a run before any output is written.
type MalformedInputError struct {
	Path string
	Err  error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input %s: %v", e.Path, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}
