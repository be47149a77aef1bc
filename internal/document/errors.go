package document

import "fmt"

// ParseError signals that stored or submitted content is not valid JSON.
// The caller maps it to a 400-style failure envelope; nothing is persisted.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse content: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse content: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }
