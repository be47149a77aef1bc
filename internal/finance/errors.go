package finance

import "fmt"

// ValidationError signals a missing or invalid required field. It is raised
// before any computation so a rejected payload never leaves partial totals.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %s", e.Field, e.Reason)
}
