package models

import "strings"

// ValidationError carries the individual field problems found while
// validating client input. Handlers map it to a 400 response with the
// problems joined into a single message.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}
