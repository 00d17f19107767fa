package parser

import "fmt"

// MissingFieldError reports markup that lacks an element or attribute the
// extractor needs.
type MissingFieldError struct {
	Field    string
	Selector string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing_field: %s (%s)", e.Field, e.Selector)
}
