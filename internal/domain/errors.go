package domain

import "strings"

// ValidationError lists the input fields that failed their format checks.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Add(field string) {
	e.Fields = append(e.Fields, field)
}

// Err returns nil when no field was flagged.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
