package rrl

import (
	"errors"
	"fmt"

	"github.com/mres-project/mres/schema"
)

// ErrUnknownHazard is returned when a hazard name has no indicator schema.
var ErrUnknownHazard = errors.New("unknown hazard")

// SchemaError reports a table whose header row cannot satisfy a hazard's schema.
type SchemaError struct {
	Hazard schema.Hazard
	Field  string // first missing field in canonical order, empty when Reason is set
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s indicators: missing required field %q", e.Hazard, e.Field)
	}
	return fmt.Sprintf("%s indicators: %s", e.Hazard, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ParseError reports a cell that cannot be converted to its expected numeric type.
type ParseError struct {
	Hazard schema.Hazard
	Row    int // 1-based data row, the header is row 0
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s indicators row %d: cannot parse %s=%q: %v", e.Hazard, e.Row, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports a record field that is missing or outside its bound.
type ValidationError struct {
	Hazard schema.Hazard
	ID     int
	Field  string
	Value  float64
	Bound  string // e.g. "[0,1]" or "(0,1]", "required" for missing fields
}

func (e *ValidationError) Error() string {
	if e.Bound == requiredBound {
		return fmt.Sprintf("%s record %d: field %s is required", e.Hazard, e.ID, e.Field)
	}
	return fmt.Sprintf("%s record %d: field %s=%g is outside %s", e.Hazard, e.ID, e.Field, e.Value, e.Bound)
}

const requiredBound = "required"
