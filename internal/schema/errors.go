package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaMismatch means an upload shares no required column with its profile.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrIncompleteMapping means some required columns are missing and the
	// supplied mapping does not cover them.
	ErrIncompleteMapping = errors.New("incomplete column mapping")
)

// SchemaMismatchError reports an upload that is the wrong document entirely.
type SchemaMismatchError struct {
	Side     string
	Table    string
	Required []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: %s file %q has none of the required columns (%s)",
		e.Side, e.Table, strings.Join(e.Required, ", "))
}

// Is implements errors.Is support.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// MappingRequest lists the required fields an upload lacks and the columns
// that may be mapped onto them.
type MappingRequest struct {
	Side       string
	Table      string
	Missing    []Field
	Candidates []string
}

// IncompleteMappingError carries the outstanding request so the caller can
// resubmit a complete mapping.
type IncompleteMappingError struct {
	Request  MappingRequest
	Problems []string
}

func (e *IncompleteMappingError) Error() string {
	missing := make([]string, len(e.Request.Missing))
	for i, f := range e.Request.Missing {
		missing[i] = f.Name
	}
	msg := fmt.Sprintf("incomplete column mapping: %s file %q needs %s", e.Request.Side, e.Request.Table, strings.Join(missing, ", "))
	if len(e.Problems) > 0 {
		msg += ": " + strings.Join(e.Problems, "; ")
	}
	return msg
}

// Is implements errors.Is support.
func (e *IncompleteMappingError) Is(target error) bool {
	return target == ErrIncompleteMapping
}
