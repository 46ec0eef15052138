package models

import (
	"errors"
	"strings"
)

// ErrorKind classifies why a field failed validation.
type ErrorKind string

const (
	KindRequired  ErrorKind = "required"
	KindMaxLength ErrorKind = "max_length"
	KindMinValue  ErrorKind = "min_value"
	KindInvalid   ErrorKind = "invalid"
	KindDuplicate ErrorKind = "duplicate"
)

// FieldError describes a single failing field.
type FieldError struct {
	Field   string    `json:"field"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ValidationError carries every field that failed validation.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add records a failing field.
func (e *ValidationError) Add(field string, kind ErrorKind, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Kind: kind, Message: message})
}

// Has reports whether field failed with any kind.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns e when it holds failures, otherwise a nil error.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// AsValidationError unwraps err into a *ValidationError when it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
