package exam

import (
	"errors"
	"strings"
)

var (
	ErrInvalidLetter   = errors.New("invalid answer letter")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrLengthMismatch  = errors.New("answers length does not match the answer key")
	ErrMinQuestions    = errors.New("an exam needs at least one question")
)

// ValidationError reports required fields that are missing. The operator is
// expected to fill them in and retry.
type ValidationError struct {
	Fields map[string]string // field name -> message
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	for _, name := range sortedKeys(e.Fields) {
		b.WriteString("; ")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(e.Fields[name])
	}
	return b.String()
}

// Has reports whether the named field failed validation.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}
