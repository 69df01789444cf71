package export

import (
	"fmt"
	"strings"
)

// ImportFormatError means the file was read but does not have the expected
// shape. Nothing from the file has been applied.
type ImportFormatError struct {
	Missing []string // marker rows that were not found
	Row     int      // 1-based row of the offending cell, 0 if not tied to a row
	Reason  string
}

func (e *ImportFormatError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("invalid results file: missing %s rows; the file must contain the rows %q, %q, %q and %q",
			strings.Join(e.Missing, ", "), labelSubject, labelGrade, labelKey, labelStudents)
	}
	if e.Row > 0 {
		return fmt.Sprintf("invalid results file: row %d: %s", e.Row, e.Reason)
	}
	return "invalid results file: " + e.Reason
}

// ImportIOError wraps a failure to read the uploaded file.
type ImportIOError struct {
	Err error
}

func (e *ImportIOError) Error() string {
	return "read results file: " + e.Err.Error()
}

func (e *ImportIOError) Unwrap() error {
	return e.Err
}
