package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pavelanni/corretor/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the results as comma-separated text prefixed with a UTF-8
// byte order mark so spreadsheet applications detect the encoding.
func WriteCSV(w io.Writer, v model.ResultsView) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.WriteAll(Rows(v)); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	return nil
}

// ReadCSV parses a file produced by WriteCSV. On error the returned snapshot
// is empty; a partially parsed file is never returned.
func ReadCSV(r io.Reader) (model.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Snapshot{}, &ImportIOError{Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1 // metadata and student rows differ in width
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return model.Snapshot{}, &ImportFormatError{Reason: err.Error()}
	}
	return parseRows(rows, false)
}
