// Package export serializes scored results to CSV, XLSX and PDF, and reads
// exported CSV and XLSX files back into an exam snapshot.
package export

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/pavelanni/corretor/internal/model"
	"github.com/pavelanni/corretor/internal/scoring"
)

// Row labels shared by the exporters and the importer. They are part of the
// file format and are not translated.
const (
	labelSubject  = "Disciplina"
	labelGrade    = "Serie"
	labelKey      = "Gabarito"
	labelStudents = "Alunos"
	labelAverage  = "MÉDIA"

	LegendCorrectLabel = "Resposta Certa"
	LegendWrongLabel   = "Resposta Errada"
)

// Rows lays out a results view as a grid: metadata rows, a blank row, the
// header row and one row per student in projected order.
func Rows(v model.ResultsView) [][]string {
	rows := make([][]string, 0, 5+len(v.Rows))
	rows = append(rows,
		[]string{labelSubject, v.Metadata.Subject},
		[]string{labelGrade, v.Metadata.Grade},
		append([]string{labelKey}, v.Key...),
		[]string{},
		HeaderRow(len(v.Key)),
	)
	for _, st := range v.Rows {
		rows = append(rows, StudentRow(st, len(v.Key)))
	}
	return rows
}

// HeaderRow is "Alunos", the question numbers 1..n and "MÉDIA".
func HeaderRow(n int) []string {
	row := make([]string, 0, n+2)
	row = append(row, labelStudents)
	for i := 1; i <= n; i++ {
		row = append(row, strconv.Itoa(i))
	}
	return append(row, labelAverage)
}

// StudentRow is the name, the raw stored answers and the percentage.
func StudentRow(st model.ScoredStudent, n int) []string {
	row := make([]string, 0, n+2)
	row = append(row, st.Name)
	for i := 0; i < n; i++ {
		var a string
		if i < len(st.Answers) {
			a = st.Answers[i]
		}
		row = append(row, a)
	}
	return append(row, scoring.FormatPercentage(st.Percentage))
}

// DisplayAnswer is how an answer cell reads in the table and the PDF.
func DisplayAnswer(a string) string {
	if a == "" {
		return model.Unanswered
	}
	return a
}

// FileName is the download name for the given format.
func FileName(format model.ExportFormat, v model.ResultsView) string {
	switch format {
	case model.FormatPDF:
		return SafeFileName(v.Title()) + "_resultados.pdf"
	case model.FormatXLSX:
		return "resultados_provas.xlsx"
	}
	return "resultados_provas.csv"
}

// SafeFileName replaces whitespace and characters that are not allowed in
// file names on common filesystems with underscores.
func SafeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return '_'
		case strings.ContainsRune(" \t\n\r\v\f/\\:*?\"<>|", r):
			return '_'
		}
		return r
	}, s)
}

// Write renders v in the given format.
func Write(w io.Writer, format model.ExportFormat, v model.ResultsView) error {
	switch format {
	case model.FormatCSV:
		return WriteCSV(w, v)
	case model.FormatPDF:
		return WritePDF(w, v)
	case model.FormatXLSX:
		return WriteXLSX(w, v)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// Read parses an exported file, choosing the reader by file name extension.
func Read(r io.Reader, filename string) (model.Snapshot, error) {
	if strings.EqualFold(path.Ext(filename), ".xlsx") {
		return ReadXLSX(r)
	}
	return ReadCSV(r)
}
