package model

import "strings"

// ExportFormat names a results download format.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatPDF  ExportFormat = "pdf"
	FormatXLSX ExportFormat = "xlsx"
)

// FallbackTitle is used when the subject or grade is blank.
const FallbackTitle = "Resultados da Prova"

// ParseExportFormat returns the format for a name such as "pdf", or false.
func ParseExportFormat(s string) (ExportFormat, bool) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatPDF, FormatXLSX:
		return f, true
	}
	return "", false
}

// ContentType returns the MIME type for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// ResultsView is everything an exporter or the results page needs.
type ResultsView struct {
	Metadata ExamMetadata
	Key      []string
	Rows     []ScoredStudent // already in projected order
}

// Title is "{subject} - {grade}", or FallbackTitle when either is blank.
func (v ResultsView) Title() string {
	subject := strings.TrimSpace(v.Metadata.Subject)
	grade := strings.TrimSpace(v.Metadata.Grade)
	if subject == "" || grade == "" {
		return FallbackTitle
	}
	return v.Metadata.Subject + " - " + v.Metadata.Grade
}
