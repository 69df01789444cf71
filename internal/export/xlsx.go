package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/corretor/internal/model"
)

const sheetName = "Resultados"

// headerRow is the 1-based sheet row holding the header written by Rows.
const headerRow = 5

type cellStyle struct {
	fill RGB
	bold bool
}

// xlsxWriter caches style IDs; excelize allocates a new one per NewStyle call.
type xlsxWriter struct {
	f      *excelize.File
	styles map[cellStyle]int
}

func (x *xlsxWriter) style(s cellStyle) (int, error) {
	if id, ok := x.styles[s]; ok {
		return id, nil
	}
	border := func(side string) excelize.Border {
		return excelize.Border{Type: side, Color: colorGrid.Hex(), Style: 1}
	}
	text := colorBodyText
	if s.bold {
		text = colorHeaderText
	}
	id, err := x.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.fill.Hex()}},
		Font: &excelize.Font{Bold: s.bold, Color: text.Hex(), Size: 10},
		Border: []excelize.Border{
			border("left"), border("right"), border("top"), border("bottom"),
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	x.styles[s] = id
	return id, nil
}

func (x *xlsxWriter) paint(col, row int, s cellStyle) error {
	id, err := x.style(s)
	if err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return x.f.SetCellStyle(sheetName, cell, cell, id)
}

// WriteXLSX writes the results as a single-sheet workbook with the same rows
// as WriteCSV and the same cell colors as WritePDF.
func WriteXLSX(w io.Writer, v model.ResultsView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	x := &xlsxWriter{f: f, styles: make(map[cellStyle]int)}

	for i, row := range Rows(v) {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	n := len(v.Key)
	header := headerRow
	for col := 1; col <= n+2; col++ {
		if err := x.paint(col, header, cellStyle{fill: colorHeaderFill, bold: true}); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}
	for r, st := range v.Rows {
		row := header + 1 + r
		base := cellStyle{fill: RowFill(r)}
		if err := x.paint(1, row, base); err != nil {
			return fmt.Errorf("style row %d: %w", row, err)
		}
		for q := 0; q < n; q++ {
			tag := model.TagNeutral
			if q < len(st.Tags) {
				tag = st.Tags[q]
			}
			if err := x.paint(q+2, row, cellStyle{fill: CellFill(tag, r)}); err != nil {
				return fmt.Errorf("style row %d: %w", row, err)
			}
		}
		if err := x.paint(n+2, row, cellStyle{fill: base.fill, bold: true}); err != nil {
			return fmt.Errorf("style row %d: %w", row, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 32); err != nil {
		return err
	}
	if n > 0 {
		last, err := excelize.ColumnNumberToName(n + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, "B", last, 4.5); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX imports the first sheet of a workbook produced by WriteXLSX, or
// any workbook laid out the same way.
func ReadXLSX(r io.Reader) (model.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Snapshot{}, &ImportIOError{Err: err}
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return model.Snapshot{}, &ImportFormatError{Reason: "not a spreadsheet: " + err.Error()}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.Snapshot{}, &ImportFormatError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return model.Snapshot{}, &ImportFormatError{Reason: err.Error()}
	}
	return parseRows(rows, true)
}
