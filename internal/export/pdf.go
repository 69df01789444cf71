package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/pavelanni/corretor/internal/model"
	"github.com/pavelanni/corretor/internal/scoring"
)

// Page geometry in millimetres, A4 landscape.
const (
	pdfMargin      = 14.0
	pdfTitleY      = 15.0
	pdfLegendY     = 25.0
	pdfLegendH     = 12.0
	pdfTableY      = 42.0
	pdfRowH        = 7.2
	pdfQuestionW   = 8.0
	pdfAverageW    = 18.0
	pdfMinNameW    = 30.0
	pdfFontSize    = 9.0
	pdfTitleSize   = 11.0
	pdfLineWidth   = 0.1
	legendPadding  = 4.0
	legendSquare   = 4.0
	legendItemGap  = 10.0
	legendTextGap  = 2.0
	legendCornerR  = 1.0
	pdfFont        = "Helvetica"
	pdfCellPadding = 1.5
)

type pdfLayout struct {
	pageW, pageH float64
	nameW        float64
	questionW    float64
	averageW     float64
	questions    int
}

func (l pdfLayout) tableW() float64 {
	return l.nameW + l.questionW*float64(l.questions) + l.averageW
}

// newLayout fits the table into the printable width. The name column takes
// whatever the fixed-width columns leave; when that is too little the
// question columns shrink instead.
func newLayout(pageW, pageH float64, questions int) pdfLayout {
	l := pdfLayout{pageW: pageW, pageH: pageH, questionW: pdfQuestionW, averageW: pdfAverageW, questions: questions}
	avail := pageW - 2*pdfMargin
	l.nameW = avail - l.questionW*float64(questions) - l.averageW
	if l.nameW < pdfMinNameW && questions > 0 {
		l.nameW = pdfMinNameW
		l.questionW = (avail - l.nameW - l.averageW) / float64(questions)
	}
	return l
}

// rowsPerPage returns how many body rows fit below a header row that starts
// at top.
func (l pdfLayout) rowsPerPage(top float64) int {
	n := int((l.pageH - pdfMargin - top - pdfRowH) / pdfRowH)
	if n < 1 {
		n = 1
	}
	return n
}

// paginate splits total rows into [start, end) ranges, one per page. There is
// always at least one page so an empty table still prints its header.
func paginate(total, firstCap, otherCap int) [][2]int {
	pages := [][2]int{}
	start, limit := 0, firstCap
	for {
		end := min(start+limit, total)
		pages = append(pages, [2]int{start, end})
		if end >= total {
			return pages
		}
		start, limit = end, otherCap
	}
}

// WritePDF renders the results table as an A4 landscape document.
func WritePDF(w io.Writer, v model.ResultsView) error {
	return writePDF(w, v, true)
}

func writePDF(w io.Writer, v model.ResultsView, compress bool) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(v.Title(), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	l := newLayout(pageW, pageH, len(v.Key))
	pages := paginate(len(v.Rows), l.rowsPerPage(pdfTableY), l.rowsPerPage(pdfMargin))

	for p, span := range pages {
		pdf.AddPage()
		top := pdfMargin
		if p == 0 {
			drawTitle(pdf, tr, v.Title(), pageW)
			drawLegend(pdf, tr, l)
			top = pdfTableY
		}
		drawHeader(pdf, tr, l, top, len(v.Rows))
		for r := span[0]; r < span[1]; r++ {
			y := top + pdfRowH*float64(r-span[0]+1)
			drawRow(pdf, tr, l, y, r, v.Rows[r])
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write PDF: %w", err)
	}
	return nil
}

func drawTitle(pdf *fpdf.Fpdf, tr func(string) string, title string, pageW float64) {
	pdf.SetFont(pdfFont, "B", pdfTitleSize)
	pdf.SetTextColor(colorHeaderText.R, colorHeaderText.G, colorHeaderText.B)
	t := tr(title)
	pdf.Text((pageW-pdf.GetStringWidth(t))/2, pdfTitleY, t)
}

func drawLegend(pdf *fpdf.Fpdf, tr func(string) string, l pdfLayout) {
	pdf.SetLineWidth(pdfLineWidth)
	pdf.SetDrawColor(colorGrid.R, colorGrid.G, colorGrid.B)
	pdf.SetFillColor(colorLegendFill.R, colorLegendFill.G, colorLegendFill.B)
	pdf.RoundedRect(pdfMargin, pdfLegendY, l.tableW(), pdfLegendH, legendCornerR, "1234", "FD")

	pdf.SetFont(pdfFont, "", pdfFontSize)
	pdf.SetTextColor(colorHeaderText.R, colorHeaderText.G, colorHeaderText.B)
	centerY := pdfLegendY + pdfLegendH/2
	squareY := centerY - legendSquare/2
	// Text takes the baseline; shift by roughly a third of the cap height.
	baseline := centerY + pdfFontSize*0.3528/3

	x := pdfMargin + legendPadding
	for _, item := range []struct {
		color RGB
		label string
	}{
		{LegendCorrect, LegendCorrectLabel},
		{LegendWrong, LegendWrongLabel},
	} {
		pdf.SetFillColor(item.color.R, item.color.G, item.color.B)
		pdf.Rect(x, squareY, legendSquare, legendSquare, "FD")
		label := tr(item.label)
		textX := x + legendSquare + legendTextGap
		pdf.Text(textX, baseline, label)
		x = textX + pdf.GetStringWidth(label) + legendItemGap
	}
}

func drawHeader(pdf *fpdf.Fpdf, tr func(string) string, l pdfLayout, y float64, students int) {
	pdf.SetFont(pdfFont, "B", pdfFontSize)
	pdf.SetTextColor(colorHeaderText.R, colorHeaderText.G, colorHeaderText.B)
	pdf.SetFillColor(colorHeaderFill.R, colorHeaderFill.G, colorHeaderFill.B)
	pdf.SetDrawColor(colorGrid.R, colorGrid.G, colorGrid.B)
	pdf.SetLineWidth(pdfLineWidth)

	pdf.SetXY(pdfMargin, y)
	pdf.CellFormat(l.nameW, pdfRowH, tr(fmt.Sprintf("%s (%d)", labelStudents, students)), "1", 0, "L", true, 0, "")
	for q := 1; q <= l.questions; q++ {
		pdf.CellFormat(l.questionW, pdfRowH, strconv.Itoa(q), "1", 0, "C", true, 0, "")
	}
	pdf.CellFormat(l.averageW, pdfRowH, tr(labelAverage), "1", 0, "C", true, 0, "")
}

func drawRow(pdf *fpdf.Fpdf, tr func(string) string, l pdfLayout, y float64, row int, st model.ScoredStudent) {
	pdf.SetTextColor(colorBodyText.R, colorBodyText.G, colorBodyText.B)
	pdf.SetXY(pdfMargin, y)

	base := RowFill(row)
	pdf.SetFont(pdfFont, "", pdfFontSize)
	pdf.SetFillColor(base.R, base.G, base.B)
	pdf.CellFormat(l.nameW, pdfRowH, fitText(pdf, tr(st.Name), l.nameW-2*pdfCellPadding), "1", 0, "L", true, 0, "")

	for q := 0; q < l.questions; q++ {
		var answer string
		tag := model.TagNeutral
		if q < len(st.Answers) {
			answer = st.Answers[q]
		}
		if q < len(st.Tags) {
			tag = st.Tags[q]
		}
		c := CellFill(tag, row)
		pdf.SetFillColor(c.R, c.G, c.B)
		pdf.CellFormat(l.questionW, pdfRowH, tr(DisplayAnswer(answer)), "1", 0, "C", true, 0, "")
	}

	pdf.SetFont(pdfFont, "B", pdfFontSize)
	pdf.SetFillColor(base.R, base.G, base.B)
	pdf.CellFormat(l.averageW, pdfRowH, scoring.FormatPercentage(st.Percentage), "1", 0, "C", true, 0, "")
}

// fitText shortens s with an ellipsis until it fits width. s is already
// translated to a single-byte encoding, so it is cut byte by byte.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
