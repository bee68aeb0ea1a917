package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Grid is a weekly timetable: Columns are days, Rows are periods and
// Cells[row][col] holds the lines printed in one cell.
type Grid struct {
	Columns []string
	Rows    []string
	Cells   [][][]string
}

// PDFExporter renders timetable grids into a landscape PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

const (
	pageWidth   = 277.0
	labelWidth  = 22.0
	lineHeight  = 4.0
	minRowLines = 2
)

// Render draws the grid with an optional title and subtitle.
func (e *PDFExporter) Render(grid Grid, title, subtitle string) ([]byte, error) {
	if len(grid.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	if len(grid.Cells) != len(grid.Rows) {
		return nil, fmt.Errorf("pdf grid has %d rows but %d cell rows", len(grid.Rows), len(grid.Cells))
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 8, strings.ToUpper(title), "", 1, "C", false, 0, "")
	}
	if subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	colWidth := (pageWidth - labelWidth) / float64(len(grid.Columns))
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(labelWidth, 7, "", "1", 0, "C", true, 0, "")
	for _, col := range grid.Columns {
		pdf.CellFormat(colWidth, 7, col, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 7)
	for r, label := range grid.Rows {
		cells := grid.Cells[r]
		lines := minRowLines
		for _, cell := range cells {
			if len(cell) > lines {
				lines = len(cell)
			}
		}
		height := float64(lines) * lineHeight
		x, y := pdf.GetXY()
		pdf.SetFont("Arial", "B", 8)
		pdf.CellFormat(labelWidth, height, label, "1", 0, "C", false, 0, "")
		pdf.SetFont("Arial", "", 7)
		for c := range grid.Columns {
			cx := x + labelWidth + float64(c)*colWidth
			pdf.Rect(cx, y, colWidth, height, "D")
			if c < len(cells) {
				for i, line := range cells[c] {
					pdf.SetXY(cx+1, y+float64(i)*lineHeight)
					pdf.CellFormat(colWidth-2, lineHeight, line, "", 0, "L", false, 0, "")
				}
			}
		}
		pdf.SetXY(x, y+height)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
