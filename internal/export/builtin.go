package export

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/nao1215/sonarreport/internal/markup"
	"github.com/nao1215/sonarreport/internal/model"
)

// Page geometry in millimeters.
const (
	pageMargin     = 15.0
	footerOffset   = -10.0
	headingHeight  = 10.0
	headerHeight   = 7.0
	lineHeight     = 4.0
	cellPadding    = 1.5
	cellFontSize   = 8.0
	headerFontSize = 8.5
	titleFontSize  = 14.0
	fontFamily     = "Helvetica"
)

// issueColumnWidths are the relative widths of Type, Severity, Message,
// File and Line.
var issueColumnWidths = []float64{26, 24, 72, 44, 14}

// BuiltinExporter lays out the issue table of a rendered report on A4 pages
// without any external tool. The header row is repeated on every page and
// severity labels keep their color.
//
// Text is set in the core Helvetica font, which covers the Windows-1252
// character set only. Characters outside it, such as CJK or Cyrillic text
// in messages and file paths, do not render correctly; use the wkhtmltopdf
// or chrome engine for such reports.
type BuiltinExporter struct {
	options
}

// NewBuiltinExporter creates a BuiltinExporter.
func NewBuiltinExporter(opts ...Option) *BuiltinExporter {
	return &BuiltinExporter{options: newOptions(opts)}
}

// Engine returns EngineBuiltin.
func (e *BuiltinExporter) Engine() Engine {
	return EngineBuiltin
}

// Export reads the report at markupPath and writes its PDF layout.
func (e *BuiltinExporter) Export(ctx context.Context, markupPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return conversionFailed(EngineBuiltin, err, "")
	}

	f, err := os.Open(markupPath) //nolint:gosec // path is an artifact path chosen by the caller
	if err != nil {
		return conversionFailed(EngineBuiltin, err, "")
	}
	doc, err := markup.Parse(f)
	f.Close()
	if err != nil {
		return conversionFailed(EngineBuiltin, err, "")
	}

	layout := newTableLayout(doc)
	if err := layout.render(ctx, doc); err != nil {
		return conversionFailed(EngineBuiltin, err, "")
	}
	if err := layout.pdf.OutputFileAndClose(outputPath); err != nil {
		return conversionFailed(EngineBuiltin, err, "")
	}

	e.logger.Debug("laid out report", "rows", len(doc.Rows), "pages", layout.pdf.PageCount())
	return verify(EngineBuiltin, e.logger, outputPath)
}

// tableLayout draws one report table onto consecutive pages.
type tableLayout struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	header []string
	widths []float64
	bottom float64
}

func newTableLayout(doc *markup.Document) *tableLayout {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("sonarreport", true)
	pdf.AliasNbPages("")

	pageW, pageH := pdf.GetPageSize()

	cols := len(doc.Header)
	if cols == 0 && len(doc.Rows) > 0 {
		cols = len(doc.Rows[0].Cells)
	}

	l := &tableLayout{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		header: doc.Header,
		widths: columnWidths(cols, pageW-2*pageMargin),
		bottom: pageH - pageMargin,
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(footerOffset)
		pdf.SetFont(fontFamily, "I", cellFontSize)
		pdf.SetTextColor(127, 140, 141)
		pdf.CellFormat(0, lineHeight, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return l
}

// columnWidths scales the issue column widths to the printable width, or
// splits it evenly for other layouts.
func columnWidths(cols int, total float64) []float64 {
	widths := make([]float64, cols)
	if cols == len(issueColumnWidths) {
		var sum float64
		for _, w := range issueColumnWidths {
			sum += w
		}
		for i, w := range issueColumnWidths {
			widths[i] = w / sum * total
		}
		return widths
	}
	for i := range widths {
		widths[i] = total / float64(cols)
	}
	return widths
}

// render draws the heading, the header row and every data row.
func (l *tableLayout) render(ctx context.Context, doc *markup.Document) error {
	l.pdf.AddPage()
	l.writeHeading(doc.Heading)
	l.writeHeaderRow()

	for i, row := range doc.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.writeRow(i, row)
	}
	return l.pdf.Error()
}

func (l *tableLayout) writeHeading(heading string) {
	if heading == "" {
		return
	}
	l.pdf.SetFont(fontFamily, "B", titleFontSize)
	l.pdf.SetTextColor(44, 62, 80)
	l.pdf.CellFormat(0, headingHeight, l.tr(heading), "", 1, "C", false, 0, "")
	l.pdf.Ln(2)
}

// writeHeaderRow draws the column titles at the current position.
func (l *tableLayout) writeHeaderRow() {
	if len(l.header) == 0 {
		return
	}
	l.pdf.SetFont(fontFamily, "B", headerFontSize)
	l.pdf.SetFillColor(76, 175, 80)
	l.pdf.SetTextColor(255, 255, 255)
	l.pdf.SetDrawColor(221, 221, 221)
	for i, w := range l.widths {
		text := ""
		if i < len(l.header) {
			text = l.tr(l.header[i])
		}
		l.pdf.CellFormat(w, headerHeight, text, "1", 0, "L", true, 0, "")
	}
	l.pdf.Ln(headerHeight)
}

// writeRow draws one data row, starting a new page when it does not fit.
// A row taller than a page continues on the following pages.
func (l *tableLayout) writeRow(index int, row markup.Row) {
	l.pdf.SetFont(fontFamily, "", cellFontSize)

	lines := make([][]string, len(l.widths))
	maxLines := 1
	for c, w := range l.widths {
		text := l.tr(cellAt(row, c).Text)
		for _, line := range l.pdf.SplitLines([]byte(text), w-2*cellPadding) {
			lines[c] = append(lines[c], string(line))
		}
		maxLines = max(maxLines, len(lines[c]))
	}

	if left := l.linesLeft(); maxLines > left && (maxLines <= l.pageLines() || left < 1) {
		l.newPage()
	}

	for from := 0; from < maxLines; {
		n := min(maxLines-from, max(1, l.linesLeft()))
		l.writeRowPart(index, row, lines, from, n)
		from += n
		if from < maxLines {
			l.newPage()
		}
	}
}

// writeRowPart draws lines [from, from+n) of a row. Severity labels are
// drawn with the first part only.
func (l *tableLayout) writeRowPart(index int, row markup.Row, lines [][]string, from, n int) {
	rowH := float64(n)*lineHeight + 2*cellPadding
	left, top := l.pdf.GetXY()
	x := left
	style := "D"
	if index%2 == 1 {
		l.pdf.SetFillColor(249, 249, 249)
		style = "FD"
	}

	for c, w := range l.widths {
		l.pdf.SetDrawColor(221, 221, 221)
		l.pdf.Rect(x, top, w, rowH, style)

		cell := cellAt(row, c)
		switch {
		case cell.Color != "" && cell.Text != "":
			if from == 0 {
				l.writeLabel(x, top, w, l.tr(cell.Text), cell.Color)
			}
		default:
			l.pdf.SetFont(fontFamily, "", cellFontSize)
			l.pdf.SetTextColor(0, 0, 0)
			for i := from; i < from+n && i < len(lines[c]); i++ {
				l.pdf.SetXY(x+cellPadding, top+cellPadding+float64(i-from)*lineHeight)
				l.pdf.CellFormat(w-2*cellPadding, lineHeight, lines[c][i], "", 0, "L", false, 0, "")
			}
		}
		x += w
	}

	l.pdf.SetXY(left, top+rowH)

	if index%2 == 1 {
		l.pdf.SetFillColor(255, 255, 255)
	}
}

// newPage starts a page and repeats the header row on it.
func (l *tableLayout) newPage() {
	l.pdf.AddPage()
	l.writeHeaderRow()
	l.pdf.SetFont(fontFamily, "", cellFontSize)
}

// linesLeft returns the number of text lines a row can still hold on the
// current page.
func (l *tableLayout) linesLeft() int {
	return linesFitting(l.bottom - l.pdf.GetY())
}

// pageLines returns the number of text lines a row can hold on a fresh page.
func (l *tableLayout) pageLines() int {
	avail := l.bottom - pageMargin
	if len(l.header) > 0 {
		avail -= headerHeight
	}
	return linesFitting(avail)
}

// linesFitting returns how many text lines fit into a row of height h.
func linesFitting(h float64) int {
	return max(0, int((h-2*cellPadding)/lineHeight))
}

// writeLabel draws a colored label with white bold text.
func (l *tableLayout) writeLabel(x, y, w float64, text, color string) {
	r, g, b := hexRGB(color)
	l.pdf.SetFont(fontFamily, "B", cellFontSize)
	labelW := min(l.pdf.GetStringWidth(text)+2*cellPadding, w-2*cellPadding)

	l.pdf.SetFillColor(r, g, b)
	l.pdf.Rect(x+cellPadding, y+cellPadding, labelW, lineHeight, "F")
	l.pdf.SetTextColor(255, 255, 255)
	l.pdf.SetXY(x+cellPadding, y+cellPadding)
	l.pdf.CellFormat(labelW, lineHeight, text, "", 0, "C", false, 0, "")

	l.pdf.SetFont(fontFamily, "", cellFontSize)
	l.pdf.SetFillColor(249, 249, 249)
}

// cellAt returns cell c of row, or an empty cell when the row is short.
func cellAt(row markup.Row, c int) markup.Cell {
	if c < len(row.Cells) {
		return row.Cells[c]
	}
	return markup.Cell{}
}

// hexRGB parses a #rgb or #rrggbb color. Anything else yields the fallback
// color.
func hexRGB(color string) (int, int, int) {
	if r, g, b, ok := parseHex(color); ok {
		return r, g, b
	}
	r, g, b, _ := parseHex(model.FallbackColor)
	return r, g, b
}

func parseHex(color string) (int, int, int, bool) {
	s := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
