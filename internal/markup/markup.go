package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoTable is returned when the document contains no table.
var ErrNoTable = errors.New("markup contains no table")

// Document is the structured content of a rendered report.
type Document struct {
	// Title is the text of the <title> element.
	Title string

	// Heading is the text of the first <h1> element.
	Heading string

	// Header holds the header cells of the issue table.
	Header []string

	// Rows holds the data rows of the issue table in document order.
	Rows []Row

	// References lists every src or href attribute value found.
	// A self-contained report has none.
	References []string
}

// Row is one data row of the issue table.
type Row struct {
	Cells []Cell
}

// Cell is one table cell.
type Cell struct {
	// Text is the unescaped text content, trimmed.
	Text string

	// Color is the background color of a styled element inside the cell,
	// empty when the cell carries none.
	Color string
}

// Texts returns the text of every cell in r.
func (r Row) Texts() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Text
	}
	return out
}

// Color returns the first non-empty cell color of r.
func (r Row) Color() string {
	for _, c := range r.Cells {
		if c.Color != "" {
			return c.Color
		}
	}
	return ""
}

// Parse reads a markup document. Only the first table is read.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	doc := &Document{
		Header:     make([]string, 0),
		Rows:       make([]Row, 0),
		References: make([]string, 0),
	}

	var table *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if doc.Title == "" {
					doc.Title = textContent(n)
				}
			case "h1":
				if doc.Heading == "" {
					doc.Heading = textContent(n)
				}
			case "table":
				if table == nil {
					table = n
				}
			}
			for _, key := range []string{"src", "href"} {
				if v, ok := getAttr(n, key); ok {
					doc.References = append(doc.References, v)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if table == nil {
		return nil, ErrNoTable
	}
	readTable(table, doc)
	return doc, nil
}

// readTable fills the header and rows of doc from a table element.
func readTable(table *html.Node, doc *Document) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			readRow(n, doc)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
}

// readRow classifies a tr as header or data row.
func readRow(tr *html.Node, doc *Document) {
	var header []string
	var row Row
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "th":
			header = append(header, textContent(c))
		case "td":
			row.Cells = append(row.Cells, Cell{
				Text:  textContent(c),
				Color: cellColor(c),
			})
		}
	}

	switch {
	case len(header) > 0 && len(doc.Header) == 0:
		doc.Header = header
	case len(row.Cells) > 0:
		doc.Rows = append(doc.Rows, row)
	}
}

// textContent returns the trimmed concatenated text below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// cellColor returns the first background color declared at or below n.
func cellColor(n *html.Node) string {
	if n.Type == html.ElementNode {
		if style, ok := getAttr(n, "style"); ok {
			if color := backgroundColor(style); color != "" {
				return color
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if color := cellColor(c); color != "" {
			return color
		}
	}
	return ""
}

// backgroundColor extracts the background-color value of an inline style.
func backgroundColor(style string) string {
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "background-color" || name == "background" {
			return strings.ToLower(strings.TrimSpace(value))
		}
	}
	return ""
}

// getAttr returns the value of the attribute key on n.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
