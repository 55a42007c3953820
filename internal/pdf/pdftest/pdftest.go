// Package pdftest builds small well-formed PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Text is a string drawn with its baseline origin at X, Y
type Text struct {
	X, Y float64
	S    string
}

// Page is a page of the given size holding texts in 12pt Helvetica. The MediaBox
// starts at OriginX, OriginY; text positions are absolute.
type Page struct {
	Width, Height    float64
	OriginX, OriginY float64
	Texts            []Text
}

// A4 is an empty portrait A4 page
func A4(texts ...Text) Page {
	return Page{Width: 595, Height: 842, Texts: texts}
}

// Build renders pages into a PDF with a correct cross-reference table
func Build(pages ...Page) []byte {
	// 1 catalog, 2 page tree, 3 font, then a page object and a content stream per page.
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	kids := make([]string, len(pages))
	for i, p := range pages {
		pageNum := len(objects) + 1
		kids[i] = fmt.Sprintf("%d 0 R", pageNum)

		var content strings.Builder
		for _, t := range p.Texts {
			fmt.Fprintf(&content, "BT /F1 12 Tf %g %g Td (%s) Tj ET\n", t.X, t.Y, escape(t.S))
		}
		stream := content.String()

		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [%g %g %g %g] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
				p.OriginX, p.OriginY, p.OriginX+p.Width, p.OriginY+p.Height, pageNum+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// WriteFile builds pages into dir/name and returns the path
func WriteFile(t testing.TB, dir, name string, pages ...Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// Catalog is a two page vendor catalog: a product header with a size table on an
// A4 page followed by a letter page
func Catalog() []Page {
	return []Page{
		A4(
			Text{X: 100, Y: 760, S: "ACME-001"},
			Text{X: 100, Y: 700, S: "Spring 2024"},
			Text{X: 100, Y: 500, S: "S"},
			Text{X: 150, Y: 500, S: "M"},
			Text{X: 200, Y: 500, S: "L"},
			Text{X: 100, Y: 480, S: "10"},
			Text{X: 150, Y: 480, S: "12"},
			Text{X: 200, Y: 480, S: "14"},
		),
		{Width: 612, Height: 792, Texts: []Text{{X: 50, Y: 50, S: "Page two"}}},
	}
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
