package pdf

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/geometry"
)

// TextRun is a piece of text on one baseline, anchored at the position of its first
// glyph in intrinsic coordinates
type TextRun struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"font_size"`
}

const (
	// baselineTolerance is how far apart, in points, two glyphs may sit vertically and
	// still share a baseline
	baselineTolerance = 1.0
	// wordGap and runGap are horizontal gaps as fractions of the font size
	wordGap = 0.25
	runGap  = 1.5
)

// TextRuns returns the text runs of a zero-based page. Runs are read once per page
// and cached.
func (d *Document) TextRuns(page int) ([]TextRun, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if runs, ok := d.runs[page]; ok {
		return runs, nil
	}

	texts, origin, err := pageTexts(d.text, page+1)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindResourceLoad, "read text", err)
	}
	runs := mergeGlyphs(texts)
	for i := range runs {
		runs[i].X -= origin.X
		runs[i].Y -= origin.Y
	}
	d.runs[page] = runs
	return runs, nil
}

// pageTexts reads the positioned glyphs of a one-based page together with the lower
// left corner of its MediaBox. Glyph positions are in absolute user space.
func pageTexts(r *pdf.Reader, pageNum int) (texts []pdf.Text, origin geometry.Point, err error) {
	// The content interpreter panics on malformed operators.
	defer func() {
		if p := recover(); p != nil {
			texts, err = nil, fmt.Errorf("malformed content on page %d: %v", pageNum, p)
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		return nil, geometry.Point{}, nil
	}
	return page.Content().Text, mediaBoxOrigin(page.V), nil
}

// mediaBoxOrigin returns the lower left corner of the MediaBox of page, which may be
// inherited from the page tree
func mediaBoxOrigin(page pdf.Value) geometry.Point {
	for v, depth := page, 0; v.Kind() == pdf.Dict && depth < 32; v, depth = v.Key("Parent"), depth+1 {
		box := v.Key("MediaBox")
		if box.Kind() != pdf.Array || box.Len() != 4 {
			continue
		}
		x0, y0 := box.Index(0).Float64(), box.Index(1).Float64()
		x1, y1 := box.Index(2).Float64(), box.Index(3).Float64()
		return geometry.Point{X: math.Min(x0, x1), Y: math.Min(y0, y1)}
	}
	return geometry.Point{}
}

// mergeGlyphs joins glyphs that follow each other on a baseline into runs. Glyphs
// are taken in content order, which is the order text was drawn.
func mergeGlyphs(texts []pdf.Text) []TextRun {
	var runs []TextRun
	var cur *TextRun
	var end float64

	for _, t := range texts {
		if t.S == "" {
			continue
		}
		size := t.FontSize
		if size <= 0 {
			size = 1
		}

		if cur != nil && math.Abs(t.Y-cur.Y) <= baselineTolerance {
			gap := t.X - end
			if gap >= -size*wordGap && gap <= size*runGap {
				if gap > size*wordGap && !strings.HasSuffix(cur.Text, " ") && t.S != " " {
					cur.Text += " "
				}
				cur.Text += t.S
				end = math.Max(end, t.X+t.W)
				continue
			}
		}

		runs = append(runs, TextRun{Text: t.S, X: t.X, Y: t.Y, FontSize: t.FontSize})
		cur = &runs[len(runs)-1]
		end = t.X + t.W
	}

	out := runs[:0]
	for _, r := range runs {
		r.Text = strings.TrimSpace(r.Text)
		if r.Text != "" {
			out = append(out, r)
		}
	}
	return out
}

// sortReadingOrder sorts runs top to bottom, then left to right
func sortReadingOrder(runs []TextRun) {
	sort.SliceStable(runs, func(i, j int) bool {
		if math.Abs(runs[i].Y-runs[j].Y) > baselineTolerance {
			return runs[i].Y > runs[j].Y
		}
		return runs[i].X < runs[j].X
	})
}
