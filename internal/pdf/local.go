package pdf

import (
	"math"
	"sort"
	"strings"

	"github.com/a3tai/mcp-pdf-regions/internal/geometry"
	"github.com/a3tai/mcp-pdf-regions/internal/region"
)

// RunsIn returns the runs of the box's page whose anchor lies inside the box,
// in reading order
func (d *Document) RunsIn(box region.BoundingBox) ([]TextRun, error) {
	runs, err := d.TextRuns(box.Page)
	if err != nil {
		return nil, err
	}
	var inside []TextRun
	for _, r := range runs {
		if box.Contains(geometry.Point{X: r.X, Y: r.Y}) {
			inside = append(inside, r)
		}
	}
	sortReadingOrder(inside)
	return inside, nil
}

// RegionText returns the text inside box joined by single spaces
func (d *Document) RegionText(box region.BoundingBox) (string, error) {
	runs, err := d.RunsIn(box)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(runs))
	for i, r := range runs {
		parts[i] = r.Text
	}
	return strings.Join(parts, " "), nil
}

// RegionTable returns the text inside box as rows of cells. Runs sharing a baseline
// form a row; rows run top to bottom and cells left to right.
func (d *Document) RegionTable(box region.BoundingBox) ([][]string, error) {
	runs, err := d.RunsIn(box)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	lastY := math.Inf(1)
	for _, r := range runs {
		if len(rows) == 0 || math.Abs(r.Y-lastY) > baselineTolerance {
			rows = append(rows, nil)
			lastY = r.Y
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], r.Text)
	}
	return rows, nil
}

// ExtractLocal applies a template to the document without the extraction service.
// Text fields map to a string and table fields to rows of cells. A field with
// regions on several pages keeps the value of its last region that has content.
func (d *Document) ExtractLocal(t region.Template) (map[string]any, error) {
	fields := make([]region.TemplateField, len(t.Fields))
	copy(fields, t.Fields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].BBox.Page < fields[j].BBox.Page })

	data := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.BBox.Page >= d.PageCount() {
			if _, ok := data[f.Field]; !ok {
				data[f.Field] = emptyValue(f.Type)
			}
			continue
		}
		box := f.BBox.Normalize()

		if f.Type == region.TypeTable {
			rows, err := d.RegionTable(box)
			if err != nil {
				return nil, err
			}
			if _, ok := data[f.Field]; !ok || len(rows) > 0 {
				data[f.Field] = nonNilRows(rows)
			}
			continue
		}

		text, err := d.RegionText(box)
		if err != nil {
			return nil, err
		}
		if _, ok := data[f.Field]; !ok || text != "" {
			data[f.Field] = text
		}
	}
	return data, nil
}

func emptyValue(t region.FieldType) any {
	if t == region.TypeTable {
		return [][]string{}
	}
	return ""
}

func nonNilRows(rows [][]string) [][]string {
	if rows == nil {
		return [][]string{}
	}
	return rows
}
