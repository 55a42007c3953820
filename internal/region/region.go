// Package region holds the annotated regions of a document and their conversion to
// and from templates.
package region

import (
	"encoding/json"
	"math"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/geometry"
)

// BoundingBox is a rectangle in intrinsic page coordinates on a zero-based page.
// Construction does not order the corners; use Normalize before comparing or filtering.
type BoundingBox struct {
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	Page int     `json:"page"`
}

// BoxFromCorners builds a normalized box from two opposite corners
func BoxFromCorners(a, b geometry.Point, page int) BoundingBox {
	return BoundingBox{X0: a.X, Y0: a.Y, X1: b.X, Y1: b.Y, Page: page}.Normalize()
}

// Normalize returns the box with (X0, Y0) as the min corner and (X1, Y1) as the max corner
func (b BoundingBox) Normalize() BoundingBox {
	return BoundingBox{
		X0:   math.Min(b.X0, b.X1),
		Y0:   math.Min(b.Y0, b.Y1),
		X1:   math.Max(b.X0, b.X1),
		Y1:   math.Max(b.Y0, b.Y1),
		Page: b.Page,
	}
}

// Width returns the horizontal extent
func (b BoundingBox) Width() float64 {
	return math.Abs(b.X1 - b.X0)
}

// Height returns the vertical extent
func (b BoundingBox) Height() float64 {
	return math.Abs(b.Y1 - b.Y0)
}

// Contains reports whether an intrinsic point lies inside the box, edges included
func (b BoundingBox) Contains(p geometry.Point) bool {
	n := b.Normalize()
	return n.X0 <= p.X && p.X <= n.X1 && n.Y0 <= p.Y && p.Y <= n.Y1
}

// Validate checks that the box has finite coordinates and a non-negative page
func (b BoundingBox) Validate() error {
	for _, v := range []float64{b.X0, b.Y0, b.X1, b.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperrors.New(apperrors.KindFormat, "bbox", "coordinates must be finite numbers")
		}
	}
	if b.Page < 0 {
		return apperrors.Newf(apperrors.KindFormat, "bbox", "page index %d is negative", b.Page)
	}
	return nil
}

// UnmarshalJSON requires every coordinate and the page to be present
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var raw struct {
		X0   *float64 `json:"x0"`
		Y0   *float64 `json:"y0"`
		X1   *float64 `json:"x1"`
		Y1   *float64 `json:"y1"`
		Page *int     `json:"page"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.X0 == nil || raw.Y0 == nil || raw.X1 == nil || raw.Y1 == nil || raw.Page == nil {
		return apperrors.New(apperrors.KindFormat, "bbox", "bbox requires x0, y0, x1, y1 and page")
	}
	*b = BoundingBox{X0: *raw.X0, Y0: *raw.Y0, X1: *raw.X1, Y1: *raw.Y1, Page: *raw.Page}
	return b.Validate()
}

// Region is one field's rectangle on one page
type Region struct {
	Field string      `json:"field"`
	BBox  BoundingBox `json:"bbox"`
	// Type overrides the type derived from the field name when set
	Type FieldType `json:"type,omitempty"`
}

// key identifies the slot a region occupies in a set
type key struct {
	field string
	page  int
}

func (r Region) key() key {
	return key{field: r.Field, page: r.BBox.Page}
}

// Set is the ordered collection of regions of one document, holding at most one
// region per (field, page).
type Set struct {
	regions []Region
}

// NewSet creates a set from regions, applying upsert semantics in order
func NewSet(regions ...Region) *Set {
	s := &Set{}
	for _, r := range regions {
		s.Upsert(r)
	}
	return s
}

// Upsert normalizes the region's box, evicts any region on the same (field, page)
// and appends the new one.
func (s *Set) Upsert(r Region) {
	r.BBox = r.BBox.Normalize()
	k := r.key()
	kept := s.regions[:0:0]
	for _, existing := range s.regions {
		if existing.key() != k {
			kept = append(kept, existing)
		}
	}
	s.regions = append(kept, r)
}

// Remove deletes the region for (field, page) and reports whether one existed
func (s *Set) Remove(field string, page int) bool {
	k := key{field: field, page: page}
	for i, r := range s.regions {
		if r.key() == k {
			s.regions = append(s.regions[:i:i], s.regions[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the region for (field, page)
func (s *Set) Find(field string, page int) (Region, bool) {
	k := key{field: field, page: page}
	for _, r := range s.regions {
		if r.key() == k {
			return r, true
		}
	}
	return Region{}, false
}

// Len returns the number of regions
func (s *Set) Len() int {
	return len(s.regions)
}

// All returns a copy of the regions in insertion order
func (s *Set) All() []Region {
	out := make([]Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// OnPage returns the regions on one page in insertion order
func (s *Set) OnPage(page int) []Region {
	var out []Region
	for _, r := range s.regions {
		if r.BBox.Page == page {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy of the set
func (s *Set) Clone() *Set {
	return &Set{regions: s.All()}
}

// Equal reports whether both sets hold the same regions in the same order
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.regions {
		if s.regions[i] != o.regions[i] {
			return false
		}
	}
	return true
}

// Clear removes every region
func (s *Set) Clear() {
	s.regions = nil
}
