// Package annotation drives region creation from pointer gestures on a rendered page.
//
// A Session moves between three states:
//
//	Idle ──SelectField──▶ FieldSelected ──PointerDown──▶ Dragging
//	  ▲                        ▲    │                        │
//	  └──────Deselect──────────┘    └◀──────PointerUp────────┘
//
// Every event is passed in explicitly and every edit of the region set is preceded by a
// history checkpoint, so all edits can be undone.
package annotation

import (
	"math"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/geometry"
	"github.com/a3tai/mcp-pdf-regions/internal/history"
	"github.com/a3tai/mcp-pdf-regions/internal/region"
)

// State is the interaction state of a session
type State int

const (
	Idle State = iota
	FieldSelected
	Dragging
)

// String returns a string representation of the State
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FieldSelected:
		return "field_selected"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

const (
	// DefaultScale is the magnification pages are rendered at
	DefaultScale = 1.5
	// DefaultMinDrag is the pixel extent a gesture must exceed on both axes to count as a drag
	DefaultMinDrag = 10.0
)

var (
	ErrNoFieldSelected = apperrors.New(apperrors.KindPrecondition, "pointer down",
		"no field selected: select a field before drawing a region")
	ErrNoPage = apperrors.New(apperrors.KindPrecondition, "pointer down",
		"no document page is loaded")
	ErrNotDragging = apperrors.New(apperrors.KindPrecondition, "pointer",
		"no drag in progress")
	ErrAlreadyDragging = apperrors.New(apperrors.KindPrecondition, "pointer down",
		"a drag is already in progress")
)

// PointerEvent is a pointer position in pixels relative to the page surface
type PointerEvent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in pixel space
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Overlay is a region of the current page placed on the rendered surface
type Overlay struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Color string `json:"color"`
	Rect
}

// Pages supplies the unit-magnification size of each page of an open document
type Pages interface {
	PageCount() int
	IntrinsicSize(page int) (geometry.Size, error)
}

// Options configures a Session
type Options struct {
	Scale        float64
	MinDrag      float64
	HistoryDepth int
	Registry     *region.Registry
}

// Session is the annotation state of one open document
type Session struct {
	scale    float64
	minDrag  float64
	registry *region.Registry

	pages     Pages
	page      int
	transform *geometry.Transform

	state  State
	field  string
	anchor geometry.Point

	regions *region.Set
	history *history.Manager
}

// New creates an idle session with no document
func New(opts Options) *Session {
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.MinDrag <= 0 {
		opts.MinDrag = DefaultMinDrag
	}
	if opts.Registry == nil {
		opts.Registry, _ = region.NewRegistry()
	}
	return &Session{
		scale:    opts.Scale,
		minDrag:  opts.MinDrag,
		registry: opts.Registry,
		regions:  region.NewSet(),
		history:  history.New(opts.HistoryDepth),
	}
}

// LoadDocument replaces the open document. Regions, history, selection and any drag
// are reset and the first page becomes current.
func (s *Session) LoadDocument(pages Pages) error {
	s.pages = nil
	s.transform = nil
	s.page = 0
	s.state = Idle
	s.field = ""
	s.regions = region.NewSet()
	s.history.Reset()

	if pages == nil || pages.PageCount() == 0 {
		return apperrors.New(apperrors.KindResourceLoad, "load document", "document has no pages")
	}
	s.pages = pages
	return s.SetPage(0)
}

// SetPage makes page current. A drag in progress is cancelled.
func (s *Session) SetPage(page int) error {
	if s.pages == nil {
		return ErrNoPage
	}
	if page < 0 || page >= s.pages.PageCount() {
		return apperrors.Newf(apperrors.KindPrecondition, "set page",
			"page %d out of range (document has %d pages)", page, s.pages.PageCount())
	}
	intrinsic, err := s.pages.IntrinsicSize(page)
	if err != nil {
		return apperrors.Wrap(apperrors.KindResourceLoad, "set page", err)
	}
	transform, err := geometry.NewTransform(geometry.PixelSize(intrinsic, s.scale), intrinsic)
	if err != nil {
		return apperrors.Wrap(apperrors.KindResourceLoad, "set page", err)
	}
	s.page = page
	s.transform = transform
	s.cancelDrag()
	return nil
}

// Page returns the zero-based current page
func (s *Session) Page() int {
	return s.page
}

// PageCount returns the number of pages of the open document, or 0
func (s *Session) PageCount() int {
	if s.pages == nil {
		return 0
	}
	return s.pages.PageCount()
}

// Transform returns the coordinate transform of the current page, or nil
func (s *Session) Transform() *geometry.Transform {
	return s.transform
}

// State returns the interaction state
func (s *Session) State() State {
	return s.state
}

// SelectedField returns the armed field, or "" when idle
func (s *Session) SelectedField() string {
	return s.field
}

// Registry returns the field registry the session validates against
func (s *Session) Registry() *region.Registry {
	return s.registry
}

// SelectField arms a field for drawing. Existing regions are untouched.
func (s *Session) SelectField(name string) error {
	if _, ok := s.registry.Lookup(name); !ok {
		return apperrors.Newf(apperrors.KindPrecondition, "select field", "unknown field %q", name)
	}
	s.field = name
	s.state = FieldSelected
	return nil
}

// Deselect disarms the field and drops any drag in progress
func (s *Session) Deselect() {
	s.field = ""
	s.state = Idle
}

// PointerDown starts a drag at ev
func (s *Session) PointerDown(ev PointerEvent) error {
	switch s.state {
	case Idle:
		return ErrNoFieldSelected
	case Dragging:
		return ErrAlreadyDragging
	}
	if s.transform == nil {
		return ErrNoPage
	}
	if err := s.checkArmedField("pointer down"); err != nil {
		return err
	}
	s.anchor = s.clamp(ev)
	s.state = Dragging
	return nil
}

// PointerMove returns the live rectangle from the anchor to ev
func (s *Session) PointerMove(ev PointerEvent) (Rect, error) {
	if s.state != Dragging {
		return Rect{}, ErrNotDragging
	}
	return spanRect(s.anchor, s.clamp(ev)), nil
}

// PointerUp finishes the drag at ev. Gestures that do not exceed the minimum drag
// extent on both axes are clicks and yield a nil region with no edit. Otherwise the
// rectangle is converted to intrinsic coordinates and upserted on the current page.
func (s *Session) PointerUp(ev PointerEvent) (*region.Region, error) {
	if s.state != Dragging {
		return nil, ErrNotDragging
	}
	if err := s.checkArmedField("pointer up"); err != nil {
		return nil, err
	}
	s.state = FieldSelected

	end := s.clamp(ev)
	rect := spanRect(s.anchor, end)
	if rect.Width <= s.minDrag || rect.Height <= s.minDrag {
		return nil, nil
	}

	topLeft := s.transform.ToIntrinsic(geometry.Point{X: rect.Left, Y: rect.Top})
	bottomRight := s.transform.ToIntrinsic(geometry.Point{X: rect.Left + rect.Width, Y: rect.Top + rect.Height})
	r := region.Region{
		Field: s.field,
		BBox:  region.BoxFromCorners(topLeft, bottomRight, s.page),
	}

	s.history.Checkpoint(s.regions)
	s.regions.Upsert(r)
	return &r, nil
}

// RemoveRegion deletes the region of field on page and reports whether one existed.
// Nothing is recorded in the history when there was nothing to remove.
func (s *Session) RemoveRegion(field string, page int) bool {
	if _, ok := s.regions.Find(field, page); !ok {
		return false
	}
	s.history.Checkpoint(s.regions)
	return s.regions.Remove(field, page)
}

// Clear removes every region and disarms the field
func (s *Session) Clear() {
	if s.regions.Len() > 0 {
		s.history.Checkpoint(s.regions)
		s.regions.Clear()
	}
	s.Deselect()
}

// LoadTemplate replaces the regions with those of a saved template for re-editing
func (s *Session) LoadTemplate(t region.Template) {
	s.history.Checkpoint(s.regions)
	s.regions = region.FromTemplate(t, s.registry)
}

// Undo restores the state before the last edit and reports whether it did anything
func (s *Session) Undo() bool {
	prev, ok := s.history.Undo(s.regions)
	if ok {
		s.regions = prev
	}
	return ok
}

// Redo reapplies the last undone edit and reports whether it did anything
func (s *Session) Redo() bool {
	next, ok := s.history.Redo(s.regions)
	if ok {
		s.regions = next
	}
	return ok
}

// CanUndo reports whether Undo would change anything
func (s *Session) CanUndo() bool {
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change anything
func (s *Session) CanRedo() bool {
	return s.history.CanRedo()
}

// Regions returns a copy of all regions
func (s *Session) Regions() []region.Region {
	return s.regions.All()
}

// Template snapshots the regions as a template
func (s *Session) Template() region.Template {
	return s.regions.ToTemplate(s.registry)
}

// Overlays places the regions of the current page on the rendered surface
func (s *Session) Overlays() []Overlay {
	if s.transform == nil {
		return nil
	}
	var out []Overlay
	for _, r := range s.regions.OnPage(s.page) {
		a := s.transform.ToPixel(geometry.Point{X: r.BBox.X0, Y: r.BBox.Y0})
		b := s.transform.ToPixel(geometry.Point{X: r.BBox.X1, Y: r.BBox.Y1})
		o := Overlay{Field: r.Field, Label: r.Field, Color: region.DefaultColor, Rect: spanRect(a, b)}
		if def, ok := s.registry.Lookup(r.Field); ok {
			o.Label = def.Label
			o.Color = def.Color
		}
		out = append(out, o)
	}
	return out
}

// checkArmedField disarms the session when its field was unregistered after being
// selected
func (s *Session) checkArmedField(op string) error {
	if _, ok := s.registry.Lookup(s.field); ok {
		return nil
	}
	field := s.field
	s.Deselect()
	return apperrors.Newf(apperrors.KindPrecondition, op, "field %q is no longer registered", field)
}

func (s *Session) cancelDrag() {
	if s.state == Dragging {
		s.state = FieldSelected
	}
}

// clamp keeps an event on the rendered surface
func (s *Session) clamp(ev PointerEvent) geometry.Point {
	size := s.transform.PixelSize()
	return geometry.Point{
		X: math.Max(0, math.Min(ev.X, size.Width)),
		Y: math.Max(0, math.Min(ev.Y, size.Height)),
	}
}

func spanRect(a, b geometry.Point) Rect {
	return Rect{
		Left:   math.Min(a.X, b.X),
		Top:    math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}
