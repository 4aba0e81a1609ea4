package model

import (
	"github.com/soocke/print-prep-go/domain/backend"
	"github.com/soocke/print-prep-go/domain/crop"
)

// CropViewModel owns the interactive state of the crop preview: the loaded
// image size, the container, the zoom transform, the selection and the
// backend mode. It is mutated only from the UI thread and needs no locking.
// The zero value is usable after a container and an image are set.
type CropViewModel struct {
	natural   crop.Size
	container crop.Size
	zoom      float64
	origin    crop.Point
	zoomed    bool

	selection *crop.Rect
	dragging  bool
	dragStart crop.Point

	mode backend.Endpoint

	zoomStep     float64
	minSelection float64
}

// NewCropViewModel returns a model using the given wheel step factor and
// minimum selection size. Non-positive values use the crop defaults.
func NewCropViewModel(zoomStep, minSelection float64) *CropViewModel {
	return &CropViewModel{zoom: crop.DefaultZoom, zoomStep: zoomStep, minSelection: minSelection, mode: backend.EndpointProcessForPrint}
}

// LoadImage replaces the natural size and resets zoom, origin and selection.
func (m *CropViewModel) LoadImage(natural crop.Size) {
	if m == nil {
		return
	}
	m.natural = natural
	m.resetView()
	m.ClearSelection()
}

// SetZoomStep changes the wheel step factor for later gestures.
func (m *CropViewModel) SetZoomStep(step float64) {
	if m != nil {
		m.zoomStep = step
	}
}

// Unload forgets the image; Transform reports false until the next LoadImage.
func (m *CropViewModel) Unload() {
	if m == nil {
		return
	}
	m.natural = crop.Size{}
	m.resetView()
	m.ClearSelection()
}

// Loaded reports whether an image has been loaded.
func (m *CropViewModel) Loaded() bool {
	return m != nil && m.natural.Valid()
}

// Natural returns the loaded image size.
func (m *CropViewModel) Natural() crop.Size {
	if m == nil {
		return crop.Size{}
	}
	return m.natural
}

// SetContainer records the size of the preview box as last measured. While
// no wheel gesture happened the origin follows the container center.
func (m *CropViewModel) SetContainer(size crop.Size) {
	if m == nil {
		return
	}
	m.container = size
	if !m.zoomed {
		m.origin = size.Center()
	}
}

// Container returns the last recorded container size.
func (m *CropViewModel) Container() crop.Size {
	if m == nil {
		return crop.Size{}
	}
	return m.container
}

// Wheel zooms by steps wheel notches about pointer, which becomes the new
// origin. It reports whether the view changed.
func (m *CropViewModel) Wheel(pointer crop.Point, steps int) bool {
	if m == nil || steps == 0 || !m.Loaded() {
		return false
	}
	prevZoom, prevOrigin := m.currentZoom(), m.origin
	m.zoom, m.origin = crop.ZoomAt(prevZoom, pointer, steps, m.zoomStep)
	m.zoomed = true
	return m.zoom != prevZoom || m.origin != prevOrigin
}

// ResetZoom returns to zoom 1 about the container center.
func (m *CropViewModel) ResetZoom() {
	if m == nil {
		return
	}
	m.resetView()
}

// Zoom returns the current zoom factor.
func (m *CropViewModel) Zoom() float64 {
	if m == nil {
		return crop.DefaultZoom
	}
	return m.currentZoom()
}

// BeginDrag starts a selection drag at p.
func (m *CropViewModel) BeginDrag(p crop.Point) {
	if m == nil || !m.Loaded() {
		return
	}
	m.dragging = true
	m.dragStart = p
	m.selection = nil
}

// DragTo updates the live selection while dragging.
func (m *CropViewModel) DragTo(p crop.Point) {
	if m == nil || !m.dragging {
		return
	}
	sel := crop.SelectionFromDrag(m.dragStart, p)
	m.selection = &sel
}

// EndDrag finishes the drag. Selections smaller than the minimum size on
// either axis are discarded. It reports whether a selection was kept.
func (m *CropViewModel) EndDrag(p crop.Point) bool {
	if m == nil || !m.dragging {
		return false
	}
	m.dragging = false
	sel := crop.SelectionFromDrag(m.dragStart, p)
	if crop.Noise(sel, m.minSelection) {
		m.selection = nil
		return false
	}
	m.selection = &sel
	return true
}

// SetSelection replaces the selection with sel, e.g. a suggested crop.
// Empty rectangles clear it.
func (m *CropViewModel) SetSelection(sel crop.Rect) {
	if m == nil || !m.Loaded() {
		return
	}
	m.dragging = false
	if sel.Empty() {
		m.selection = nil
		return
	}
	m.selection = &sel
}

// Dragging reports whether a drag is in progress.
func (m *CropViewModel) Dragging() bool { return m != nil && m.dragging }

// ClearSelection drops the current selection and any drag in progress.
func (m *CropViewModel) ClearSelection() {
	if m == nil {
		return
	}
	m.selection = nil
	m.dragging = false
}

// Selection returns a copy of the current selection, or nil.
func (m *CropViewModel) Selection() *crop.Rect {
	if m == nil || m.selection == nil {
		return nil
	}
	sel := *m.selection
	return &sel
}

// SetMode switches the target endpoint. A different mode clears the
// selection.
func (m *CropViewModel) SetMode(mode backend.Endpoint) {
	if m == nil || mode == m.mode {
		return
	}
	m.mode = mode
	m.ClearSelection()
}

// Mode returns the selected endpoint.
func (m *CropViewModel) Mode() backend.Endpoint {
	if m == nil {
		return ""
	}
	return m.mode
}

// Transform snapshots the current geometry. ok is false until both an image
// and a container size are known.
func (m *CropViewModel) Transform() (crop.ViewTransform, bool) {
	if m == nil || !m.natural.Valid() || !m.container.Valid() {
		return crop.ViewTransform{}, false
	}
	return crop.ViewTransform{
		Natural:   m.natural,
		Container: m.container,
		Zoom:      m.currentZoom(),
		Origin:    m.origin,
	}, true
}

// Resolve maps the selection to source pixels. No selection, or one outside
// the image, yields nil: use the full image.
func (m *CropViewModel) Resolve() (*crop.Pixels, error) {
	if m == nil || m.selection == nil {
		return nil, nil
	}
	vt, _ := m.Transform()
	return crop.Resolve(vt, *m.selection)
}

func (m *CropViewModel) currentZoom() float64 {
	if m.zoom == 0 {
		return crop.DefaultZoom
	}
	return m.zoom
}

func (m *CropViewModel) resetView() {
	m.zoom = crop.DefaultZoom
	m.origin = m.container.Center()
	m.zoomed = false
}
