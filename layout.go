package linecard

import "math"

// Page geometry in points, US Letter portrait.
const (
	PointsPerInch = 72.0
	PageWidth     = 8.5 * PointsPerInch
	PageHeight    = 11 * PointsPerInch

	SideMargin = 0.5 * PointsPerInch
	BodyWidth  = PageWidth - 2*SideMargin

	// HeaderPad separates the header band from the body.
	HeaderPad = 10.0
	// FooterPad separates the body from the footer band.
	FooterPad = 10.0
	// MaxBandHeight caps header and footer images.
	MaxBandHeight = 0.3 * PageHeight

	FallbackHeaderHeight = 0.9 * PointsPerInch
	MinFooterHeight      = 0.5 * PointsPerInch
	// FooterInset lifts the text footer off the bottom edge.
	FooterInset = 20.0

	LabelFontSize   = 18.0
	LabelLineHeight = 22.0
	LabelPad        = 8.0
)

// Cluster block geometry.
const (
	LeftColumnWidth  = 2.0 * PointsPerInch
	RightColumnWidth = BodyWidth - LeftColumnWidth
	CellPadX         = 6.0
	LeftPadX         = 10.0

	ParentLogoWidth     = 1.4 * PointsPerInch
	ParentLogoMaxHeight = 1.2 * PointsPerInch
	ChildLogoWidth      = 0.6 * PointsPerInch
	ChildLogoMaxHeight  = 0.5 * PointsPerInch
	ChildLogoGap        = 4.0
	StripGap            = 4.0

	BlockPadTop    = 6.0
	BlockPadBottom = 12.0
	RuleWidth      = 0.25
	BlockSpacer    = 12.0

	BodyFontSize   = 10.0
	BodyLineHeight = 12.0
	ParagraphGap   = 4.0
	BulletIndent   = 10.0
)

// Size is a width and height in points.
type Size struct {
	W, H float64
}

// Point is a position in points from the top-left corner.
type Point struct {
	X, Y float64
}

// FirstPageOffset is the extra space above the body on page 1. The body
// top margin is sized for the later-page header h2; when the first-page
// header h1 is taller the difference (plus padding) is added, and a state
// label of height labelH adds its own height and padding.
func FirstPageOffset(h1, h2, labelH float64) float64 {
	offset := math.Max(0, h1-h2+HeaderPad)
	if labelH > 0 {
		offset += labelH + LabelPad
	}
	return offset
}

// ScaleToFit scales a w×h image to targetW, preserving aspect ratio. When
// the result is taller than maxH the height is capped and the width
// shrinks to match. Degenerate input returns a zero Size.
func ScaleToFit(w, h, targetW, maxH float64) Size {
	if w <= 0 || h <= 0 || targetW <= 0 {
		return Size{}
	}
	out := Size{W: targetW, H: targetW * h / w}
	if maxH > 0 && out.H > maxH {
		out.H = maxH
		out.W = maxH * w / h
	}
	return out
}

// BandHeight is the height of a full-page-width header or footer image.
func BandHeight(w, h float64) Size {
	return ScaleToFit(w, h, PageWidth, MaxBandHeight)
}

// StripLayout places items left to right, wrapping to a new row when the
// next item would exceed width. Items in a row are top-aligned; rows are
// separated by gap. Returns positions relative to the strip origin and the
// total strip height (0 when empty).
func StripLayout(items []Size, width, gap float64) ([]Point, float64) {
	if len(items) == 0 {
		return nil, 0
	}
	pos := make([]Point, len(items))
	x, y, rowH := 0.0, 0.0, 0.0
	for i, it := range items {
		if x > 0 && x+it.W > width {
			x = 0
			y += rowH + gap
			rowH = 0
		}
		pos[i] = Point{X: x, Y: y}
		x += it.W + gap
		rowH = math.Max(rowH, it.H)
	}
	return pos, y + rowH
}

// Geometry holds the vertical layout for one document.
type Geometry struct {
	FirstHeader float64 // page 1 header band
	LaterHeader float64 // pages 2..n header band
	Footer      float64 // reserved at the bottom of every page
	Label       float64 // state label line, 0 when absent
}

// BodyTop returns the y where the body starts on page (1-based).
func (g Geometry) BodyTop(page int) float64 {
	top := g.LaterHeader + HeaderPad
	if page == 1 {
		top += FirstPageOffset(g.FirstHeader, g.LaterHeader, g.Label)
	}
	return top
}

// BodyBottom returns the lowest y the body may reach.
func (g Geometry) BodyBottom() float64 {
	return PageHeight - g.Footer - FooterPad
}

// LabelTop returns the top edge of the state label on page 1.
func (g Geometry) LabelTop() float64 {
	return g.FirstHeader + LabelPad
}

// BodyHeight returns the usable body height on page.
func (g Geometry) BodyHeight(page int) float64 {
	return math.Max(0, g.BodyBottom()-g.BodyTop(page))
}
