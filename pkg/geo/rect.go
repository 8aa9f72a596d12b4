package geo

import "math"

// Rect is an axis-aligned rectangle in the XZ plane.
type Rect struct {
	Min Point2D `json:"min"`
	Max Point2D `json:"max"`
}

// EmptyRect returns an inverted rectangle that any Union replaces.
func EmptyRect() Rect {
	inf := math.Inf(1)
	return Rect{Min: Pt(inf, inf), Max: Pt(-inf, -inf)}
}

// RectAround returns the rectangle of the given extent centered on c.
func RectAround(c Point2D, width, depth float64) Rect {
	return Rect{
		Min: Pt(c.X-width/2, c.Z-depth/2),
		Max: Pt(c.X+width/2, c.Z+depth/2),
	}
}

// Empty reports whether r encloses no area and no point.
func (r Rect) Empty() bool {
	return r.Min.X > r.Max.X || r.Min.Z > r.Max.Z
}

// Width returns the X extent.
func (r Rect) Width() float64 {
	if r.Empty() {
		return 0
	}
	return r.Max.X - r.Min.X
}

// Depth returns the Z extent.
func (r Rect) Depth() float64 {
	if r.Empty() {
		return 0
	}
	return r.Max.Z - r.Min.Z
}

// Center returns the midpoint of r.
func (r Rect) Center() Point2D {
	return Pt((r.Min.X+r.Max.X)/2, (r.Min.Z+r.Max.Z)/2)
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Z >= r.Min.Z && p.Z <= r.Max.Z
}

// Union returns the smallest rectangle enclosing both r and s.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	return Rect{
		Min: Pt(math.Min(r.Min.X, s.Min.X), math.Min(r.Min.Z, s.Min.Z)),
		Max: Pt(math.Max(r.Max.X, s.Max.X), math.Max(r.Max.Z, s.Max.Z)),
	}
}

// Extend grows r to include p.
func (r Rect) Extend(p Point2D) Rect {
	return r.Union(Rect{Min: p, Max: p})
}
