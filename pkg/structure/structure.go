// Package structure expands structure requests into placed part lists.
package structure

import (
	"github.com/yksanjo/roblox-world-generator/pkg/geo"
	"github.com/yksanjo/roblox-world-generator/pkg/spec"
)

// VerticalScale converts a fractional y position into world units. It is
// fixed and independent of the world extent.
const VerticalScale = 50

// Shape is the primitive a part is rendered as.
type Shape string

const (
	ShapeBlock    Shape = "block"
	ShapeCylinder Shape = "cylinder"
	ShapeWedge    Shape = "wedge"
)

// Color is an RGB triple, serialized as a three-element array.
type Color [3]int

// Part is one primitive of a structure. Position is relative to the
// structure's origin.
type Part struct {
	Shape    Shape    `json:"shape"`
	Size     geo.Vec3 `json:"size"`
	Position geo.Vec3 `json:"position"`
	Material string   `json:"material"`
	Color    Color    `json:"color"`
}

// Structure is a placed composite building.
type Structure struct {
	Type     string             `json:"type"`
	Kind     spec.StructureKind `json:"-"`
	Position geo.Vec3           `json:"position"`
	Size     spec.Size          `json:"size"`
	Style    string             `json:"style"`
	Parts    []Part             `json:"parts"`
}

// Place converts a fractional position into absolute world coordinates.
// x and z land in [-worldSize/2, worldSize/2); y is scaled by VerticalScale.
func Place(p spec.Position, worldSize int) geo.Vec3 {
	lo, hi := geo.WorldBounds(worldSize)
	half := float64(worldSize / 2)
	ws := float64(worldSize)
	return geo.Vec3{
		X: geo.ClampInt(geo.Round(p.X*ws-half), lo, hi),
		Y: geo.Round(p.Y * VerticalScale),
		Z: geo.ClampInt(geo.Round(p.Z*ws-half), lo, hi),
	}
}

// Build places req in a world of the given extent and generates its parts.
// Style is carried through unchanged; it does not influence the parts.
func Build(req spec.Structure, worldSize int) Structure {
	return Structure{
		Type:     req.Type,
		Kind:     req.Kind,
		Position: Place(req.Position, worldSize),
		Size:     req.Size,
		Style:    req.Style,
		Parts:    Parts(req.Kind, req.Size),
	}
}

// Parts generates the part list for a structure family. Heights are halved
// with integer division.
func Parts(kind spec.StructureKind, s spec.Size) []Part {
	w, h, d := s.Width, s.Height, s.Depth
	switch kind {
	case spec.StructureCastle:
		wall := h / 3
		return []Part{
			{
				Shape:    ShapeCylinder,
				Size:     geo.V(w, h, w),
				Position: geo.V(0, h/2, 0),
				Material: "Brick",
				Color:    Color{200, 200, 200},
			},
			{
				Shape:    ShapeBlock,
				Size:     geo.V(w*2, wall, 10),
				Position: geo.V(0, wall/2, d/2),
				Material: "Brick",
				Color:    Color{180, 180, 180},
			},
		}
	case spec.StructureHouse:
		return []Part{
			{
				Shape:    ShapeBlock,
				Size:     geo.V(w, h, d),
				Position: geo.V(0, h/2, 0),
				Material: "Wood",
				Color:    Color{139, 90, 43},
			},
			{
				Shape:    ShapeWedge,
				Size:     geo.V(w+2, h/3, d+2),
				Position: geo.V(0, h+h/6, 0),
				Material: "Wood",
				Color:    Color{139, 69, 19},
			},
		}
	default:
		return []Part{{
			Shape:    ShapeBlock,
			Size:     geo.V(w, h, d),
			Position: geo.V(0, h/2, 0),
			Material: "Plastic",
			Color:    Color{200, 200, 200},
		}}
	}
}

// Footprint returns the ground rectangle covered by the structure's parts.
func (s Structure) Footprint() geo.Rect {
	r := geo.EmptyRect()
	origin := s.Position.XZ()
	for _, p := range s.Parts {
		c := origin.Add(p.Position.XZ())
		r = r.Union(geo.RectAround(c, float64(p.Size.X), float64(p.Size.Z)))
	}
	return r
}
