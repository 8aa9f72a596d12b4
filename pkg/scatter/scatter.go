// Package scatter places groups of single-part objects around a center.
package scatter

import (
	"math"

	"github.com/yksanjo/roblox-world-generator/pkg/geo"
	"github.com/yksanjo/roblox-world-generator/pkg/spec"
	"github.com/yksanjo/roblox-world-generator/pkg/structure"
)

// Rand is the randomness a scatter draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Instance is one placed object. Y is always 0.
type Instance struct {
	Type     string          `json:"type"`
	Kind     spec.ObjectKind `json:"-"`
	Position geo.Vec3        `json:"position"`
	Size     geo.Vec3        `json:"size"`
	Rotation float64         `json:"rotation"`
}

// SizeFor returns the default extent of an object kind.
func SizeFor(k spec.ObjectKind) geo.Vec3 {
	switch k {
	case spec.ObjectTree:
		return geo.V(4, 20, 4)
	case spec.ObjectRock:
		return geo.V(3, 3, 3)
	case spec.ObjectFurniture:
		return geo.V(4, 4, 4)
	default:
		return geo.V(2, 2, 2)
	}
}

// Scatter emits req.Count instances around the group center. For each
// instance it draws the x offset, the z offset and then the rotation, in
// that order. Offsets stay within spread*worldSize of the center and
// positions stay inside the world. Overlap is allowed.
func Scatter(req spec.ObjectGroup, worldSize int, r Rand) []Instance {
	if req.Count <= 0 {
		return []Instance{}
	}
	center := structure.Place(req.Position, worldSize)
	lo, hi := geo.WorldBounds(worldSize)
	spread := req.Spread
	if math.IsNaN(spread) || spread < 0 {
		spread = 0
	}
	reach := math.Min(spread, spec.MaxSpread) * float64(worldSize)
	limit := int(math.Floor(reach))
	size := SizeFor(req.Kind)

	out := make([]Instance, 0, req.Count)
	for n := 0; n < req.Count; n++ {
		dx := offset(r, reach, limit)
		dz := offset(r, reach, limit)
		out = append(out, Instance{
			Type: req.Type,
			Kind: req.Kind,
			Position: geo.Vec3{
				X: geo.ClampInt(center.X+dx, lo, hi),
				Y: 0,
				Z: geo.ClampInt(center.Z+dz, lo, hi),
			},
			Size:     size,
			Rotation: r.Float64() * 360,
		})
	}
	return out
}

func offset(r Rand, reach float64, limit int) int {
	d := geo.Round((r.Float64()*2 - 1) * reach)
	return geo.ClampInt(d, -limit, limit)
}
