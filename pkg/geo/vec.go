package geo

import "math"

// Vec3 is an integer position or extent in world units.
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// V is a shorthand constructor for Vec3.
func V(x, y, z int) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// XZ projects v onto the ground plane.
func (v Vec3) XZ() Point2D {
	return Point2D{X: float64(v.X), Z: float64(v.Z)}
}

// Positive reports whether every component is at least 1.
func (v Vec3) Positive() bool {
	return v.X >= 1 && v.Y >= 1 && v.Z >= 1
}

// WorldBounds returns the inclusive integer coordinate range of a world of the
// given extent: [-size/2, size-size/2-1], i.e. the half-open [-size/2, size/2).
func WorldBounds(size int) (lo, hi int) {
	half := size / 2
	return -half, size - half - 1
}

// ClampInt limits v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round rounds half away from zero and converts to int.
func Round(f float64) int {
	return int(math.Round(f))
}
