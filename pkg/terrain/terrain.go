// Package terrain generates heightmaps for the terrain archetypes.
package terrain

import (
	"errors"
	"fmt"
	"math"

	"github.com/yksanjo/roblox-world-generator/pkg/geo"
	"github.com/yksanjo/roblox-world-generator/pkg/noise"
	"github.com/yksanjo/roblox-world-generator/pkg/spec"
)

const (
	// MaxResolution caps the heightmap grid edge.
	MaxResolution = 128

	// WaterLevel marks island cells outside the land disk. It is the only
	// negative value a non-desert heightmap may contain.
	WaterLevel = -10.0
)

var ErrInvalidWorldSize = errors.New("world size must be at least 1")

// Heightmap is a Resolution x Resolution grid of elevation samples. Heights
// is indexed [i][j] with i the row.
type Heightmap struct {
	Type       spec.TerrainType `json:"type"`
	Heights    [][]float64      `json:"heightmap"`
	Resolution int              `json:"resolution"`
	MaxHeight  float64          `json:"max_height"`
}

// Scale returns the world units covered by one grid cell.
func (h *Heightmap) Scale(worldSize int) float64 {
	return float64(worldSize) / float64(h.Resolution)
}

// Resolution returns the grid edge for a world of the given extent.
func Resolution(worldSize int) int {
	return geo.ClampInt(worldSize/4, 1, MaxResolution)
}

type heightFunc func(i, j, res int, hv float64, f noise.Field) float64

var archetypes = map[spec.TerrainType]heightFunc{
	spec.TerrainMountain: mountain,
	spec.TerrainValley:   valley,
	spec.TerrainPlains:   plains,
	spec.TerrainIsland:   island,
	spec.TerrainDesert:   desert,
	spec.TerrainForest:   forest,
}

// Generate builds the heightmap for cfg.Type. Cells are visited row-major,
// so a sequential field consumes its draws in a fixed order. Unknown types
// generate plains.
func Generate(worldSize int, cfg spec.Terrain, field noise.Field) (*Heightmap, error) {
	if worldSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorldSize, worldSize)
	}
	if field == nil {
		return nil, errors.New("terrain: nil noise field")
	}

	tt, _ := spec.ParseTerrainType(string(cfg.Type))
	fn := archetypes[tt]
	res := Resolution(worldSize)

	h := &Heightmap{
		Type:       tt,
		Heights:    make([][]float64, res),
		Resolution: res,
		MaxHeight:  math.Inf(-1),
	}
	for i := 0; i < res; i++ {
		row := make([]float64, res)
		for j := 0; j < res; j++ {
			v := fn(i, j, res, cfg.HeightVariation, field)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("terrain %s: non-finite height at (%d,%d)", tt, i, j)
			}
			row[j] = v
			if v > h.MaxHeight {
				h.MaxHeight = v
			}
		}
		h.Heights[i] = row
	}
	return h, nil
}

// ratio returns num/den, or 0 when the denominator is degenerate.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func centerDistance(i, j, c int) float64 {
	return geo.Pt(float64(i-c), float64(j-c)).Length()
}

func mountain(i, j, res int, hv float64, f noise.Field) float64 {
	c := res / 2
	maxDist := math.Hypot(float64(c), float64(c))
	base := math.Max(0, 1-ratio(centerDistance(i, j, c), maxDist)*1.5)
	h := (base + f.Sample(i, j, -0.2, 0.2)) * hv * 100
	return math.Max(0, h)
}

func valley(i, j, res int, _ float64, f noise.Field) float64 {
	half := res / 2
	d := ratio(math.Abs(float64(i-half)), float64(half))
	return math.Max(0, d*30+f.Sample(i, j, -5, 5))
}

func plains(i, j, _ int, _ float64, f noise.Field) float64 {
	return f.Sample(i, j, 0, 5)
}

func island(i, j, res int, _ float64, f noise.Field) float64 {
	radius := float64(res / 2)
	dist := centerDistance(i, j, res/2)
	if dist >= radius {
		return WaterLevel
	}
	h := (1-dist/radius)*40 + f.Sample(i, j, -2, 2)
	return math.Max(0, h)
}

func desert(i, j, _ int, _ float64, f noise.Field) float64 {
	dune := math.Sin(float64(i)*0.1) * math.Cos(float64(j)*0.1) * 15
	return 10 + dune + f.Sample(i, j, -2, 2)
}

func forest(i, j, _ int, _ float64, f noise.Field) float64 {
	return f.Sample(i, j, 5, 15)
}
