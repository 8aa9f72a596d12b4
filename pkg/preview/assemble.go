// Package preview reduces a scene document to a 2D overview.
package preview

import (
	"math"

	"github.com/yksanjo/roblox-world-generator/pkg/geo"
	"github.com/yksanjo/roblox-world-generator/pkg/scene"
	"github.com/yksanjo/roblox-world-generator/pkg/structure"
)

// MaxGrid bounds the edge of the downsampled elevation grid.
const MaxGrid = 32

// Assemble converts a scene document into a 2D preview. Terrain is averaged
// down, structures become footprints, and objects are summarized as counts.
func Assemble(doc *scene.Document) *Preview {
	lo, hi := geo.WorldBounds(doc.Metadata.Size)
	p := &Preview{
		Metadata: Metadata{
			Size:        doc.Metadata.Size,
			Theme:       doc.Metadata.Theme,
			Seed:        doc.Metadata.Seed,
			GeneratedAt: doc.Metadata.GeneratedAt,
			JobID:       doc.Metadata.JobID,
		},
		Elevation:  assembleElevation(doc),
		Structures: assembleFootprints(doc.Workspace.Models),
		Objects:    assembleObjectSummary(doc.Workspace.Parts),
		World:      geo.Rect{Min: geo.Pt(float64(lo), float64(lo)), Max: geo.Pt(float64(hi), float64(hi))},
	}

	bounds := geo.EmptyRect()
	for _, f := range p.Structures {
		bounds = bounds.Union(f.Rect)
	}
	if p.Objects.Extent != nil {
		bounds = bounds.Union(*p.Objects.Extent)
	}
	if !bounds.Empty() {
		p.Bounds = &bounds
	}
	return p
}

func assembleElevation(doc *scene.Document) *Elevation {
	t := doc.Workspace.Terrain
	if t == nil || t.Resolution < 1 || len(t.Heightmap) != t.Resolution {
		return nil
	}
	src := t.Resolution
	out := min(src, MaxGrid)

	e := &Elevation{
		Type:       t.Type,
		Resolution: out,
		CellSize:   float64(doc.Metadata.Size) / float64(out),
		Min:        math.Inf(1),
		Max:        math.Inf(-1),
		Grid:       make([][]float64, out),
	}
	for a := 0; a < out; a++ {
		row := make([]float64, out)
		i0, i1 := a*src/out, (a+1)*src/out
		for b := 0; b < out; b++ {
			j0, j1 := b*src/out, (b+1)*src/out
			sum, n := 0.0, 0
			for i := i0; i < i1; i++ {
				for j := j0; j < j1 && j < len(t.Heightmap[i]); j++ {
					sum += t.Heightmap[i][j]
					n++
				}
			}
			if n > 0 {
				row[b] = sum / float64(n)
			}
			e.Min = math.Min(e.Min, row[b])
			e.Max = math.Max(e.Max, row[b])
		}
		e.Grid[a] = row
	}
	return e
}

func assembleFootprints(models []scene.Model) []Footprint {
	result := make([]Footprint, 0, len(models))
	for _, m := range models {
		rect := structure.Structure{Position: m.Position, Parts: m.Parts}.Footprint()
		if rect.Empty() {
			rect = geo.Rect{Min: m.Position.XZ(), Max: m.Position.XZ()}
		}
		result = append(result, Footprint{
			Name:     m.Name,
			Position: m.Position.XZ(),
			Rect:     rect,
			Parts:    len(m.Parts),
		})
	}
	return result
}

func assembleObjectSummary(parts []scene.Part) ObjectSummary {
	os := ObjectSummary{ByType: make(map[string]int)}
	extent := geo.EmptyRect()
	for _, p := range parts {
		os.Total++
		os.ByType[p.Name]++
		extent = extent.Extend(p.Position.XZ())
	}
	if !extent.Empty() {
		os.Extent = &extent
	}
	return os
}
