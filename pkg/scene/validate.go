package scene

import (
	"fmt"
	"math"

	"github.com/yksanjo/roblox-world-generator/pkg/geo"
	"github.com/yksanjo/roblox-world-generator/pkg/spec"
	"github.com/yksanjo/roblox-world-generator/pkg/terrain"
	"github.com/yksanjo/roblox-world-generator/pkg/validation"
)

// Validate performs structural validation on a scene document. It checks
// the terrain grid, part extents and rotations, and placement bounds.
func Validate(doc *Document) *validation.Report {
	r := validation.NewReport()

	if doc == nil {
		r.AddError(validation.Result{
			Level:   validation.LevelDocument,
			Message: "scene document is nil",
		})
		return r
	}

	if doc.Version == "" {
		r.AddError(validation.Result{
			Level:    validation.LevelDocument,
			Message:  "document version is empty",
			SpecPath: "version",
			Expected: Version,
		})
	}
	if doc.Metadata.Size < 1 {
		r.AddError(validation.Result{
			Level:       validation.LevelDocument,
			Message:     "world size must be positive",
			SpecPath:    "metadata.size",
			ActualValue: doc.Metadata.Size,
			Expected:    ">= 1",
		})
	}
	if doc.Workspace.Parts == nil || doc.Workspace.Models == nil {
		r.AddError(validation.Result{
			Level:    validation.LevelDocument,
			Message:  "workspace parts and models must be arrays, not null",
			SpecPath: "workspace",
		})
	}

	validateTerrain(doc, r)
	validateModels(doc, r)
	validateParts(doc, r)

	return r
}

func validateTerrain(doc *Document, r *validation.Report) {
	t := doc.Workspace.Terrain
	if t == nil {
		r.AddInfo(validation.Result{
			Level:    validation.LevelDocument,
			Message:  "document has no terrain",
			SpecPath: "workspace.terrain",
		})
		return
	}

	if t.Resolution < 1 || t.Resolution > terrain.MaxResolution {
		r.AddError(validation.Result{
			Level:       validation.LevelDocument,
			Message:     fmt.Sprintf("terrain resolution %d out of range", t.Resolution),
			SpecPath:    "workspace.terrain.resolution",
			ActualValue: t.Resolution,
			Expected:    fmt.Sprintf("1-%d", terrain.MaxResolution),
		})
		return
	}
	if len(t.Heightmap) != t.Resolution {
		r.AddError(validation.Result{
			Level:       validation.LevelDocument,
			Message:     fmt.Sprintf("heightmap has %d rows, resolution is %d", len(t.Heightmap), t.Resolution),
			SpecPath:    "workspace.terrain.heightmap",
			ActualValue: len(t.Heightmap),
			Expected:    fmt.Sprint(t.Resolution),
		})
		return
	}

	if want := float64(doc.Metadata.Size) / float64(t.Resolution); doc.Metadata.Size > 0 && math.Abs(t.Scale-want) > 1e-9 {
		r.AddWarning(validation.Result{
			Level:       validation.LevelDocument,
			Message:     fmt.Sprintf("terrain scale %.4f does not match size/resolution %.4f", t.Scale, want),
			SpecPath:    "workspace.terrain.scale",
			ActualValue: t.Scale,
			Expected:    fmt.Sprintf("%.4f", want),
		})
	}

	negativeOK := t.Type == string(spec.TerrainDesert)
	gridMax := math.Inf(-1)
	for i, row := range t.Heightmap {
		if len(row) != t.Resolution {
			r.AddError(validation.Result{
				Level:       validation.LevelDocument,
				Message:     fmt.Sprintf("heightmap row %d has %d columns, resolution is %d", i, len(row), t.Resolution),
				SpecPath:    fmt.Sprintf("workspace.terrain.heightmap[%d]", i),
				ActualValue: len(row),
				Expected:    fmt.Sprint(t.Resolution),
			})
			return
		}
		for j, v := range row {
			gridMax = math.Max(gridMax, v)
			if v >= 0 || negativeOK {
				continue
			}
			if t.Type == string(spec.TerrainIsland) && v == terrain.WaterLevel {
				continue
			}
			r.AddError(validation.Result{
				Level:       validation.LevelDocument,
				Message:     fmt.Sprintf("%s heightmap has negative height %.2f at (%d,%d)", t.Type, v, i, j),
				SpecPath:    fmt.Sprintf("workspace.terrain.heightmap[%d][%d]", i, j),
				ActualValue: v,
				Expected:    ">= 0",
			})
			return
		}
	}

	if t.MaxHeight != gridMax {
		r.AddError(validation.Result{
			Level:       validation.LevelDocument,
			Message:     fmt.Sprintf("max_height %.4f does not equal grid maximum %.4f", t.MaxHeight, gridMax),
			SpecPath:    "workspace.terrain.max_height",
			ActualValue: t.MaxHeight,
			Expected:    fmt.Sprintf("%.4f", gridMax),
		})
	}
}

func validateModels(doc *Document, r *validation.Report) {
	for i, m := range doc.Workspace.Models {
		if len(m.Parts) == 0 {
			r.AddWarning(validation.Result{
				Level:    validation.LevelDocument,
				Message:  fmt.Sprintf("model %q has no parts", m.Name),
				SpecPath: fmt.Sprintf("workspace.models[%d].parts", i),
			})
		}
		for j, p := range m.Parts {
			if !p.Size.Positive() {
				r.AddError(validation.Result{
					Level:       validation.LevelDocument,
					Message:     fmt.Sprintf("model %q part %d has non-positive size", m.Name, j),
					SpecPath:    fmt.Sprintf("workspace.models[%d].parts[%d].size", i, j),
					ActualValue: p.Size,
					Expected:    "all dimensions >= 1",
				})
			}
		}
		checkInWorld(doc.Metadata.Size, m.Position, fmt.Sprintf("workspace.models[%d].position", i), r)
	}
}

func validateParts(doc *Document, r *validation.Report) {
	for i, p := range doc.Workspace.Parts {
		path := fmt.Sprintf("workspace.parts[%d]", i)
		if !p.Size.Positive() {
			r.AddError(validation.Result{
				Level:       validation.LevelDocument,
				Message:     fmt.Sprintf("part %q has non-positive size", p.Name),
				SpecPath:    path + ".size",
				ActualValue: p.Size,
				Expected:    "all dimensions >= 1",
			})
		}
		if p.Rotation.Y < 0 || p.Rotation.Y >= 360 || p.Rotation.X != 0 || p.Rotation.Z != 0 {
			r.AddError(validation.Result{
				Level:       validation.LevelDocument,
				Message:     fmt.Sprintf("part %q rotation must be about Y in [0,360)", p.Name),
				SpecPath:    path + ".rotation",
				ActualValue: p.Rotation,
			})
		}
		if p.Position.Y != 0 {
			r.AddWarning(validation.Result{
				Level:       validation.LevelDocument,
				Message:     fmt.Sprintf("part %q is not ground-snapped", p.Name),
				SpecPath:    path + ".position.y",
				ActualValue: p.Position.Y,
				Expected:    "0",
			})
		}
		checkInWorld(doc.Metadata.Size, p.Position, path+".position", r)
	}
}

func checkInWorld(size int, p geo.Vec3, path string, r *validation.Report) {
	if size < 1 {
		return
	}
	lo, hi := geo.WorldBounds(size)
	if p.X < lo || p.X > hi || p.Z < lo || p.Z > hi {
		r.AddWarning(validation.Result{
			Level:       validation.LevelDocument,
			Message:     fmt.Sprintf("position (%d,%d) outside world [%d,%d]", p.X, p.Z, lo, hi),
			SpecPath:    path,
			ActualValue: p,
			Expected:    fmt.Sprintf("x and z in [%d,%d]", lo, hi),
		})
	}
}
