package scene

import (
	"time"

	"github.com/yksanjo/roblox-world-generator/pkg/spec"
	"github.com/yksanjo/roblox-world-generator/pkg/structure"
	"github.com/yksanjo/roblox-world-generator/pkg/world"
)

// Project converts m into a scene document stamped with the current time.
func Project(m *world.Model) *Document {
	return ProjectAt(m, time.Now())
}

// ProjectAt converts m into a scene document stamped with t.
func ProjectAt(m *world.Model, t time.Time) *Document {
	atmosphere := m.Atmosphere
	doc := &Document{
		Version: Version,
		Metadata: Metadata{
			Size:        m.Size,
			Theme:       m.Theme,
			GeneratedAt: t.UTC().Format(time.RFC3339Nano),
			Seed:        m.Seed,
			Atmosphere:  &atmosphere,
		},
		Workspace: Workspace{
			Parts:  make([]Part, 0, len(m.Objects)),
			Models: make([]Model, 0, len(m.Structures)),
		},
	}

	if hm := m.Terrain; hm != nil {
		doc.Workspace.Terrain = &Terrain{
			Type:       string(hm.Type),
			Heightmap:  hm.Heights,
			Resolution: hm.Resolution,
			Scale:      hm.Scale(m.Size),
			MaxHeight:  hm.MaxHeight,
		}
	}

	for _, s := range m.Structures {
		parts := s.Parts
		if parts == nil {
			parts = []structure.Part{}
		}
		doc.Workspace.Models = append(doc.Workspace.Models, Model{
			Name:     s.Type,
			Parts:    parts,
			Position: s.Position,
		})
	}

	for _, o := range m.Objects {
		doc.Workspace.Parts = append(doc.Workspace.Parts, Part{
			Name:     o.Type,
			Shape:    structure.ShapeBlock,
			Size:     o.Size,
			Position: o.Position,
			Rotation: Rotation{Y: o.Rotation},
			Material: MaterialFor(o.Kind),
			Color:    ColorFor(o.Kind),
		})
	}
	return doc
}

// MaterialFor returns the engine material of an object kind.
func MaterialFor(k spec.ObjectKind) string {
	switch k {
	case spec.ObjectTree, spec.ObjectFurniture:
		return "Wood"
	case spec.ObjectRock:
		return "Rock"
	default:
		return "Plastic"
	}
}

// ColorFor returns the RGB color of an object kind.
func ColorFor(k spec.ObjectKind) structure.Color {
	switch k {
	case spec.ObjectTree:
		return structure.Color{34, 139, 34}
	case spec.ObjectRock:
		return structure.Color{128, 128, 128}
	case spec.ObjectFurniture:
		return structure.Color{139, 90, 43}
	case spec.ObjectDecoration:
		return structure.Color{255, 215, 0}
	default:
		return structure.Color{200, 200, 200}
	}
}
