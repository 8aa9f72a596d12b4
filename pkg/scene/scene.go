// Package scene projects a composed world model into the engine-importable
// scene document.
package scene

import (
	"github.com/yksanjo/roblox-world-generator/pkg/geo"
	"github.com/yksanjo/roblox-world-generator/pkg/spec"
	"github.com/yksanjo/roblox-world-generator/pkg/structure"
)

// Version is the document format version.
const Version = "1.0"

// Document is the scene document consumed by the engine importer. Field
// names and nesting are the compatibility surface.
type Document struct {
	Version   string    `json:"version"`
	Metadata  Metadata  `json:"metadata"`
	Workspace Workspace `json:"workspace"`
}

// Metadata holds document-level information. JobID and SavedAt are stamped
// by storage.
type Metadata struct {
	Size        int              `json:"size"`
	Theme       string           `json:"theme"`
	GeneratedAt string           `json:"generated_at"`
	Seed        int64            `json:"seed"`
	Atmosphere  *spec.Atmosphere `json:"atmosphere,omitempty"`
	JobID       string           `json:"job_id,omitempty"`
	SavedAt     string           `json:"saved_at,omitempty"`
}

// Workspace holds the scene content. Terrain is null when terrain was not
// generated.
type Workspace struct {
	Terrain *Terrain `json:"terrain"`
	Parts   []Part   `json:"parts"`
	Models  []Model  `json:"models"`
}

// Terrain is the heightmap block.
type Terrain struct {
	Type       string      `json:"type"`
	Heightmap  [][]float64 `json:"heightmap"`
	Resolution int         `json:"resolution"`
	Scale      float64     `json:"scale"`
	MaxHeight  float64     `json:"max_height"`
}

// Part is one free-standing object instance.
type Part struct {
	Name     string          `json:"name"`
	Shape    structure.Shape `json:"shape"`
	Size     geo.Vec3        `json:"size"`
	Position geo.Vec3        `json:"position"`
	Rotation Rotation        `json:"rotation"`
	Material string          `json:"material"`
	Color    structure.Color `json:"color"`
}

// Rotation is in degrees per axis.
type Rotation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Model is one structure with its parts.
type Model struct {
	Name     string           `json:"name"`
	Parts    []structure.Part `json:"parts"`
	Position geo.Vec3         `json:"position"`
}
