package preview

import "github.com/yksanjo/roblox-world-generator/pkg/geo"

// Preview is a top-down summary of a scene document, small enough to ship
// to a map renderer.
type Preview struct {
	Metadata   Metadata      `json:"metadata"`
	Elevation  *Elevation    `json:"elevation"`
	Structures []Footprint   `json:"structures"`
	Objects    ObjectSummary `json:"objects"`
	World      geo.Rect      `json:"world"`
	Bounds     *geo.Rect     `json:"bounds,omitempty"`
}

// Metadata holds world-level summary data.
type Metadata struct {
	Size        int    `json:"size"`
	Theme       string `json:"theme"`
	Seed        int64  `json:"seed"`
	GeneratedAt string `json:"generated_at"`
	JobID       string `json:"job_id,omitempty"`
}

// Elevation is the heightmap averaged down to at most MaxGrid cells a side.
type Elevation struct {
	Type       string      `json:"type"`
	Resolution int         `json:"resolution"`
	CellSize   float64     `json:"cell_size"`
	Min        float64     `json:"min"`
	Max        float64     `json:"max"`
	Grid       [][]float64 `json:"grid"`
}

// Footprint is the ground rectangle of one structure.
type Footprint struct {
	Name     string      `json:"name"`
	Position geo.Point2D `json:"position"`
	Rect     geo.Rect    `json:"rect"`
	Parts    int         `json:"parts"`
}

// ObjectSummary aggregates scattered objects by type.
type ObjectSummary struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
	Extent *geo.Rect      `json:"extent,omitempty"`
}
