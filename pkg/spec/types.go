package spec

// Spec is a world specification document as produced by a prompt translator.
// Every field is optional; Normalize turns it into a fully populated World.
type Spec struct {
	Terrain    *TerrainRequest      `yaml:"terrain,omitempty" json:"terrain,omitempty"`
	Structures []StructureRequest   `yaml:"structures,omitempty" json:"structures,omitempty"`
	Objects    []ObjectGroupRequest `yaml:"objects,omitempty" json:"objects,omitempty"`
	Atmosphere *AtmosphereRequest   `yaml:"atmosphere,omitempty" json:"atmosphere,omitempty"`
	Theme      string               `yaml:"theme,omitempty" json:"theme,omitempty"`
}

type TerrainRequest struct {
	Type            string   `yaml:"type,omitempty" json:"type,omitempty"`
	HeightVariation *float64 `yaml:"height_variation,omitempty" json:"height_variation,omitempty"`
	Features        []string `yaml:"features,omitempty" json:"features,omitempty"`
}

// Position is a fractional location relative to the world extent; each axis
// is expected in [0,1].
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// SizeRequest is a structure size in world units. Translators sometimes emit
// fractional values, so they are rounded during normalization.
type SizeRequest struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
	Depth  float64 `yaml:"depth" json:"depth"`
}

type StructureRequest struct {
	Type     string       `yaml:"type,omitempty" json:"type,omitempty"`
	Position *Position    `yaml:"position,omitempty" json:"position,omitempty"`
	Size     *SizeRequest `yaml:"size,omitempty" json:"size,omitempty"`
	Style    string       `yaml:"style,omitempty" json:"style,omitempty"`
}

type ObjectGroupRequest struct {
	Type     string    `yaml:"type,omitempty" json:"type,omitempty"`
	Position *Position `yaml:"position,omitempty" json:"position,omitempty"`
	Count    *int      `yaml:"count,omitempty" json:"count,omitempty"`
	Spread   *float64  `yaml:"spread,omitempty" json:"spread,omitempty"`
}

type AtmosphereRequest struct {
	Lighting    string   `yaml:"lighting,omitempty" json:"lighting,omitempty"`
	Weather     string   `yaml:"weather,omitempty" json:"weather,omitempty"`
	ColorScheme []string `yaml:"color_scheme,omitempty" json:"color_scheme,omitempty"`
}

// World is the canonical, fully populated specification consumed by the
// generators. It is only built by Normalize.
type World struct {
	Terrain    Terrain       `json:"terrain"`
	Structures []Structure   `json:"structures"`
	Objects    []ObjectGroup `json:"objects"`
	Atmosphere Atmosphere    `json:"atmosphere"`
	Theme      string        `json:"theme"`
}

type Terrain struct {
	Type            TerrainType `json:"type"`
	HeightVariation float64     `json:"height_variation"`
	Features        []string    `json:"features"`
}

// Size is a structure size in integer world units.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Depth  int `json:"depth"`
}

type Structure struct {
	Type     string        `json:"type"`
	Kind     StructureKind `json:"-"`
	Position Position      `json:"position"`
	Size     Size          `json:"size"`
	Style    string        `json:"style"`
}

type ObjectGroup struct {
	Type     string     `json:"type"`
	Kind     ObjectKind `json:"-"`
	Position Position   `json:"position"`
	Count    int        `json:"count"`
	Spread   float64    `json:"spread"`
}

// Atmosphere is carried through generation untouched.
type Atmosphere struct {
	Lighting    string   `json:"lighting"`
	Weather     string   `json:"weather"`
	ColorScheme []string `json:"color_scheme"`
}
