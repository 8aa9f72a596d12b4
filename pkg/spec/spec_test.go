package spec

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestLoadExample(t *testing.T) {
	s, err := Load("../../examples/castle-island/world.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Terrain == nil || s.Terrain.Type != "island" {
		t.Fatalf("terrain = %+v, want island", s.Terrain)
	}
	if s.Terrain.HeightVariation == nil || *s.Terrain.HeightVariation != 0.6 {
		t.Errorf("height_variation = %v, want 0.6", s.Terrain.HeightVariation)
	}
	if len(s.Structures) != 3 {
		t.Fatalf("structures = %d, want 3", len(s.Structures))
	}
	if s.Structures[0].Size == nil || s.Structures[0].Size.Height != 80 {
		t.Errorf("castle size = %+v, want height 80", s.Structures[0].Size)
	}
	if len(s.Objects) != 2 {
		t.Fatalf("objects = %d, want 2", len(s.Objects))
	}
	if s.Objects[0].Count == nil || *s.Objects[0].Count != 40 {
		t.Errorf("tree count = %v, want 40", s.Objects[0].Count)
	}
	if s.Theme != "medieval island fortress" {
		t.Errorf("theme = %q", s.Theme)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load("/nonexistent/world.yaml"); err == nil {
		t.Error("expected error for missing spec file")
	}
}

func TestParseJSON(t *testing.T) {
	s, err := Parse([]byte(`{"terrain":{"type":"desert"},"objects":[{"type":"rock","count":3,"spread":0.1}]}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Terrain.Type != "desert" {
		t.Errorf("terrain type = %q, want desert", s.Terrain.Type)
	}
	if *s.Objects[0].Count != 3 || *s.Objects[0].Spread != 0.1 {
		t.Errorf("object group = %+v", s.Objects[0])
	}
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) failed: %v", err)
	}
	if s.Terrain != nil || len(s.Structures) != 0 {
		t.Errorf("expected empty spec, got %+v", s)
	}
}

func TestNormalizeNil(t *testing.T) {
	w, r := Normalize(nil)
	if !r.Valid {
		t.Fatalf("normalization should never produce errors: %v", r.Errors)
	}
	if w.Terrain.Type != TerrainPlains {
		t.Errorf("terrain type = %q, want plains", w.Terrain.Type)
	}
	if w.Terrain.HeightVariation != DefaultHeightVariation {
		t.Errorf("height_variation = %v, want %v", w.Terrain.HeightVariation, DefaultHeightVariation)
	}
	if w.Structures == nil || w.Objects == nil {
		t.Error("structures and objects should be empty, not nil")
	}
	if w.Atmosphere.Lighting != "bright" || w.Atmosphere.Weather != "clear" {
		t.Errorf("atmosphere = %+v", w.Atmosphere)
	}
	if !reflect.DeepEqual(w.Atmosphere.ColorScheme, []string{"#87CEEB", "#90EE90"}) {
		t.Errorf("color_scheme = %v", w.Atmosphere.ColorScheme)
	}
	if w.Theme != "generic" {
		t.Errorf("theme = %q, want generic", w.Theme)
	}
	if len(r.Info) == 0 {
		t.Error("expected info entries for substituted defaults")
	}
}

func TestNormalizeUnknownTerrain(t *testing.T) {
	w, r := Normalize(&Spec{Terrain: &TerrainRequest{Type: "swamp"}})
	if w.Terrain.Type != TerrainPlains {
		t.Errorf("unknown terrain should fall back to plains, got %q", w.Terrain.Type)
	}
	if !r.Valid {
		t.Error("unknown terrain must not be an error")
	}
	if len(r.Warnings) != 1 || r.Warnings[0].SpecPath != "terrain.type" {
		t.Errorf("expected one terrain.type warning, got %+v", r.Warnings)
	}
}

func TestNormalizeClampsHeightVariation(t *testing.T) {
	hv := 1.7
	w, r := Normalize(&Spec{Terrain: &TerrainRequest{Type: "mountain", HeightVariation: &hv}})
	if w.Terrain.HeightVariation != 1 {
		t.Errorf("height_variation = %v, want 1", w.Terrain.HeightVariation)
	}
	if len(r.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(r.Warnings))
	}
}

func TestNormalizeStructureDefaults(t *testing.T) {
	w, _ := Normalize(&Spec{Structures: []StructureRequest{{}}})
	s := w.Structures[0]
	if s.Type != "building" || s.Kind != StructureHouse {
		t.Errorf("type = %q kind = %v, want building/house", s.Type, s.Kind)
	}
	if s.Position != DefaultPosition {
		t.Errorf("position = %+v, want %+v", s.Position, DefaultPosition)
	}
	if s.Size != DefaultSize {
		t.Errorf("size = %+v, want %+v", s.Size, DefaultSize)
	}
	if s.Style != "generic" {
		t.Errorf("style = %q, want generic", s.Style)
	}
}

func TestNormalizeStructureSize(t *testing.T) {
	w, r := Normalize(&Spec{Structures: []StructureRequest{{
		Type:     "tower",
		Position: &Position{X: 1.5, Y: -0.2, Z: 0.25},
		Size:     &SizeRequest{Width: 12.4, Height: 0, Depth: 8},
	}}})
	s := w.Structures[0]
	if s.Kind != StructureOther {
		t.Errorf("tower kind = %v, want other", s.Kind)
	}
	if s.Type != "tower" {
		t.Errorf("type tag should be preserved, got %q", s.Type)
	}
	want := Size{Width: 12, Height: DefaultSize.Height, Depth: 8}
	if s.Size != want {
		t.Errorf("size = %+v, want %+v", s.Size, want)
	}
	if s.Position != (Position{X: 1, Y: 0, Z: 0.25}) {
		t.Errorf("position = %+v, want clamped", s.Position)
	}
	if len(r.Warnings) != 2 {
		t.Errorf("expected 2 warnings (position, height), got %d: %+v", len(r.Warnings), r.Warnings)
	}
}

func TestNormalizeObjectGroup(t *testing.T) {
	zero := 0
	huge := 6000
	neg := -0.5
	w, r := Normalize(&Spec{Objects: []ObjectGroupRequest{
		{},
		{Type: "rock", Count: &zero, Spread: &neg},
		{Type: "lamp", Count: &huge},
	}})

	if g := w.Objects[0]; g.Type != "tree" || g.Count != 10 || g.Spread != 0.2 || g.Kind != ObjectTree {
		t.Errorf("defaults = %+v", g)
	}
	if g := w.Objects[1]; g.Count != 1 || g.Spread != 0 || g.Kind != ObjectRock {
		t.Errorf("clamped = %+v", g)
	}
	if g := w.Objects[2]; g.Count != 6000 || g.Kind != ObjectOther {
		t.Errorf("large counts must pass through, got %+v", g)
	}
	if len(r.Warnings) != 2 {
		t.Errorf("expected 2 warnings (count, spread), got %d", len(r.Warnings))
	}
}

func TestNormalizeBoundsSpread(t *testing.T) {
	inf, nan, wide, ok := math.Inf(1), math.NaN(), 1e12, 3.0
	w, r := Normalize(&Spec{Objects: []ObjectGroupRequest{
		{Spread: &inf},
		{Spread: &nan},
		{Spread: &wide},
		{Spread: &ok},
	}})
	want := []float64{MaxSpread, 0, MaxSpread, 3}
	for i, g := range w.Objects {
		if g.Spread != want[i] {
			t.Errorf("objects[%d].spread = %v, want %v", i, g.Spread, want[i])
		}
	}
	if len(r.Warnings) != 3 {
		t.Errorf("expected 3 warnings, got %d: %+v", len(r.Warnings), r.Warnings)
	}
	if _, err := json.Marshal(r); err != nil {
		t.Errorf("report with non-finite values must encode: %v", err)
	}
}

func TestNormalizeBoundsDimensions(t *testing.T) {
	w, r := Normalize(&Spec{Structures: []StructureRequest{
		{Type: "castle", Size: &SizeRequest{Width: 5e18, Height: math.Inf(1), Depth: math.NaN()}},
	}})
	got := w.Structures[0].Size
	if want := (Size{Width: MaxDimension, Height: MaxDimension, Depth: DefaultSize.Depth}); got != want {
		t.Errorf("size = %+v, want %+v", got, want)
	}
	if len(r.Warnings) != 3 {
		t.Errorf("expected 3 warnings, got %d", len(r.Warnings))
	}
	if _, err := json.Marshal(r); err != nil {
		t.Errorf("report with non-finite values must encode: %v", err)
	}
}

func TestNormalizeAtmosphere(t *testing.T) {
	w, r := Normalize(&Spec{
		Atmosphere: &AtmosphereRequest{Lighting: "dim", ColorScheme: []string{"#123456", "teal"}},
		Theme:      "haunted",
	})
	if w.Atmosphere.Lighting != "dim" || w.Atmosphere.Weather != "clear" {
		t.Errorf("atmosphere = %+v", w.Atmosphere)
	}
	if !reflect.DeepEqual(w.Atmosphere.ColorScheme, []string{"#123456", "teal"}) {
		t.Errorf("color scheme must pass through, got %v", w.Atmosphere.ColorScheme)
	}
	if len(r.Warnings) != 1 {
		t.Errorf("expected a warning for the non-hex color, got %d", len(r.Warnings))
	}
	if w.Theme != "haunted" {
		t.Errorf("theme = %q", w.Theme)
	}
}

func TestNormalizeFeaturesDeduped(t *testing.T) {
	w, _ := Normalize(&Spec{Terrain: &TerrainRequest{Features: []string{"hills", "rivers", "hills", ""}}})
	if !reflect.DeepEqual(w.Terrain.Features, []string{"hills", "rivers"}) {
		t.Errorf("features = %v", w.Terrain.Features)
	}
}

func TestParseTerrainType(t *testing.T) {
	for _, tt := range TerrainTypes {
		got, ok := ParseTerrainType(string(tt))
		if !ok || got != tt {
			t.Errorf("ParseTerrainType(%q) = %q, %v", tt, got, ok)
		}
	}
	if got, ok := ParseTerrainType(" Mountain "); !ok || got != TerrainMountain {
		t.Errorf("case and whitespace should be ignored, got %q %v", got, ok)
	}
	if got, ok := ParseTerrainType(""); ok || got != TerrainPlains {
		t.Errorf("empty tag = %q %v, want plains false", got, ok)
	}
}

func TestStructureKindOf(t *testing.T) {
	cases := map[string]StructureKind{
		"castle":   StructureCastle,
		"house":    StructureHouse,
		"building": StructureHouse,
		"bridge":   StructureOther,
		"":         StructureOther,
	}
	for in, want := range cases {
		if got := StructureKindOf(in); got != want {
			t.Errorf("StructureKindOf(%q) = %v, want %v", in, got, want)
		}
	}
}
