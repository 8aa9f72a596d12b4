package spec

import (
	"fmt"
	"math"
	"regexp"

	"github.com/yksanjo/roblox-world-generator/pkg/validation"
)

// Defaults substituted for absent fields.
const (
	DefaultHeightVariation = 0.5
	DefaultStructureType   = "building"
	DefaultStyle           = "generic"
	DefaultObjectType      = "tree"
	DefaultObjectCount     = 10
	DefaultSpread          = 0.2
	DefaultLighting        = "bright"
	DefaultWeather         = "clear"
	DefaultTheme           = "generic"

	// MaxSpread bounds a group's spread, in world extents.
	MaxSpread = 16.0
	// MaxDimension bounds each structure size axis in studs.
	MaxDimension = 4096
)

var (
	DefaultPosition    = Position{X: 0.5, Y: 0, Z: 0.5}
	DefaultSize        = Size{Width: 20, Height: 30, Depth: 20}
	DefaultColorScheme = []string{"#87CEEB", "#90EE90"}
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Normalize resolves every optional field of s to a concrete value and
// returns the canonical World. It never fails: each substitution is recorded
// in the report as info (absent field) or warning (unusable value). A nil
// spec yields the all-default world.
func Normalize(s *Spec) (*World, *validation.Report) {
	r := validation.NewReport()
	if s == nil {
		s = &Spec{}
	}

	w := &World{
		Terrain:    normalizeTerrain(s.Terrain, r),
		Structures: make([]Structure, 0, len(s.Structures)),
		Objects:    make([]ObjectGroup, 0, len(s.Objects)),
		Atmosphere: normalizeAtmosphere(s.Atmosphere, r),
		Theme:      s.Theme,
	}
	if w.Theme == "" {
		w.Theme = DefaultTheme
		r.AddInfo(defaulted("theme", DefaultTheme))
	}

	for i, req := range s.Structures {
		w.Structures = append(w.Structures, normalizeStructure(i, req, r))
	}
	for i, req := range s.Objects {
		w.Objects = append(w.Objects, normalizeObjectGroup(i, req, r))
	}
	return w, r
}

func normalizeTerrain(t *TerrainRequest, r *validation.Report) Terrain {
	if t == nil {
		r.AddInfo(defaulted("terrain", "plains terrain"))
		t = &TerrainRequest{}
	}

	out := Terrain{HeightVariation: DefaultHeightVariation, Features: dedupe(t.Features)}

	tt, ok := ParseTerrainType(t.Type)
	out.Type = tt
	switch {
	case t.Type == "":
		r.AddInfo(defaulted("terrain.type", string(tt)))
	case !ok:
		r.AddWarning(validation.Result{
			Level:       validation.LevelNormalize,
			Message:     fmt.Sprintf("unknown terrain type %q, generating plains", t.Type),
			SpecPath:    "terrain.type",
			ActualValue: t.Type,
			Substituted: string(tt),
			Suggestions: []string{"use one of mountain, valley, plains, island, desert, forest"},
		})
	}

	if t.HeightVariation == nil {
		r.AddInfo(defaulted("terrain.height_variation", DefaultHeightVariation))
	} else {
		hv := *t.HeightVariation
		out.HeightVariation = clamp01(hv)
		if out.HeightVariation != hv {
			r.AddWarning(clamped("terrain.height_variation", hv, out.HeightVariation, "0-1"))
		}
	}
	return out
}

func normalizeStructure(i int, req StructureRequest, r *validation.Report) Structure {
	path := fmt.Sprintf("structures[%d]", i)

	out := Structure{Type: req.Type, Style: req.Style}
	if out.Type == "" {
		out.Type = DefaultStructureType
		r.AddInfo(defaulted(path+".type", DefaultStructureType))
	}
	out.Kind = StructureKindOf(out.Type)
	if out.Style == "" {
		out.Style = DefaultStyle
		r.AddInfo(defaulted(path+".style", DefaultStyle))
	}

	out.Position = normalizePosition(path, req.Position, r)

	out.Size = DefaultSize
	if req.Size == nil {
		r.AddInfo(defaulted(path+".size", DefaultSize))
	} else {
		out.Size.Width = dimension(path+".size.width", req.Size.Width, DefaultSize.Width, r)
		out.Size.Height = dimension(path+".size.height", req.Size.Height, DefaultSize.Height, r)
		out.Size.Depth = dimension(path+".size.depth", req.Size.Depth, DefaultSize.Depth, r)
	}
	return out
}

func normalizeObjectGroup(i int, req ObjectGroupRequest, r *validation.Report) ObjectGroup {
	path := fmt.Sprintf("objects[%d]", i)

	out := ObjectGroup{Type: req.Type, Count: DefaultObjectCount, Spread: DefaultSpread}
	if out.Type == "" {
		out.Type = DefaultObjectType
		r.AddInfo(defaulted(path+".type", DefaultObjectType))
	}
	out.Kind = ObjectKindOf(out.Type)
	out.Position = normalizePosition(path, req.Position, r)

	switch {
	case req.Count == nil:
		r.AddInfo(defaulted(path+".count", DefaultObjectCount))
	case *req.Count < 1:
		out.Count = 1
		r.AddWarning(clamped(path+".count", *req.Count, out.Count, ">= 1"))
	default:
		out.Count = *req.Count
	}

	switch {
	case req.Spread == nil:
		r.AddInfo(defaulted(path+".spread", DefaultSpread))
	case *req.Spread < 0 || math.IsNaN(*req.Spread):
		out.Spread = 0
		r.AddWarning(clamped(path+".spread", *req.Spread, out.Spread, ">= 0"))
	case *req.Spread > MaxSpread:
		out.Spread = MaxSpread
		r.AddWarning(clamped(path+".spread", *req.Spread, out.Spread, fmt.Sprintf("<= %g", MaxSpread)))
	default:
		out.Spread = *req.Spread
	}
	return out
}

func normalizeAtmosphere(a *AtmosphereRequest, r *validation.Report) Atmosphere {
	if a == nil {
		a = &AtmosphereRequest{}
	}
	out := Atmosphere{Lighting: a.Lighting, Weather: a.Weather, ColorScheme: a.ColorScheme}
	if out.Lighting == "" {
		out.Lighting = DefaultLighting
		r.AddInfo(defaulted("atmosphere.lighting", DefaultLighting))
	}
	if out.Weather == "" {
		out.Weather = DefaultWeather
		r.AddInfo(defaulted("atmosphere.weather", DefaultWeather))
	}
	if len(out.ColorScheme) == 0 {
		out.ColorScheme = append([]string(nil), DefaultColorScheme...)
		r.AddInfo(defaulted("atmosphere.color_scheme", DefaultColorScheme))
		return out
	}
	for i, c := range out.ColorScheme {
		if !hexColor.MatchString(c) {
			r.AddWarning(validation.Result{
				Level:       validation.LevelNormalize,
				Message:     fmt.Sprintf("color %q is not a #RRGGBB hex color; passed through unchanged", c),
				SpecPath:    fmt.Sprintf("atmosphere.color_scheme[%d]", i),
				ActualValue: c,
				Expected:    "#RRGGBB",
			})
		}
	}
	return out
}

func normalizePosition(path string, p *Position, r *validation.Report) Position {
	if p == nil {
		r.AddInfo(defaulted(path+".position", DefaultPosition))
		return DefaultPosition
	}
	out := Position{X: clamp01(p.X), Y: clamp01(p.Y), Z: clamp01(p.Z)}
	if out != *p {
		r.AddWarning(clamped(path+".position", *p, out, "each axis in 0-1"))
	}
	return out
}

func dimension(path string, v float64, def int, r *validation.Report) int {
	if v > MaxDimension {
		r.AddWarning(clamped(path, v, MaxDimension, fmt.Sprintf("<= %d", MaxDimension)))
		return MaxDimension
	}
	if n := math.Round(v); n >= 1 {
		return int(n)
	}
	r.AddWarning(validation.Result{
		Level:       validation.LevelNormalize,
		Message:     fmt.Sprintf("%s must be a positive size, using %d", path, def),
		SpecPath:    path,
		ActualValue: reported(v),
		Expected:    ">= 1",
		Substituted: def,
	})
	return def
}

func defaulted(path string, value any) validation.Result {
	return validation.Result{
		Level:       validation.LevelNormalize,
		Message:     fmt.Sprintf("%s not set, using default", path),
		SpecPath:    path,
		Substituted: value,
	}
}

func clamped(path string, actual, value any, expected string) validation.Result {
	return validation.Result{
		Level:       validation.LevelNormalize,
		Message:     fmt.Sprintf("%s out of range, clamped", path),
		SpecPath:    path,
		ActualValue: reported(actual),
		Expected:    expected,
		Substituted: value,
	}
}

// reported keeps non-finite inputs JSON-encodable in reports.
func reported(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Sprint(x)
		}
	case Position:
		for _, f := range []float64{x.X, x.Y, x.Z} {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Sprintf("%+v", x)
			}
		}
	}
	return v
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
