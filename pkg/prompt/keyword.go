package prompt

import (
	"context"
	"strings"

	"github.com/yksanjo/roblox-world-generator/pkg/spec"
)

// Keyword matches fixed keyword groups against the lowercased prompt. The
// first matching terrain group wins; at most one structure is produced.
// Matching is by substring, so "woodland" selects forest.
type Keyword struct{}

var terrainKeywords = []struct {
	terrain spec.TerrainType
	words   []string
}{
	{spec.TerrainMountain, []string{"mountain", "hill", "peak"}},
	{spec.TerrainValley, []string{"valley", "canyon"}},
	{spec.TerrainIsland, []string{"island", "beach", "ocean"}},
	{spec.TerrainDesert, []string{"desert", "sand"}},
	{spec.TerrainForest, []string{"forest", "tree", "wood"}},
}

var (
	castleWords = []string{"castle", "fortress"}
	houseWords  = []string{"house", "building", "village"}
)

const keywordStyle = "medieval"

func (Keyword) Translate(ctx context.Context, text string, hints Hints) (*spec.Spec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lower := strings.ToLower(text)

	tt := spec.TerrainPlains
	for _, g := range terrainKeywords {
		if containsAny(lower, g.words) {
			tt = g.terrain
			break
		}
	}

	style := keywordStyle
	if hints.Style != "" {
		style = hints.Style
	}

	var structures []spec.StructureRequest
	center := &spec.Position{X: 0.5, Y: 0, Z: 0.5}
	switch {
	case containsAny(lower, castleWords):
		structures = append(structures, spec.StructureRequest{
			Type:     "castle",
			Position: center,
			Size:     &spec.SizeRequest{Width: 50, Height: 80, Depth: 50},
			Style:    style,
		})
	case containsAny(lower, houseWords):
		structures = append(structures, spec.StructureRequest{
			Type:     "house",
			Position: center,
			Size:     &spec.SizeRequest{Width: 20, Height: 30, Depth: 20},
			Style:    style,
		})
	}

	hv := spec.DefaultHeightVariation
	return &spec.Spec{
		Terrain: &spec.TerrainRequest{
			Type:            string(tt),
			HeightVariation: &hv,
			Features:        []string{},
		},
		Structures: structures,
		Objects:    []spec.ObjectGroupRequest{},
		Atmosphere: &spec.AtmosphereRequest{
			Lighting:    spec.DefaultLighting,
			Weather:     spec.DefaultWeather,
			ColorScheme: append([]string(nil), spec.DefaultColorScheme...),
		},
		Theme: text,
	}, nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
