package spec

import "strings"

// TerrainType selects a terrain archetype.
type TerrainType string

const (
	TerrainMountain TerrainType = "mountain"
	TerrainValley   TerrainType = "valley"
	TerrainPlains   TerrainType = "plains"
	TerrainIsland   TerrainType = "island"
	TerrainDesert   TerrainType = "desert"
	TerrainForest   TerrainType = "forest"
)

// TerrainTypes lists every archetype in a stable order.
var TerrainTypes = []TerrainType{
	TerrainMountain, TerrainValley, TerrainPlains,
	TerrainIsland, TerrainDesert, TerrainForest,
}

// ParseTerrainType maps a free-text terrain tag to an archetype. Unknown or
// empty tags map to plains; ok reports whether the tag was recognized.
func ParseTerrainType(s string) (t TerrainType, ok bool) {
	switch TerrainType(strings.ToLower(strings.TrimSpace(s))) {
	case TerrainMountain:
		return TerrainMountain, true
	case TerrainValley:
		return TerrainValley, true
	case TerrainPlains:
		return TerrainPlains, true
	case TerrainIsland:
		return TerrainIsland, true
	case TerrainDesert:
		return TerrainDesert, true
	case TerrainForest:
		return TerrainForest, true
	default:
		return TerrainPlains, false
	}
}

// StructureKind groups structure types that share a part layout.
type StructureKind int

const (
	StructureOther StructureKind = iota
	StructureCastle
	StructureHouse
)

// StructureKindOf maps a structure type tag to its layout family. Both
// "house" and "building" build as a house.
func StructureKindOf(structType string) StructureKind {
	switch strings.ToLower(strings.TrimSpace(structType)) {
	case "castle":
		return StructureCastle
	case "house", "building":
		return StructureHouse
	default:
		return StructureOther
	}
}

// ObjectKind selects the size, material and color tables for scattered objects.
type ObjectKind int

const (
	ObjectOther ObjectKind = iota
	ObjectTree
	ObjectRock
	ObjectFurniture
	ObjectDecoration
)

func ObjectKindOf(objType string) ObjectKind {
	switch strings.ToLower(strings.TrimSpace(objType)) {
	case "tree":
		return ObjectTree
	case "rock":
		return ObjectRock
	case "furniture":
		return ObjectFurniture
	case "decoration":
		return ObjectDecoration
	default:
		return ObjectOther
	}
}

func (k ObjectKind) String() string {
	switch k {
	case ObjectTree:
		return "tree"
	case ObjectRock:
		return "rock"
	case ObjectFurniture:
		return "furniture"
	case ObjectDecoration:
		return "decoration"
	default:
		return "other"
	}
}
