package world

import (
	"context"
	"fmt"
	"testing"

	"github.com/yksanjo/roblox-world-generator/pkg/spec"
)

// specWithObjects builds a spec with the given number of object groups of
// 500 instances each.
func specWithObjects(groups int) *spec.Spec {
	s := &spec.Spec{
		Terrain: &spec.TerrainRequest{Type: "mountain"},
		Structures: []spec.StructureRequest{
			{Type: "castle"}, {Type: "house"}, {Type: "building"}, {Type: "tower"},
		},
	}
	for i := 0; i < groups; i++ {
		n := 500
		s.Objects = append(s.Objects, spec.ObjectGroupRequest{
			Type:     []string{"tree", "rock", "furniture", "decoration"}[i%4],
			Position: &spec.Position{X: float64(i%10) / 10, Z: float64(i/10) / 10},
			Count:    &n,
		})
	}
	return s
}

func BenchmarkCompose(b *testing.B) {
	for _, size := range []int{512, 2048} {
		for _, groups := range []int{1, 20, 100} {
			b.Run(fmt.Sprintf("size=%d/groups=%d", size, groups), func(b *testing.B) {
				s := specWithObjects(groups)
				o := DefaultOptions()
				o.WorldSize = size
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := Compose(context.Background(), s, o); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
