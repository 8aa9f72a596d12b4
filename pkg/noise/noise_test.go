package noise

import "testing"

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, ok := ParseMode(string(m))
		if !ok || got != m {
			t.Errorf("ParseMode(%q) = %q, %v", m, got, ok)
		}
	}
	if got, ok := ParseMode("Perlin "); !ok || got != ModePerlin {
		t.Errorf("ParseMode should ignore case, got %q %v", got, ok)
	}
	if got, ok := ParseMode("fractal"); ok || got != ModeUniform {
		t.Errorf("unknown mode = %q %v, want uniform false", got, ok)
	}
}

func TestFieldsStayInRange(t *testing.T) {
	ranges := [][2]float64{{-0.2, 0.2}, {-5, 5}, {0, 5}, {5, 15}}
	for _, m := range Modes {
		f := New(m, NewRand(7))
		for i := 0; i < 64; i++ {
			for j := 0; j < 64; j++ {
				for _, r := range ranges {
					v := f.Sample(i, j, r[0], r[1])
					if v < r[0] || v > r[1] {
						t.Fatalf("%s: Sample(%d,%d,%v,%v) = %v out of range", m, i, j, r[0], r[1], v)
					}
				}
			}
		}
	}
}

func TestFieldsReproducible(t *testing.T) {
	for _, m := range Modes {
		a := New(m, NewRand(42))
		b := New(m, NewRand(42))
		for i := 0; i < 16; i++ {
			for j := 0; j < 16; j++ {
				if va, vb := a.Sample(i, j, 0, 10), b.Sample(i, j, 0, 10); va != vb {
					t.Fatalf("%s: same seed diverged at (%d,%d): %v != %v", m, i, j, va, vb)
				}
			}
		}
	}
}

func TestCoherentFieldsVary(t *testing.T) {
	for _, m := range []Mode{ModePerlin, ModeSimplex} {
		f := New(m, NewRand(3))
		first := f.Sample(0, 0, 0, 1)
		varied := false
		for i := 1; i < 40 && !varied; i++ {
			if f.Sample(i, i, 0, 1) != first {
				varied = true
			}
		}
		if !varied {
			t.Errorf("%s field is constant", m)
		}
	}
}

func TestLerpClamps(t *testing.T) {
	if lerp(0, 10, -1) != 0 || lerp(0, 10, 2) != 10 || lerp(0, 10, 0.5) != 5 {
		t.Error("lerp should clamp t to [0,1]")
	}
}
