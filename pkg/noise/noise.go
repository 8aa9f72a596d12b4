// Package noise supplies the per-cell jitter used by terrain archetypes.
//
// The uniform field reproduces the reference behavior: every sample is an
// independent draw from the run's PRNG, consumed in row-major order. The
// perlin and simplex fields are coherent, so neighbouring cells get similar
// jitter; both are seeded from the run's PRNG and therefore stay reproducible
// under a fixed seed.
package noise

import (
	"math"
	"math/rand"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Mode selects a Field implementation.
type Mode string

const (
	ModeUniform Mode = "uniform"
	ModePerlin  Mode = "perlin"
	ModeSimplex Mode = "simplex"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeUniform, ModePerlin, ModeSimplex}

// ParseMode maps a mode name to a Mode. Unknown or empty names fall back to
// uniform; ok reports whether the name was recognized.
func ParseMode(s string) (m Mode, ok bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeUniform:
		return ModeUniform, true
	case ModePerlin:
		return ModePerlin, true
	case ModeSimplex:
		return ModeSimplex, true
	default:
		return ModeUniform, false
	}
}

// Field yields a jitter value in [lo, hi] for grid cell (i, j).
type Field interface {
	Sample(i, j int, lo, hi float64) float64
}

// Sampling frequency for the coherent fields, in cycles per grid cell.
const frequency = 0.08

// New builds the field for mode. Coherent fields take their seed from r, so
// the field is a deterministic function of r's state.
func New(mode Mode, r *rand.Rand) Field {
	switch mode {
	case ModePerlin:
		return &perlinField{p: perlin.NewPerlin(2, 2, 3, r.Int63())}
	case ModeSimplex:
		return &simplexField{n: opensimplex.NewNormalized(r.Int63())}
	default:
		return Uniform{R: r}
	}
}

// Uniform draws each sample independently from R.
type Uniform struct {
	R *rand.Rand
}

func (u Uniform) Sample(_, _ int, lo, hi float64) float64 {
	return lo + u.R.Float64()*(hi-lo)
}

type perlinField struct {
	p *perlin.Perlin
}

func (f *perlinField) Sample(i, j int, lo, hi float64) float64 {
	// Noise2D is roughly [-1,1] and exactly 0 on integer lattice points.
	v := (f.p.Noise2D(float64(i)*frequency+0.5, float64(j)*frequency+0.5) + 1) / 2
	return lerp(lo, hi, v)
}

type simplexField struct {
	n opensimplex.Noise
}

func (f *simplexField) Sample(i, j int, lo, hi float64) float64 {
	return lerp(lo, hi, f.n.Eval2(float64(i)*frequency, float64(j)*frequency))
}

func lerp(lo, hi, t float64) float64 {
	if math.IsNaN(t) || t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return lo + t*(hi-lo)
}
