// Package world composes terrain, structures and scattered objects into a
// single intermediate world model.
package world

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yksanjo/roblox-world-generator/pkg/noise"
	"github.com/yksanjo/roblox-world-generator/pkg/scatter"
	"github.com/yksanjo/roblox-world-generator/pkg/spec"
	"github.com/yksanjo/roblox-world-generator/pkg/structure"
	"github.com/yksanjo/roblox-world-generator/pkg/terrain"
	"github.com/yksanjo/roblox-world-generator/pkg/validation"
)

const (
	DefaultWorldSize  = 512
	DefaultMaxObjects = 50000
)

var ErrTooManyObjects = errors.New("object count exceeds limit")

// Options controls a single composition run.
type Options struct {
	WorldSize         int
	IncludeTerrain    bool
	IncludeStructures bool
	IncludeObjects    bool

	// Seed fixes the run's PRNG. Nil draws a fresh seed.
	Seed *int64

	Noise noise.Mode

	// MaxObjects caps the total instances across all groups. Zero means
	// DefaultMaxObjects.
	MaxObjects int

	// Observer, if set, is called synchronously before each stage.
	Observer func(Stage)
}

// DefaultOptions enables every generator on a DefaultWorldSize world.
func DefaultOptions() Options {
	return Options{
		WorldSize:         DefaultWorldSize,
		IncludeTerrain:    true,
		IncludeStructures: true,
		IncludeObjects:    true,
		Noise:             noise.ModeUniform,
		MaxObjects:        DefaultMaxObjects,
	}
}

// StageKind names a sub-generator step.
type StageKind string

const (
	StageTerrain    StageKind = "terrain"
	StageStructures StageKind = "structures"
	StageObjects    StageKind = "objects"
)

// Stage reports progress through a run. Index counts from 0 within Kind.
type Stage struct {
	Kind  StageKind
	Index int
	Total int
}

// Model is the intermediate result of one run. It is owned by the caller
// and shares nothing with other runs.
type Model struct {
	Size       int
	Seed       int64
	Terrain    *terrain.Heightmap
	Structures []structure.Structure
	Objects    []scatter.Instance
	Atmosphere spec.Atmosphere
	Theme      string

	// Normalization lists the defaults and clamps applied to the input.
	Normalization *validation.Report
}

// Compose normalizes s and runs every enabled generator against it. The
// context is checked between sub-generators; on cancellation or any failure
// no model is returned.
func Compose(ctx context.Context, s *spec.Spec, opts Options) (*Model, error) {
	w, report := spec.Normalize(s)
	m, err := ComposeWorld(ctx, w, opts)
	if err != nil {
		return nil, err
	}
	m.Normalization = report
	return m, nil
}

// ComposeWorld runs the generators against an already normalized world.
func ComposeWorld(ctx context.Context, w *spec.World, opts Options) (*Model, error) {
	ctx, span := otel.Tracer("worldgen/world").Start(ctx, "world.Compose")
	defer span.End()

	m, err := compose(ctx, w, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("world.size", m.Size),
		attribute.Int64("world.seed", m.Seed),
		attribute.Int("world.structures", len(m.Structures)),
		attribute.Int("world.objects", len(m.Objects)),
	)
	return m, nil
}

func compose(ctx context.Context, w *spec.World, opts Options) (*Model, error) {
	if opts.WorldSize < 1 {
		return nil, fmt.Errorf("%w: got %d", terrain.ErrInvalidWorldSize, opts.WorldSize)
	}
	maxObjects := opts.MaxObjects
	if maxObjects <= 0 {
		maxObjects = DefaultMaxObjects
	}

	seed := noise.RandomSeed()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	rng := noise.NewRand(seed)

	m := &Model{
		Size:       opts.WorldSize,
		Seed:       seed,
		Structures: []structure.Structure{},
		Objects:    []scatter.Instance{},
		Atmosphere: w.Atmosphere,
		Theme:      w.Theme,
	}
	notify := func(k StageKind, i, n int) {
		if opts.Observer != nil {
			opts.Observer(Stage{Kind: k, Index: i, Total: n})
		}
	}

	if opts.IncludeTerrain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		notify(StageTerrain, 0, 1)
		mode, _ := noise.ParseMode(string(opts.Noise))
		hm, err := terrain.Generate(opts.WorldSize, w.Terrain, noise.New(mode, rng))
		if err != nil {
			return nil, fmt.Errorf("generating terrain: %w", err)
		}
		m.Terrain = hm
	}

	if opts.IncludeStructures {
		m.Structures = make([]structure.Structure, 0, len(w.Structures))
		for i, req := range w.Structures {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			notify(StageStructures, i, len(w.Structures))
			m.Structures = append(m.Structures, structure.Build(req, opts.WorldSize))
		}
	}

	if opts.IncludeObjects {
		for i, req := range w.Objects {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if req.Count > maxObjects-len(m.Objects) {
				return nil, fmt.Errorf("%w: group %d would bring the total to %d, limit %d",
					ErrTooManyObjects, i, len(m.Objects)+req.Count, maxObjects)
			}
			notify(StageObjects, i, len(w.Objects))
			m.Objects = append(m.Objects, scatter.Scatter(req, opts.WorldSize, rng)...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
