package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yksanjo/roblox-world-generator/internal/config"
	"github.com/yksanjo/roblox-world-generator/internal/index"
	"github.com/yksanjo/roblox-world-generator/internal/jobs"
	"github.com/yksanjo/roblox-world-generator/internal/metrics"
	"github.com/yksanjo/roblox-world-generator/internal/server"
	"github.com/yksanjo/roblox-world-generator/internal/storage"
	"github.com/yksanjo/roblox-world-generator/internal/telemetry"
	"github.com/yksanjo/roblox-world-generator/pkg/noise"
	"github.com/yksanjo/roblox-world-generator/pkg/preview"
	"github.com/yksanjo/roblox-world-generator/pkg/prompt"
	"github.com/yksanjo/roblox-world-generator/pkg/scene"
	"github.com/yksanjo/roblox-world-generator/pkg/spec"
	"github.com/yksanjo/roblox-world-generator/pkg/validation"
	"github.com/yksanjo/roblox-world-generator/pkg/world"
)

// loadAndValidate reads a spec file and runs schema validation on it.
func loadAndValidate(path string) (*spec.Spec, *validation.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading spec file: %w", err)
	}
	report := validation.ValidateDocument(data)
	if !report.Valid {
		return nil, report, nil
	}
	s, err := spec.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return s, report, nil
}

func runValidate(path string, stdout io.Writer) error {
	s, report, err := loadAndValidate(path)
	if err != nil {
		return err
	}
	if report.Valid {
		_, norm := spec.Normalize(s)
		report.Merge(norm)
	}

	printValidationReport(stdout, report)

	if !report.Valid {
		os.Exit(1)
	}
	return nil
}

func runGenerate(ctx context.Context, path string, f genFlags, stdout, stderr io.Writer) error {
	s, report, err := loadAndValidate(path)
	if err != nil {
		return err
	}
	if !report.Valid {
		printValidationReport(stderr, report)
		return fmt.Errorf("spec has validation errors")
	}
	return generate(ctx, s, f, stdout, stderr)
}

func runPrompt(ctx context.Context, text, style, complexity string, f genFlags, stdout, stderr io.Writer) error {
	c, ok := prompt.ParseComplexity(complexity)
	if !ok {
		return fmt.Errorf("complexity must be one of low, medium, high")
	}
	s, err := prompt.Keyword{}.Translate(ctx, text, prompt.Hints{Style: style, Complexity: c})
	if err != nil {
		return fmt.Errorf("translating prompt: %w", err)
	}
	return generate(ctx, s, f, stdout, stderr)
}

func generate(ctx context.Context, s *spec.Spec, f genFlags, stdout, stderr io.Writer) error {
	mode, ok := noise.ParseMode(f.noise)
	if !ok {
		return fmt.Errorf("unknown noise mode %q", f.noise)
	}
	opts := world.Options{
		WorldSize:         f.size,
		IncludeTerrain:    !f.noTerrain,
		IncludeStructures: !f.noStructures,
		IncludeObjects:    !f.noObjects,
		Noise:             mode,
		MaxObjects:        f.maxObjects,
	}
	if f.seedRequested {
		seed := f.seed
		opts.Seed = &seed
	}

	start := time.Now()
	m, err := world.Compose(ctx, s, opts)
	if err != nil {
		return err
	}
	doc := scene.Project(m)
	elapsed := time.Since(start)

	report := m.Normalization
	if report == nil {
		report = validation.NewReport()
	}
	report.Merge(scene.Validate(doc))
	if len(report.Warnings) > 0 || !report.Valid {
		printValidationReport(stderr, report)
	}
	if !report.Valid {
		return fmt.Errorf("generated document failed validation")
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding scene document: %w", err)
	}
	data = append(data, '\n')
	if err := writeOutput(f.out, data, stdout); err != nil {
		return err
	}

	if f.preview != "" {
		pv, err := json.MarshalIndent(preview.Assemble(doc), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding preview: %w", err)
		}
		if err := os.WriteFile(f.preview, append(pv, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing preview: %w", err)
		}
	}

	printGenerationSummary(stderr, m, len(data), elapsed)
	return nil
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing scene document: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, configPath, addr string) error {
	logger := log.New(os.Stderr, "worldgen: ", log.LstdFlags)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Printf("tracing shutdown: %v", err)
		}
	}()

	store, err := storage.Open(storage.Options{
		Backend:  storage.Backend(cfg.Storage.Backend),
		Dir:      cfg.Storage.Dir,
		Compress: cfg.Storage.Compress,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	var idx jobs.Index
	if !cfg.Index.Disabled {
		sqlite, err := index.OpenSQLite(cfg.Index.Path)
		if err != nil {
			return fmt.Errorf("opening job index: %w", err)
		}
		defer sqlite.Close()
		idx = sqlite
	}

	noiseMode, _ := noise.ParseMode(cfg.Generation.Noise)
	m := metrics.New("worldgen")
	mgr, err := jobs.NewManager(jobs.Options{
		Workers:          cfg.Jobs.Workers,
		QueueSize:        cfg.Jobs.QueueSize,
		Translator:       prompt.Keyword{},
		Store:            store,
		Index:            idx,
		Metrics:          m,
		DefaultWorldSize: cfg.Generation.DefaultWorldSize,
		MaxObjects:       cfg.Generation.MaxObjects,
		Noise:            noiseMode,
		Retention:        cfg.Jobs.Retention,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	srv := server.New(server.Options{Config: cfg, Jobs: mgr, Metrics: m, Logger: logger})
	runErr := srv.Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := mgr.Close(drainCtx); err != nil {
		logger.Printf("closing job manager: %v", err)
	}
	return runErr
}
