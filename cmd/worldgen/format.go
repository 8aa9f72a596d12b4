package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/yksanjo/roblox-world-generator/pkg/validation"
	"github.com/yksanjo/roblox-world-generator/pkg/world"
)

func printValidationReport(w io.Writer, r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			printResult(w, e)
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "WARNINGS (%d):\n", len(r.Warnings))
		for _, e := range r.Warnings {
			printResult(w, e)
		}
		fmt.Fprintln(w)
	}

	if len(r.Info) > 0 {
		fmt.Fprintf(w, "INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Fprintf(w, "  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintf(w, "Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Fprintf(w, "Result: INVALID (%s)\n", r.Summary)
	}
}

func printResult(w io.Writer, e validation.Result) {
	fmt.Fprintf(w, "  [%s] %s\n", e.Level, e.Message)
	if e.SpecPath != "" && e.ActualValue != nil {
		fmt.Fprintf(w, "    -> %s = %v\n", e.SpecPath, e.ActualValue)
	} else if e.SpecPath != "" {
		fmt.Fprintf(w, "    -> %s\n", e.SpecPath)
	}
	if e.Expected != "" {
		fmt.Fprintf(w, "    expected: %s\n", e.Expected)
	}
	if e.Substituted != nil {
		fmt.Fprintf(w, "    using: %v\n", e.Substituted)
	}
	for _, s := range e.Suggestions {
		fmt.Fprintf(w, "    * %s\n", s)
	}
}

func printGenerationSummary(w io.Writer, m *world.Model, docBytes int, elapsed time.Duration) {
	terrain := "no terrain"
	if m.Terrain != nil {
		terrain = fmt.Sprintf("%s terrain %dx%d", m.Terrain.Type, m.Terrain.Resolution, m.Terrain.Resolution)
	}

	byType := make(map[string]int)
	for _, o := range m.Objects {
		byType[o.Type]++
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Fprintf(w, "World %s studs, seed %d, %s\n", humanize.Comma(int64(m.Size)), m.Seed, terrain)
	fmt.Fprintf(w, "  structures: %d\n", len(m.Structures))
	fmt.Fprintf(w, "  objects:    %s\n", humanize.Comma(int64(len(m.Objects))))
	for _, t := range types {
		fmt.Fprintf(w, "    %-12s %s\n", t, humanize.Comma(int64(byType[t])))
	}
	fmt.Fprintf(w, "  document:   %s in %s\n", humanize.Bytes(uint64(docBytes)), elapsed.Round(time.Millisecond))
}
