package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yksanjo/roblox-world-generator/pkg/scene"
)

const exampleSpec = "../../examples/castle-island/world.yaml"

func testFlags(dir string) genFlags {
	return genFlags{
		size:          256,
		seed:          99,
		seedRequested: true,
		noise:         "uniform",
		maxObjects:    50000,
		out:           filepath.Join(dir, "world.json"),
		preview:       filepath.Join(dir, "preview.json"),
	}
}

func TestGenerateExample(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	if err := runGenerate(context.Background(), exampleSpec, testFlags(dir), &stdout, &stderr); err != nil {
		t.Fatalf("runGenerate: %v\n%s", err, stderr.String())
	}

	data, err := os.ReadFile(filepath.Join(dir, "world.json"))
	if err != nil {
		t.Fatal(err)
	}
	var doc scene.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding document: %v", err)
	}
	if doc.Metadata.Seed != 99 || doc.Metadata.Size != 256 {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
	if len(doc.Workspace.Models) != 3 {
		t.Errorf("models = %d, want 3", len(doc.Workspace.Models))
	}
	if len(doc.Workspace.Parts) != 55 {
		t.Errorf("parts = %d, want 55", len(doc.Workspace.Parts))
	}
	if _, err := os.Stat(filepath.Join(dir, "preview.json")); err != nil {
		t.Errorf("preview not written: %v", err)
	}
	if stdout.Len() != 0 {
		t.Error("document should go to the file, not stdout")
	}
	if !strings.Contains(stderr.String(), "seed 99") {
		t.Errorf("summary missing seed:\n%s", stderr.String())
	}
}

func TestPromptIsReproducible(t *testing.T) {
	run := func() scene.Workspace {
		f := testFlags(t.TempDir())
		f.out = "-"
		f.preview = ""
		var stdout, stderr bytes.Buffer
		if err := runPrompt(context.Background(), "a castle in the desert", "", "high", f, &stdout, &stderr); err != nil {
			t.Fatalf("runPrompt: %v", err)
		}
		var doc scene.Document
		if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
			t.Fatalf("decoding stdout: %v", err)
		}
		return doc.Workspace
	}

	a, b := run(), run()
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Error("same seed produced different workspaces")
	}
	if a.Terrain == nil || a.Terrain.Type != "desert" {
		t.Errorf("terrain = %+v, want desert", a.Terrain)
	}
}

func TestGenerateRejectsBadFlags(t *testing.T) {
	f := testFlags(t.TempDir())
	f.noise = "fractal"
	var out bytes.Buffer
	if err := runGenerate(context.Background(), exampleSpec, f, &out, &out); err == nil {
		t.Error("expected error for unknown noise mode")
	}

	f = testFlags(t.TempDir())
	if err := runPrompt(context.Background(), "x", "", "extreme", f, &out, &out); err == nil {
		t.Error("expected error for unknown complexity")
	}

	if err := runGenerate(context.Background(), "/nonexistent.yaml", f, &out, &out); err == nil {
		t.Error("expected error for missing spec file")
	}
}
