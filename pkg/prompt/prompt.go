// Package prompt turns free-text world descriptions into world specs.
package prompt

import (
	"context"
	"strings"

	"github.com/yksanjo/roblox-world-generator/pkg/spec"
)

// Complexity is a caller hint for how busy the world should be.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ParseComplexity accepts low, medium or high. Empty means medium.
func ParseComplexity(s string) (Complexity, bool) {
	switch c := Complexity(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ComplexityMedium, true
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return c, true
	default:
		return ComplexityMedium, false
	}
}

// Hints carry optional caller preferences alongside the prompt text.
type Hints struct {
	Style      string
	Complexity Complexity
}

// Translator converts a prompt into a raw world spec. Model-backed
// translators live outside this module; Keyword is the offline fallback.
type Translator interface {
	Translate(ctx context.Context, text string, hints Hints) (*spec.Spec, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, text string, hints Hints) (*spec.Spec, error)

func (f TranslatorFunc) Translate(ctx context.Context, text string, hints Hints) (*spec.Spec, error) {
	return f(ctx, text, hints)
}
