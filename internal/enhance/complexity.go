// Package enhance implements the prompt-enhancement pipeline: input
// preprocessing (Hindi phrase substitution and prompt-type classification),
// per-session cooldown enforcement, model invocation with a timeout race,
// and structured error classification.
//
// The package is transport-agnostic. It performs no HTTP or persistence work
// itself; the generative model and any distributed cooldown store are injected
// as narrow interfaces so the pipeline is fully testable without network mocks.
package enhance

import "strings"

// Complexity selects one of three fixed instruction presets controlling how
// verbose and structured the enhanced prompt should be.
type Complexity int

const (
	// Basic produces a concise enhancement with minimal details.
	Basic Complexity = iota
	// Intermediate produces a detailed enhancement with clear requirements.
	Intermediate
	// Advanced produces a comprehensive enhancement with extensive context.
	Advanced
)

// complexityDescriptions are the fixed instruction fragments embedded into the
// model instruction, indexed by Complexity.
var complexityDescriptions = [...]string{
	Basic:        "basic: concise with minimal details",
	Intermediate: "intermediate: detailed with clear requirements",
	Advanced:     "advanced: comprehensive with extensive context",
}

// String returns the lowercase preset name ("basic", "intermediate",
// "advanced"). Unknown values render as "intermediate".
func (c Complexity) String() string {
	switch c {
	case Basic:
		return "basic"
	case Advanced:
		return "advanced"
	default:
		return "intermediate"
	}
}

// Description returns the instruction fragment for the preset. Out-of-range
// values fall back to the Intermediate fragment.
func (c Complexity) Description() string {
	if c < Basic || c > Advanced {
		c = Intermediate
	}
	return complexityDescriptions[c]
}

// ParseComplexity maps a client-supplied preset name to a Complexity.
// Matching is case-insensitive; unknown or empty input defaults to
// Intermediate (the app's default slider position).
func ParseComplexity(s string) Complexity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic":
		return Basic
	case "advanced":
		return Advanced
	default:
		return Intermediate
	}
}
