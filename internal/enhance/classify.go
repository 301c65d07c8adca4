// Package enhance – prompt-type classification.
//
// This file infers a coarse category from surface patterns in the (already
// translated) input text. The category selects the guidance fragment injected
// into the model instruction. Rules are an ordered, process-wide constant;
// the first matching rule wins and unmatched input falls back to TypeGeneral.
package enhance

import "regexp"

// PromptType is the coarse category detected from the input text.
type PromptType string

const (
	TypeCreative    PromptType = "creative"
	TypeExplanatory PromptType = "explanatory"
	TypeComparative PromptType = "comparative"
	TypeAnalytical  PromptType = "analytical"
	TypeStructured  PromptType = "structured"
	TypeGeneral     PromptType = "general"
)

// classifierRule pairs a pattern with the category it detects.
type classifierRule struct {
	re   *regexp.Regexp
	kind PromptType
}

// classifierRules is evaluated top to bottom; first match wins. Patterns are
// intentionally loose surface heuristics, not NLP.
var classifierRules = []classifierRule{
	{regexp.MustCompile(`(?i)\b(story|poem|song|script|imagine|fiction)\b`), TypeCreative},
	{regexp.MustCompile(`(?i)\b(compare|versus|difference between)\b|\bvs\.?\b`), TypeComparative},
	{regexp.MustCompile(`(?i)\b(analyze|analyse|evaluate|assess|impact of|pros and cons)\b`), TypeAnalytical},
	{regexp.MustCompile(`(?i)\b(list|steps|ways|methods|how to|guide|recipe)\b`), TypeStructured},
	{regexp.MustCompile(`(?i)\b(explain|what is|what are|describe|define|why)\b`), TypeExplanatory},
}

// typeGuidance is the per-category guidance text embedded into the model
// instruction alongside the complexity preset.
var typeGuidance = map[PromptType]string{
	TypeCreative:    "Encourage vivid detail, tone, and narrative structure.",
	TypeExplanatory: "Ask for a clear explanation with examples and the intended audience level.",
	TypeComparative: "Request explicit comparison criteria and a balanced conclusion.",
	TypeAnalytical:  "Request supporting evidence, trade-offs, and a reasoned conclusion.",
	TypeStructured:  "Request numbered steps or a structured list with prerequisites.",
	TypeGeneral:     "Add context, constraints, and the desired output format.",
}

// Classify returns the detected prompt type for text. It is pure and
// deterministic; empty input classifies as TypeGeneral.
func Classify(text string) PromptType {
	for _, r := range classifierRules {
		if r.re.MatchString(text) {
			return r.kind
		}
	}
	return TypeGeneral
}

// Guidance returns the instruction fragment for a detected type. Unknown
// types receive the general fragment.
func Guidance(t PromptType) string {
	if g, ok := typeGuidance[t]; ok {
		return g
	}
	return typeGuidance[TypeGeneral]
}
