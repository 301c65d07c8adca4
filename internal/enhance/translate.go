// Package enhance – phrase translation.
//
// This file implements the Hindi→English phrase substitution applied before a
// prompt reaches the model. The rule table is a process-wide constant, never
// mutated at runtime, and Translate is pure: same input, same output.
package enhance

import (
	"regexp"
	"strings"
)

// translationRule maps a fixed Hindi phrase to its English replacement.
// Rules are evaluated in declaration order.
type translationRule struct {
	hindi   string
	english string
	re      *regexp.Regexp // case-insensitive, compiled once at init
}

// translationRules is the static substitution table. Keys are unique; order
// only matters when multiple phrases occur in the same input (see Translate).
var translationRules = []translationRule{
	{hindi: "बनाओ", english: "create"},
	{hindi: "लिखो", english: "write"},
	{hindi: "समझाओ", english: "explain"},
	{hindi: "क्या है", english: "what is"},
	{hindi: "विधि बताएं", english: "explain how to make"},
	{hindi: "कैसे बनाएं", english: "how to make"},
}

func init() {
	for i := range translationRules {
		translationRules[i].re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(translationRules[i].hindi))
	}
}

// Translate applies the phrase substitution table to raw user text.
//
// Each rule is tested case-insensitively against the ORIGINAL text, and on a
// match the first occurrence in the original text is replaced. Rules are not
// chained: when several phrases occur in one input, each matching rule
// overwrites the previous rule's output, so only the last matching rule's
// replacement survives. This mirrors the reference behavior deliberately;
// multi-phrase inputs were never guaranteed a full translation.
//
// Inputs containing no configured phrase are returned unchanged.
func Translate(text string) string {
	out := text
	for _, r := range translationRules {
		if !strings.Contains(strings.ToLower(text), strings.ToLower(r.hindi)) {
			continue
		}
		if loc := r.re.FindStringIndex(text); loc != nil {
			out = text[:loc[0]] + r.english + text[loc[1]:]
		}
	}
	return out
}
