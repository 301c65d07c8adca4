package enhance

// Preprocessed is the output of the preprocessing stage: the phrase-translated
// text and its detected prompt type.
type Preprocessed struct {
	Text string
	Type PromptType
}

// Preprocess runs phrase substitution followed by type classification on raw
// user text. It has no side effects and performs no I/O; callers are expected
// to have rejected empty/whitespace-only input already.
func Preprocess(raw string) Preprocessed {
	translated := Translate(raw)
	return Preprocessed{
		Text: translated,
		Type: Classify(translated),
	}
}
