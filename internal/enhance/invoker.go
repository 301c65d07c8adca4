// Package enhance – model invocation.
//
// This file builds the model instruction from the preprocessed input and
// dispatches it to the generative collaborator, racing the call against a
// timeout. The first settlement wins; the loser's eventual settlement is
// discarded (never delivered twice, never panics after the race is decided).
package enhance

import (
	"context"
	"fmt"
	"time"
)

// DefaultInvokeTimeout bounds how long the caller waits for the model.
const DefaultInvokeTimeout = 15 * time.Second

// GenerationConfig carries the fixed sampling parameters sent with every
// model request. Values are configuration constants, never computed.
type GenerationConfig struct {
	Temperature     float32
	TopK            int32
	TopP            float32
	MaxOutputTokens int32
}

// DefaultGenerationConfig returns the app's stock sampling parameters.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 512,
	}
}

// TextGenerator is the generative-text collaborator contract. Implementations
// issue one opaque remote call; connection management and retries are not the
// pipeline's concern.
type TextGenerator interface {
	Generate(ctx context.Context, instruction string, cfg GenerationConfig) (string, error)
}

// Invoker dispatches instructions to a TextGenerator with bounded latency and
// classified failures.
type Invoker struct {
	Gen     TextGenerator
	Timeout time.Duration    // <= 0 means DefaultInvokeTimeout
	Config  GenerationConfig // zero value replaced by DefaultGenerationConfig
}

// BuildInstruction assembles the model instruction from the translated text,
// the detected prompt type's guidance, and the complexity preset.
func BuildInstruction(text string, t PromptType, level Complexity) string {
	return fmt.Sprintf(
		"Transform this prompt into a %s: %q\n\n%s\n\nMake it clear, specific, and well-structured. Keep it under 200 words.",
		level.Description(), text, Guidance(t),
	)
}

// settlement is the outcome of the dispatched model call.
type settlement struct {
	text string
	err  error
}

// Invoke builds the instruction for pre/level and races the model call against
// the configured timeout. On success it returns the raw model output (not
// sanitized here). On failure it returns a classified *Error; when the timer
// wins, the abandoned call's context is cancelled and its eventual settlement
// is dropped into a buffered channel nobody reads.
func (iv *Invoker) Invoke(ctx context.Context, pre Preprocessed, level Complexity) (string, *Error) {
	timeout := iv.Timeout
	if timeout <= 0 {
		timeout = DefaultInvokeTimeout
	}
	cfg := iv.Config
	if cfg == (GenerationConfig{}) {
		cfg = DefaultGenerationConfig()
	}

	instruction := BuildInstruction(pre.Text, pre.Type, level)

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so the late loser never blocks and never reaches the caller.
	done := make(chan settlement, 1)
	go func() {
		text, err := iv.Gen.Generate(callCtx, instruction, cfg)
		done <- settlement{text: text, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s := <-done:
		if s.err != nil {
			return "", ClassifyError(s.err)
		}
		return s.text, nil
	case <-timer.C:
		return "", ClassifyError(errTimedOut{})
	case <-ctx.Done():
		return "", ClassifyError(ctx.Err())
	}
}
