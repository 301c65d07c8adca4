// Package enhance – the pipeline entry point.
//
// Pipeline sequences one submission through validation, the cooldown gate,
// and the model invoker, and converts every failure into a typed Outcome
// before it crosses back to the caller. One Pipeline is constructed per
// active session and owns that session's cooldown state; instances must not
// be shared across users.
package enhance

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Phase is the submission state machine position. A new submission may only
// begin from PhaseIdle; the machine is not re-entrant.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseRateLimiting
	PhaseInvoking
)

// Additional outcome kinds produced by the pipeline itself (never by the
// model collaborator).
const (
	// KindValidation: empty input or missing user; recovered locally.
	KindValidation ErrorKind = "validation_error"
	// KindCooldown: submission arrived inside the cooldown window.
	KindCooldown ErrorKind = "cooldown_active"
	// KindInFlight: a previous submission has not resolved yet.
	KindInFlight ErrorKind = "in_flight"
)

// Request is one user submission. Immutable; discarded after Run returns.
type Request struct {
	Text  string
	Level Complexity
}

// Outcome is the single result of a submission: either the enhanced text or
// exactly one classified, human-readable failure.
type Outcome struct {
	Success    bool
	Text       string
	ErrKind    ErrorKind
	ErrMessage string
	// Retry is the remaining cooldown when ErrKind is KindCooldown.
	Retry time.Duration
}

// Pipeline runs enhancement submissions for one session. Construct with
// NewPipeline; the zero value is not usable.
type Pipeline struct {
	gate    Gate
	invoker *Invoker

	mu    sync.Mutex
	phase Phase

	// progress bookkeeping (cosmetic side channel)
	started atomic.Int64 // unix nanos of the current invocation, 0 when idle
	final   atomic.Int64 // 100 after a success, else 0

	now func() time.Time // test seam
}

// NewPipeline wires a per-session pipeline from its collaborators. A nil gate
// gets an in-memory Cooldown with DefaultCooldown.
func NewPipeline(gate Gate, gen TextGenerator, timeout time.Duration, cfg GenerationConfig) *Pipeline {
	if gate == nil {
		gate = NewCooldown(DefaultCooldown)
	}
	return &Pipeline{
		gate:    gate,
		invoker: &Invoker{Gen: gen, Timeout: timeout, Config: cfg},
		now:     time.Now,
	}
}

// Phase returns the current state machine position.
func (p *Pipeline) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Cooldown returns the session's remaining cooldown for UI countdowns.
func (p *Pipeline) Cooldown(ctx context.Context) time.Duration {
	rem, err := p.gate.Remaining(ctx, p.now())
	if err != nil {
		return 0
	}
	return rem
}

// Progress returns the cosmetic 0–100 progress value. It is time-derived (not
// tied to real model progress), never decreases while a submission is in
// flight, and reports 100 only after a success.
func (p *Pipeline) Progress() int {
	if f := p.final.Load(); f > 0 {
		return int(f)
	}
	start := p.started.Load()
	if start == 0 {
		return 0
	}
	elapsed := p.now().UnixNano() - start
	timeout := p.invoker.Timeout
	if timeout <= 0 {
		timeout = DefaultInvokeTimeout
	}
	pct := int(elapsed * 90 / int64(timeout))
	if pct > 90 {
		pct = 90
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// Run executes one submission end to end. Every failure at every stage is
// converted into the returned Outcome; nothing propagates out as an error or
// panic. Retries are never automatic; each retry is a fresh Run call.
func (p *Pipeline) Run(ctx context.Context, req Request) Outcome {
	// Entry gate: reject overlapping submissions without touching cooldown state.
	p.mu.Lock()
	if p.phase != PhaseIdle {
		p.mu.Unlock()
		return Outcome{
			ErrKind:    KindInFlight,
			ErrMessage: "a request is already in progress",
		}
	}
	p.phase = PhaseValidating
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.phase = PhaseIdle
		p.mu.Unlock()
		p.started.Store(0)
	}()

	// Validating.
	if strings.TrimSpace(req.Text) == "" {
		return Outcome{
			ErrKind:    KindValidation,
			ErrMessage: "please enter a prompt to enhance",
		}
	}

	// RateLimiting: check-and-set happens at dispatch time, exactly once.
	p.setPhase(PhaseRateLimiting)
	if err := p.gate.Acquire(ctx, p.now()); err != nil {
		if ce, ok := err.(*CooldownError); ok {
			return Outcome{
				ErrKind:    KindCooldown,
				ErrMessage: ce.Error(),
				Retry:      ce.Remaining,
			}
		}
		// Gate infrastructure failure (e.g. store unreachable).
		e := ClassifyError(err)
		return Outcome{ErrKind: e.Kind, ErrMessage: e.Message}
	}

	// Invoking.
	p.setPhase(PhaseInvoking)
	p.final.Store(0)
	p.started.Store(p.now().UnixNano())

	pre := Preprocess(req.Text)
	text, enhErr := p.invoker.Invoke(ctx, pre, req.Level)
	if enhErr != nil {
		return Outcome{ErrKind: enhErr.Kind, ErrMessage: enhErr.Message}
	}

	p.final.Store(100)
	return Outcome{Success: true, Text: text}
}

func (p *Pipeline) setPhase(ph Phase) {
	p.mu.Lock()
	p.phase = ph
	p.mu.Unlock()
}
