package executor

import (
	"context"
	"time"

	"github.com/v0xg/webscript/internal/browser"
	"github.com/v0xg/webscript/internal/steps"
)

// Event describes one executed step. Loop steps are not reported themselves;
// the steps of their body are.
type Event struct {
	Path    string // 1-based dotted position, e.g. "2.1"
	Step    steps.Step
	Element browser.Element // element the step acted on, nil for context-free steps
	Err     error
	Elapsed time.Duration
}

// Observer is notified after every executed step, failed or not.
type Observer interface {
	StepDone(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, ev Event)

// StepDone calls f(ctx, ev).
func (f ObserverFunc) StepDone(ctx context.Context, ev Event) { f(ctx, ev) }
