// Package executor interprets step scripts against a browser session.
//
// A sequence of steps is run left to right with a single element slot
// threaded between them: element steps resolve their selector inside the
// slot's element (or from the document root when the slot is empty), and
// Descend fills the slot for the step that follows. Loop bodies get their own
// empty slot and are re-run from their first step until they pass or fail
// with an error the session cannot recover from.
package executor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/v0xg/webscript/internal/browser"
	"github.com/v0xg/webscript/internal/steps"
	"go.uber.org/zap"
)

// DefaultWaitTimeout bounds WaitForSelector steps that carry no timeout.
const DefaultWaitTimeout = 30 * time.Second

const scrollIntoViewJS = `(selector) => document.querySelector(selector).scrollIntoView()`

// Session is the browser surface the executor drives. Every call blocks
// until the browser acknowledged it.
type Session interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	Find(ctx context.Context, selector string, within browser.Element) (browser.Element, error)
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (browser.Element, error)
	Click(ctx context.Context, el browser.Element) error
	SendKeys(ctx context.Context, el browser.Element, text string) error
	Clear(ctx context.Context, el browser.Element) error
	Windows(ctx context.Context) ([]string, error)
	SwitchToWindow(ctx context.Context, handle string) error
	EnterFrame(ctx context.Context, el browser.Element) error
	EnterParentFrame(ctx context.Context) error
	ResizeWindow(ctx context.Context, width, height int) error
	ExecuteScript(ctx context.Context, script string, args ...interface{}) error
}

// Options configures execution behavior
type Options struct {
	WaitTimeout time.Duration       // default bound for WaitForSelector
	Sleep       func(time.Duration) // used by SleepSeconds; time.Sleep when nil
	Observer    Observer
}

// Executor runs steps against one session. It keeps no state between calls
// besides its configuration.
type Executor struct {
	session Session
	logger  *zap.Logger
	opts    Options
}

// New creates an executor for the session.
func New(session Session, logger *zap.Logger, opts Options) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Executor{
		session: session,
		logger:  logger.With(zap.String("component", "executor")),
		opts:    opts,
	}
}

// Run executes the steps in order and stops at the first error.
func (e *Executor) Run(ctx context.Context, list []steps.Step) error {
	return e.run(ctx, list, "")
}

// Execute runs a single step with elem as the search scope and returns the
// scope for the next step. A chained Descend child is not run.
func (e *Executor) Execute(ctx context.Context, elem browser.Element, step steps.Step) (browser.Element, error) {
	return e.execute(ctx, elem, step, "1")
}

func (e *Executor) run(ctx context.Context, list []steps.Step, prefix string) error {
	var elem browser.Element
	for i := range list {
		path := prefix + strconv.Itoa(i+1)
		for step := &list[i]; step != nil; step = step.Child() {
			next, err := e.execute(ctx, elem, *step, path)
			if err != nil {
				if step.Kind == nil {
					return fmt.Errorf("step %s: %w", path, err)
				}
				return fmt.Errorf("step %s (%s): %w", path, step.Kind.Tag(), err)
			}
			elem = next
			path += ".1"
		}
	}
	return nil
}

func (e *Executor) execute(ctx context.Context, elem browser.Element, step steps.Step, path string) (browser.Element, error) {
	if step.Kind == nil {
		return nil, fmt.Errorf("%w: no command type", steps.ErrInvalidStep)
	}

	e.logger.Debug("executing step",
		zap.String("step", path),
		zap.String("command", step.Kind.Tag()),
		zap.String("selector", step.Selector))

	start := time.Now()
	next, resolved, err := e.dispatch(ctx, elem, step, path)

	if _, isLoop := step.Kind.(steps.Loop); !isLoop && e.opts.Observer != nil {
		e.opts.Observer.StepDone(ctx, Event{
			Path:    path,
			Step:    step,
			Element: resolved,
			Err:     err,
			Elapsed: time.Since(start),
		})
	}
	return next, err
}

// dispatch returns the next element context and the element the step acted on.
func (e *Executor) dispatch(ctx context.Context, elem browser.Element, step steps.Step, path string) (browser.Element, browser.Element, error) {
	switch k := step.Kind.(type) {
	case steps.NavigateTo:
		return elem, nil, e.session.Navigate(ctx, k.URL)

	case steps.Loop:
		return elem, nil, e.loop(ctx, k.Steps, path)

	case steps.ResizeWindow:
		return elem, nil, e.session.ResizeWindow(ctx, k.Width, k.Height)

	case steps.ScrollSelectorIntoView:
		selector, err := selectorOf(step)
		if err != nil {
			return elem, nil, err
		}
		return elem, nil, e.session.ExecuteScript(ctx, scrollIntoViewJS, selector)

	case steps.SleepSeconds:
		e.opts.Sleep(seconds(k.Seconds))
		return elem, nil, nil

	case steps.SwitchToWindowIndex:
		return elem, nil, e.switchWindow(ctx, k.Index)

	case steps.LeaveFrame:
		return elem, nil, e.session.EnterParentFrame(ctx)

	case steps.DumpPageSource:
		source, err := e.session.PageSource(ctx)
		if err != nil {
			return elem, nil, err
		}
		e.logger.Info("page source", zap.String("step", path), zap.String("source", source))
		return elem, nil, nil

	case steps.WaitForSelector:
		selector, err := selectorOf(step)
		if err != nil {
			return elem, nil, err
		}
		timeout := e.opts.WaitTimeout
		if k.Seconds != nil {
			timeout = seconds(*k.Seconds)
		}
		_, err = e.session.WaitFor(ctx, selector, timeout)
		return elem, nil, err
	}

	return e.dispatchElement(ctx, elem, step)
}

func (e *Executor) dispatchElement(ctx context.Context, elem browser.Element, step steps.Step) (browser.Element, browser.Element, error) {
	selector, err := selectorOf(step)
	if err != nil {
		return nil, nil, err
	}
	found, err := e.session.Find(ctx, selector, elem)
	if err != nil {
		return nil, nil, err
	}

	switch k := step.Kind.(type) {
	case steps.ClearField:
		return nil, found, e.session.Clear(ctx, found)
	case steps.EnterFrame:
		return nil, found, e.session.EnterFrame(ctx, found)
	case steps.Click:
		return nil, found, e.session.Click(ctx, found)
	case steps.ClickUntilURLChanges:
		return nil, found, e.clickUntilChanged(ctx, found, selector, e.session.CurrentURL)
	case steps.ClickUntilPageSourceChanges:
		return nil, found, e.clickUntilChanged(ctx, found, selector, e.session.PageSource)
	case steps.TypeText:
		return nil, found, e.session.SendKeys(ctx, found, k.Text)
	case steps.Descend:
		return found, found, nil
	case steps.AssertPresent:
		return nil, found, nil
	}
	return nil, nil, fmt.Errorf("%w: unsupported command %s", steps.ErrInvalidStep, step.Kind.Tag())
}

// clickUntilChanged clicks el until snapshot differs from its value before
// the first click. The element is looked up again from the document root
// after every click that changed nothing, since the click may have replaced it.
func (e *Executor) clickUntilChanged(ctx context.Context, el browser.Element, selector string, snapshot func(context.Context) (string, error)) error {
	baseline, err := snapshot(ctx)
	if err != nil {
		return err
	}
	for clicks := 1; ; clicks++ {
		if err := e.session.Click(ctx, el); err != nil {
			return err
		}
		current, err := snapshot(ctx)
		if err != nil {
			return err
		}
		if current != baseline {
			return nil
		}
		e.logger.Debug("click changed nothing, clicking again",
			zap.String("selector", selector),
			zap.Int("clicks", clicks))
		if el, err = e.session.Find(ctx, selector, nil); err != nil {
			return err
		}
	}
}

func (e *Executor) switchWindow(ctx context.Context, index int) error {
	handles, err := e.session.Windows(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(handles) {
		return fmt.Errorf("couldn't find window %d, %d open", index, len(handles))
	}
	return e.session.SwitchToWindow(ctx, handles[index])
}

func selectorOf(step steps.Step) (string, error) {
	if step.Selector == "" {
		return "", steps.ErrMissingSelector
	}
	return step.Selector, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
