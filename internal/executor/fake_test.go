package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/v0xg/webscript/internal/browser"
)

type fakeElement struct {
	id       int
	selector string
}

func (e *fakeElement) Selector() string { return e.selector }

func (e *fakeElement) String() string { return fmt.Sprintf("%s#%d", e.selector, e.id) }

// fakeSession records every call as a line in calls and answers from
// scripted queues.
type fakeSession struct {
	calls  []string
	nextID int

	missing   map[string]bool    // selectors Find never matches
	findErrs  map[string][]error // consumed one per Find of that selector
	clickErrs []error
	waitErrs  []error
	urls      []string // successive CurrentURL answers, the last one repeats
	sources   []string // successive PageSource answers, the last one repeats
	windows   []string
	switchErr error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		missing:  map[string]bool{},
		findErrs: map[string][]error{},
	}
}

func (f *fakeSession) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeSession) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.record("navigate %s", url)
	return nil
}

func (f *fakeSession) CurrentURL(ctx context.Context) (string, error) {
	f.record("url")
	return pop(&f.urls), nil
}

func (f *fakeSession) PageSource(ctx context.Context) (string, error) {
	f.record("source")
	return pop(&f.sources), nil
}

func (f *fakeSession) Find(ctx context.Context, selector string, within browser.Element) (browser.Element, error) {
	if within != nil {
		f.record("find %s within %s", selector, within)
	} else {
		f.record("find %s", selector)
	}
	if q := f.findErrs[selector]; len(q) > 0 {
		err := q[0]
		f.findErrs[selector] = q[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.missing[selector] {
		return nil, browser.NewError(browser.KindNotFound, "find", selector, nil)
	}
	f.nextID++
	return &fakeElement{id: f.nextID, selector: selector}, nil
}

func (f *fakeSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) (browser.Element, error) {
	f.record("wait %s %s", selector, timeout)
	if len(f.waitErrs) > 0 {
		err := f.waitErrs[0]
		f.waitErrs = f.waitErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.nextID++
	return &fakeElement{id: f.nextID, selector: selector}, nil
}

func (f *fakeSession) Click(ctx context.Context, el browser.Element) error {
	f.record("click %s", el)
	if len(f.clickErrs) > 0 {
		err := f.clickErrs[0]
		f.clickErrs = f.clickErrs[1:]
		return err
	}
	return nil
}

func (f *fakeSession) SendKeys(ctx context.Context, el browser.Element, text string) error {
	f.record("keys %s %q", el, text)
	return nil
}

func (f *fakeSession) Clear(ctx context.Context, el browser.Element) error {
	f.record("clear %s", el)
	return nil
}

func (f *fakeSession) Windows(ctx context.Context) ([]string, error) {
	f.record("windows")
	return f.windows, nil
}

func (f *fakeSession) SwitchToWindow(ctx context.Context, handle string) error {
	f.record("switch %s", handle)
	return f.switchErr
}

func (f *fakeSession) EnterFrame(ctx context.Context, el browser.Element) error {
	f.record("enter frame %s", el)
	return nil
}

func (f *fakeSession) EnterParentFrame(ctx context.Context) error {
	f.record("leave frame")
	return nil
}

func (f *fakeSession) ResizeWindow(ctx context.Context, width, height int) error {
	f.record("resize %dx%d", width, height)
	return nil
}

func (f *fakeSession) ExecuteScript(ctx context.Context, script string, args ...interface{}) error {
	f.record("script %v", args)
	return nil
}

func pop(q *[]string) string {
	if len(*q) == 0 {
		return ""
	}
	v := (*q)[0]
	if len(*q) > 1 {
		*q = (*q)[1:]
	}
	return v
}
