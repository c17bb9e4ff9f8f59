// Package steps defines the declarative step vocabulary interpreted by the
// executor and its YAML representation.
package steps

// Step is a single instruction of a script. The selector is optional; an
// empty string means no selector was given.
type Step struct {
	Selector string
	Kind     Kind
}

// Kind is the closed set of step variants.
type Kind interface {
	// Tag returns the name the variant carries in script files.
	Tag() string
	isKind()
}

// NavigateTo loads a URL in the active window.
type NavigateTo struct{ URL string }

// Loop re-runs its body until it completes without a retryable failure.
type Loop struct{ Steps []Step }

// ResizeWindow sets the outer size of the active window.
type ResizeWindow struct{ Width, Height int }

// ScrollSelectorIntoView scrolls the first element matching the selector into view.
type ScrollSelectorIntoView struct{}

// SleepSeconds pauses unconditionally.
type SleepSeconds struct{ Seconds float64 }

// SwitchToWindowIndex activates the n-th open window.
type SwitchToWindowIndex struct{ Index int }

// LeaveFrame returns to the parent browsing context.
type LeaveFrame struct{}

// DumpPageSource writes the current page source to the log.
type DumpPageSource struct{}

// WaitForSelector blocks until the selector matches. A nil Seconds means the
// executor's default timeout; an explicit zero checks once.
type WaitForSelector struct{ Seconds *float64 }

// WaitUpTo returns a WaitForSelector bounded by seconds.
func WaitUpTo(seconds float64) WaitForSelector {
	return WaitForSelector{Seconds: &seconds}
}

// ClearField empties an input element.
type ClearField struct{}

// EnterFrame switches into the frame element.
type EnterFrame struct{}

// ClickUntilURLChanges clicks until the URL differs from the one seen before
// the first click.
type ClickUntilURLChanges struct{}

// ClickUntilPageSourceChanges clicks until the page source differs from the
// one seen before the first click.
type ClickUntilPageSourceChanges struct{}

// Click clicks the element.
type Click struct{}

// TypeText sends keystrokes to the element.
type TypeText struct{ Text string }

// Descend makes the found element the search scope of the following step.
// Child, when set, is that following step.
type Descend struct{ Child *Step }

// AssertPresent only checks that the selector matches.
type AssertPresent struct{}

func (NavigateTo) Tag() string                  { return "GoTo" }
func (Loop) Tag() string                        { return "Loop" }
func (ResizeWindow) Tag() string                { return "ChangeWindowSize" }
func (ScrollSelectorIntoView) Tag() string      { return "ScrollIntoView" }
func (SleepSeconds) Tag() string                { return "WaitForSeconds" }
func (SwitchToWindowIndex) Tag() string         { return "ChangeWindow" }
func (LeaveFrame) Tag() string                  { return "LeaveFrame" }
func (DumpPageSource) Tag() string              { return "PrintSource" }
func (ClearField) Tag() string                  { return "Clear" }
func (EnterFrame) Tag() string                  { return "EnterFrame" }
func (ClickUntilURLChanges) Tag() string        { return "ClickUntilNavigation" }
func (ClickUntilPageSourceChanges) Tag() string { return "ClickUntilDomChanged" }
func (Click) Tag() string                       { return "Click" }
func (TypeText) Tag() string                    { return "Input" }
func (Descend) Tag() string                     { return "Recursive" }
func (AssertPresent) Tag() string               { return "Check" }

// Tag is "Wait" for the default timeout and "WaitForSeconds" otherwise.
func (k WaitForSelector) Tag() string {
	if k.Seconds == nil {
		return "Wait"
	}
	return "WaitForSeconds"
}

func (NavigateTo) isKind()                  {}
func (Loop) isKind()                        {}
func (ResizeWindow) isKind()                {}
func (ScrollSelectorIntoView) isKind()      {}
func (SleepSeconds) isKind()                {}
func (SwitchToWindowIndex) isKind()         {}
func (LeaveFrame) isKind()                  {}
func (DumpPageSource) isKind()              {}
func (WaitForSelector) isKind()             {}
func (ClearField) isKind()                  {}
func (EnterFrame) isKind()                  {}
func (ClickUntilURLChanges) isKind()        {}
func (ClickUntilPageSourceChanges) isKind() {}
func (Click) isKind()                       {}
func (TypeText) isKind()                    {}
func (Descend) isKind()                     {}
func (AssertPresent) isKind()               {}

// NeedsElement reports whether executing k first resolves the step's
// selector to an element.
func NeedsElement(k Kind) bool {
	switch k.(type) {
	case ClearField, EnterFrame, ClickUntilURLChanges, ClickUntilPageSourceChanges,
		Click, TypeText, Descend, AssertPresent:
		return true
	}
	return false
}

// NeedsSelector reports whether a step of kind k is invalid without a selector.
func NeedsSelector(k Kind) bool {
	switch k.(type) {
	case ScrollSelectorIntoView, WaitForSelector:
		return true
	}
	return NeedsElement(k)
}

// Child returns the step chained under a Descend, or nil.
func (s Step) Child() *Step {
	if d, ok := s.Kind.(Descend); ok {
		return d.Child
	}
	return nil
}
