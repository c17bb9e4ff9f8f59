package steps

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// maxSeconds is the longest duration a step can ask for.
var maxSeconds = float64(math.MaxInt64) / float64(time.Second)

var (
	// ErrMissingSelector is returned for a step that needs a selector and has none.
	ErrMissingSelector = errors.New("command needs a selector string")
	// ErrInvalidStep is returned for a step whose arguments can never succeed.
	ErrInvalidStep = errors.New("invalid step")
)

// Validate checks a step list, descending into loops and chained children.
// Errors name the offending step by its 1-based dotted path, e.g. "3.1".
func Validate(list []Step) error {
	return validateList(list, "")
}

// IsConfigError reports whether err stems from a script defect rather than
// from the page or the browser.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingSelector) || errors.Is(err, ErrInvalidStep)
}

func validateList(list []Step, prefix string) error {
	for i, s := range list {
		if err := validateStep(s, prefix+strconv.Itoa(i+1)); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(s Step, path string) error {
	if s.Kind == nil {
		return fmt.Errorf("step %s: %w: no command type", path, ErrInvalidStep)
	}
	if NeedsSelector(s.Kind) && s.Selector == "" {
		return fmt.Errorf("step %s (%s): %w", path, s.Kind.Tag(), ErrMissingSelector)
	}

	switch k := s.Kind.(type) {
	case NavigateTo:
		if k.URL == "" {
			return fmt.Errorf("step %s: %w: empty URL", path, ErrInvalidStep)
		}
	case ResizeWindow:
		if k.Width <= 0 || k.Height <= 0 {
			return fmt.Errorf("step %s: %w: window size %dx%d", path, ErrInvalidStep, k.Width, k.Height)
		}
	case SwitchToWindowIndex:
		if k.Index < 0 {
			return fmt.Errorf("step %s: %w: negative window index %d", path, ErrInvalidStep, k.Index)
		}
	case SleepSeconds:
		if err := checkSeconds(k.Seconds); err != nil {
			return fmt.Errorf("step %s: %w: duration %w", path, ErrInvalidStep, err)
		}
		if s.Selector != "" {
			return fmt.Errorf("step %s: %w: a sleep takes no selector", path, ErrInvalidStep)
		}
	case WaitForSelector:
		if k.Seconds != nil {
			if err := checkSeconds(*k.Seconds); err != nil {
				return fmt.Errorf("step %s: %w: timeout %w", path, ErrInvalidStep, err)
			}
		}
	case Loop:
		return validateList(k.Steps, path+".")
	case Descend:
		if k.Child != nil {
			return validateStep(*k.Child, path+".1")
		}
	}
	return nil
}

func checkSeconds(v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return fmt.Errorf("%v is not a number of seconds", v)
	case v < 0:
		return fmt.Errorf("%v is negative", v)
	case v > maxSeconds:
		return fmt.Errorf("%v exceeds %.0f seconds", v, maxSeconds)
	}
	return nil
}
