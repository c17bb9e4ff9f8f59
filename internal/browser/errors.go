package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures reported by a Session.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindNotFound
	KindTimeout
	KindStaleElement
	KindSessionInvalid
	KindWindowClosed
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindTimeout:
		return "timeout"
	case KindStaleElement:
		return "stale element"
	case KindSessionInvalid:
		return "invalid session"
	case KindWindowClosed:
		return "no such window"
	default:
		return "protocol error"
	}
}

// IsFatal reports whether a failure of kind k leaves the session unusable.
func IsFatal(k ErrorKind) bool {
	return k == KindSessionInvalid || k == KindWindowClosed
}

// Error is the error type returned by Session operations.
type Error struct {
	Kind     ErrorKind
	Op       string
	Selector string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Selector != "" {
		fmt.Fprintf(&b, " %q", e.Selector)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, op, selector string, err error) *Error {
	return &Error{Kind: kind, Op: op, Selector: selector, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindOther.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindOther
}

// wrap classifies a raw go-rod error. A nil err stays nil.
func wrap(op, selector string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	return NewError(classify(err), op, selector, err)
}

func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return classifyMessage(err.Error())
}

// classifyMessage maps CDP and transport error texts to a kind.
func classifyMessage(msg string) ErrorKind {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "no target with given id"),
		strings.Contains(msg, "target closed"),
		strings.Contains(msg, "page has been closed"):
		return KindWindowClosed
	case strings.Contains(msg, "session with given id not found"),
		strings.Contains(msg, "use of closed network connection"),
		strings.Contains(msg, "connection closed"),
		strings.Contains(msg, "broken pipe"):
		return KindSessionInvalid
	case strings.Contains(msg, "could not find node with given id"),
		strings.Contains(msg, "cannot find context with specified id"),
		strings.Contains(msg, "node with given id does not belong to the document"),
		strings.Contains(msg, "cannot find object with id"):
		return KindStaleElement
	case strings.Contains(msg, "cannot find element"):
		return KindNotFound
	}
	return KindOther
}
