package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFatal(t *testing.T) {
	fatal := map[ErrorKind]bool{
		KindOther:          false,
		KindNotFound:       false,
		KindTimeout:        false,
		KindStaleElement:   false,
		KindSessionInvalid: true,
		KindWindowClosed:   true,
	}
	for kind, want := range fatal {
		assert.Equal(t, want, IsFatal(kind), kind.String())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), KindTimeout},
		{"closed target", errors.New("{-32000 No target with given id found }"), KindWindowClosed},
		{"target closed", errors.New("Target closed"), KindWindowClosed},
		{"closed socket", errors.New("write tcp 127.0.0.1:1->127.0.0.1:2: use of closed network connection"), KindSessionInvalid},
		{"unknown session", errors.New("{-32001 Session with given id not found. }"), KindSessionInvalid},
		{"detached node", errors.New("{-32000 Could not find node with given id }"), KindStaleElement},
		{"destroyed context", errors.New("{-32000 Cannot find context with specified id }"), KindStaleElement},
		{"eval failure", errors.New("eval js error: TypeError: Cannot read properties of null"), KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestWrapKeepsKind(t *testing.T) {
	assert.NoError(t, wrap("click", "a", nil))

	err := wrap("click", "a", errors.New("Target closed"))
	assert.Equal(t, KindWindowClosed, KindOf(err))
	assert.Contains(t, err.Error(), `click "a": no such window`)

	inner := NewError(KindNotFound, "find", "a", nil)
	assert.Same(t, inner, wrap("outer", "", inner))

	deep := fmt.Errorf("step 3 (Click): %w", err)
	assert.Equal(t, KindWindowClosed, KindOf(deep))
	assert.Equal(t, KindOther, KindOf(errors.New("plain")))
}
