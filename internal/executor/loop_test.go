package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/webscript/internal/browser"
	"github.com/v0xg/webscript/internal/steps"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoop_RetriesWholeBodyUntilSuccess(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	session := newFakeSession()
	session.findErrs["b"] = []error{
		browser.NewError(browser.KindNotFound, "find", "b", nil),
		browser.NewError(browser.KindStaleElement, "find", "b", nil),
	}
	exec := New(session, zap.New(core), Options{})

	err := exec.Run(context.Background(), []steps.Step{
		{Kind: steps.Loop{Steps: []steps.Step{
			{Selector: "a", Kind: steps.Click{}},
			{Selector: "b", Kind: steps.Click{}},
		}}},
	})

	require.NoError(t, err)
	// three full passes: every retry starts again at the first step
	assert.Equal(t, 3, session.count("find a"))
	assert.Equal(t, 3, session.count("click a"))
	assert.Equal(t, 3, session.count("find b"))
	assert.Equal(t, 1, session.count("click b"))
	assert.Equal(t, 2, logs.FilterMessage("failed to finish a loop, will retry").Len())
}

func TestLoop_FatalErrorAbortsWithoutRetry(t *testing.T) {
	for _, kind := range []browser.ErrorKind{browser.KindWindowClosed, browser.KindSessionInvalid} {
		t.Run(kind.String(), func(t *testing.T) {
			session := newFakeSession()
			session.findErrs["b"] = []error{browser.NewError(kind, "find", "b", nil)}
			exec := newTestExecutor(session, Options{})

			err := exec.Run(context.Background(), []steps.Step{
				{Kind: steps.Loop{Steps: []steps.Step{
					{Selector: "a", Kind: steps.Click{}},
					{Selector: "b", Kind: steps.Click{}},
				}}},
				{Selector: "after", Kind: steps.Click{}},
			})

			require.Error(t, err)
			assert.Equal(t, kind, browser.KindOf(err))
			assert.Equal(t, 1, session.count("find a"))
			assert.Zero(t, session.count("find after"))
		})
	}
}

func TestLoop_ConfigErrorIsNotRetried(t *testing.T) {
	session := newFakeSession()
	exec := newTestExecutor(session, Options{})

	err := exec.Run(context.Background(), []steps.Step{
		{Kind: steps.Loop{Steps: []steps.Step{
			{Selector: "a", Kind: steps.Click{}},
			{Kind: steps.TypeText{Text: "x"}},
		}}},
	})

	require.ErrorIs(t, err, steps.ErrMissingSelector)
	assert.Contains(t, err.Error(), "step 1.2 (Input)")
	assert.Equal(t, 1, session.count("find a"))
}

func TestLoop_WaitTimeoutIsRetried(t *testing.T) {
	session := newFakeSession()
	session.waitErrs = []error{browser.NewError(browser.KindTimeout, "wait for", "#ready", nil)}
	exec := newTestExecutor(session, Options{})

	err := exec.Run(context.Background(), []steps.Step{
		{Kind: steps.Loop{Steps: []steps.Step{
			{Selector: "#ready", Kind: steps.WaitUpTo(2)},
		}}},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, session.count("wait #ready"))
}

func TestLoop_ContextIsFreshAndOuterContextSurvives(t *testing.T) {
	session := newFakeSession()
	exec := newTestExecutor(session, Options{})

	err := exec.Run(context.Background(), []steps.Step{
		{Selector: "main", Kind: steps.Descend{}},
		{Kind: steps.Loop{Steps: []steps.Step{
			{Selector: "nav", Kind: steps.Descend{}},
			{Selector: "a", Kind: steps.Click{}},
		}}},
		{Selector: "h1", Kind: steps.AssertPresent{}},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{
		"find main",
		"find nav",
		"find a within nav#2",
		"click a#3",
		"find h1 within main#1",
	}, session.calls)
}

func TestLoop_NestedLoopRetriesInnerOnly(t *testing.T) {
	session := newFakeSession()
	session.findErrs["inner"] = []error{browser.NewError(browser.KindNotFound, "find", "inner", nil)}
	exec := newTestExecutor(session, Options{})

	err := exec.Run(context.Background(), []steps.Step{
		{Kind: steps.Loop{Steps: []steps.Step{
			{Selector: "outer", Kind: steps.Click{}},
			{Kind: steps.Loop{Steps: []steps.Step{
				{Selector: "inner", Kind: steps.Click{}},
			}}},
		}}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, session.count("find outer"))
	assert.Equal(t, 2, session.count("find inner"))
}

func TestLoop_StopsWhenContextDone(t *testing.T) {
	session := newFakeSession()
	session.missing["never"] = true
	exec := newTestExecutor(session, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Run(ctx, []steps.Step{
		{Kind: steps.Loop{Steps: []steps.Step{{Selector: "never", Kind: steps.Click{}}}}},
	})
	require.Error(t, err)
	assert.Equal(t, 1, session.count("find never"))
}

func TestIsFatal(t *testing.T) {
	ctx := context.Background()
	assert.False(t, isFatal(ctx, browser.NewError(browser.KindNotFound, "find", "a", nil)))
	assert.False(t, isFatal(ctx, browser.NewError(browser.KindTimeout, "wait for", "a", nil)))
	assert.False(t, isFatal(ctx, browser.NewError(browser.KindOther, "click", "a", nil)))
	assert.True(t, isFatal(ctx, browser.NewError(browser.KindWindowClosed, "click", "a", nil)))
	assert.True(t, isFatal(ctx, browser.NewError(browser.KindSessionInvalid, "click", "a", nil)))
	assert.True(t, isFatal(ctx, steps.ErrMissingSelector))
}
