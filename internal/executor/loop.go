package executor

import (
	"context"

	"github.com/v0xg/webscript/internal/browser"
	"github.com/v0xg/webscript/internal/steps"
	"go.uber.org/zap"
)

// loop re-runs body from its first step until a pass completes. Side effects
// of a failed pass are not undone, so the steps before the failing one run
// again on the next attempt.
func (e *Executor) loop(ctx context.Context, body []steps.Step, path string) error {
	for attempt := 1; ; attempt++ {
		err := e.run(ctx, body, path+".")
		if err == nil {
			if attempt > 1 {
				e.logger.Info("loop finished",
					zap.String("step", path),
					zap.Int("attempts", attempt))
			}
			return nil
		}

		if isFatal(ctx, err) {
			e.logger.Debug("loop aborted",
				zap.String("step", path),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}

		e.logger.Warn("failed to finish a loop, will retry",
			zap.String("step", path),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
}

// isFatal reports whether a loop must give up on err instead of retrying.
func isFatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if steps.IsConfigError(err) {
		return true
	}
	return browser.IsFatal(browser.KindOf(err))
}
