package gifgen

import (
	"bytes"
	"context"
	"image"
	_ "image/png"

	"github.com/v0xg/webscript/internal/browser"
	"github.com/v0xg/webscript/internal/executor"
	"github.com/v0xg/webscript/internal/overlay"
	"github.com/v0xg/webscript/internal/steps"
	"go.uber.org/zap"
)

// Capturer takes screenshots of the session being recorded.
type Capturer interface {
	Screenshot(ctx context.Context) ([]byte, error)
	ElementCenter(ctx context.Context, el browser.Element) (int, int, error)
}

// Recorder collects one frame per step of the script. A step that runs again,
// as loop bodies do on every retry, replaces its earlier frame, so the
// recording never grows past the size of the script. Clicks are marked with
// a ripple where the clicked element is. Capture failures drop the frame and
// never fail the run.
type Recorder struct {
	capture  Capturer
	logger   *zap.Logger
	maxWidth uint
	frames   []image.Image
	byPath   map[string]int // step path to index in frames
}

var _ executor.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder reading frames from capture.
func NewRecorder(capture Capturer, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		capture:  capture,
		logger:   logger.With(zap.String("component", "recorder")),
		maxWidth: DefaultMaxWidth,
		byPath:   make(map[string]int),
	}
}

// StepDone captures the page after a step.
func (r *Recorder) StepDone(ctx context.Context, ev executor.Event) {
	data, err := r.capture.Screenshot(ctx)
	if err != nil {
		r.logger.Debug("screenshot failed", zap.String("step", ev.Path), zap.Error(err))
		return
	}
	frame, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		r.logger.Debug("screenshot decode failed", zap.String("step", ev.Path), zap.Error(err))
		return
	}

	if ev.Err == nil && ev.Element != nil && isClick(ev.Step.Kind) {
		// the element may already be gone after a navigating click
		if x, y, err := r.capture.ElementCenter(ctx, ev.Element); err == nil {
			frame = overlay.MarkClick(frame, x, y)
		}
	}
	// stored frames are already at output size
	frame = scale(frame, r.maxWidth)

	if i, ok := r.byPath[ev.Path]; ok {
		r.frames[i] = frame
		return
	}
	r.byPath[ev.Path] = len(r.frames)
	r.frames = append(r.frames, frame)
}

// Frames returns the frames captured so far.
func (r *Recorder) Frames() []image.Image {
	return r.frames
}

// Save encodes the captured frames to path.
func (r *Recorder) Save(path string, opts Options) (int64, error) {
	if opts.MaxWidth == 0 {
		opts.MaxWidth = r.maxWidth
	}
	return Generate(r.frames, path, opts)
}

func isClick(k steps.Kind) bool {
	switch k.(type) {
	case steps.Click, steps.ClickUntilURLChanges, steps.ClickUntilPageSourceChanges:
		return true
	}
	return false
}
