// Package browser drives a Chromium instance over the DevTools protocol and
// exposes it as the session the step executor runs against.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Options configures the launched browser
type Options struct {
	BinPath    string // Chromium executable; looked up when empty
	Headless   bool
	Width      int
	Height     int
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
}

// Element is a handle to a node found in the active browsing context.
type Element interface {
	Selector() string
}

type node struct {
	el       *rod.Element
	selector string
}

func (n *node) Selector() string { return n.selector }

// Session owns the browser process and tracks the active window and the
// stack of frames entered inside it.
type Session struct {
	launcher *launcher.Launcher
	keepData bool // user supplied profile, never removed
	browser  *rod.Browser
	windows  windowOrder
	stopSub  context.CancelFunc
	window   *rod.Page
	frames   []*rod.Page
	logger   *zap.Logger
}

// Launch starts the browser process, connects to it and opens a blank page.
// The returned Session must be closed even when later steps fail.
func Launch(ctx context.Context, opts Options, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bin := opts.BinPath
	if bin == "" {
		found, ok := launcher.LookPath()
		if !ok {
			return nil, fmt.Errorf("no Chromium executable found, pass --browser-path")
		}
		bin = found
	}

	l := launcher.New().Context(ctx).Bin(bin).Headless(opts.Headless)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		if opts.ProfileDir == "" {
			l.Cleanup()
		}
		return nil, fmt.Errorf("failed to launch %s: %w", bin, err)
	}
	logger.Debug("browser launched", zap.String("bin", bin), zap.String("control_url", u))

	s := &Session{launcher: l, keepData: opts.ProfileDir != "", logger: logger.With(zap.String("component", "browser"))}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	s.browser = b

	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(b); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to watch targets: %w", err)
	}
	subCtx, stop := context.WithCancel(context.Background())
	s.stopSub = stop
	go b.Context(subCtx).EachEvent(func(e *proto.TargetTargetCreated) {
		if e.TargetInfo.Type == proto.TargetTargetInfoTypePage {
			s.windows.add(string(e.TargetInfo.TargetID))
		}
	})()

	if existing, err := b.Pages(); err == nil {
		for _, p := range existing {
			s.windows.add(string(p.TargetID))
		}
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	s.window = page
	s.windows.add(string(page.TargetID))

	if opts.Width > 0 && opts.Height > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Width,
			Height:            opts.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to set viewport: %w", err)
		}
	}

	return s, nil
}

// Close disconnects and terminates the browser process. It is safe to call
// on a partially launched session and more than once.
func (s *Session) Close() {
	if s.stopSub != nil {
		s.stopSub()
		s.stopSub = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Debug("browser close failed", zap.Error(err))
		}
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Kill()
		if !s.keepData {
			s.launcher.Cleanup()
		}
		s.launcher = nil
	}
	s.window = nil
	s.frames = nil
}

// Page returns the page of the active window.
func (s *Session) Page() *rod.Page {
	return s.window
}

// current is the innermost entered frame, or the window itself.
func (s *Session) current(ctx context.Context) *rod.Page {
	if n := len(s.frames); n > 0 {
		return s.frames[n-1].Context(ctx)
	}
	return s.window.Context(ctx)
}

// Navigate loads url in the active window, waits for the load event and
// leaves any entered frames.
func (s *Session) Navigate(ctx context.Context, url string) error {
	page := s.window.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return wrap("navigate", "", err)
	}
	s.frames = nil
	return wrap("navigate", "", page.WaitLoad())
}

// CurrentURL returns the URL of the active window.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.window.Context(ctx).Info()
	if err != nil {
		return "", wrap("current url", "", err)
	}
	return info.URL, nil
}

// PageSource returns the HTML of the active frame.
func (s *Session) PageSource(ctx context.Context) (string, error) {
	html, err := s.current(ctx).HTML()
	return html, wrap("page source", "", err)
}

// Find looks the selector up once, inside within when it is not nil.
func (s *Session) Find(ctx context.Context, selector string, within Element) (Element, error) {
	var scope interface {
		Has(selector string) (bool, *rod.Element, error)
	} = s.current(ctx)

	if within != nil {
		parent, err := unwrap(within)
		if err != nil {
			return nil, err
		}
		scope = parent.Context(ctx)
	}

	has, found, err := scope.Has(selector)
	if err != nil {
		return nil, wrap("find", selector, err)
	}
	if !has {
		return nil, NewError(KindNotFound, "find", selector, nil)
	}
	return &node{el: found, selector: selector}, nil
}

// WaitFor polls for the selector until it matches or timeout elapses. A
// zero timeout checks once.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	if timeout <= 0 {
		has, el, err := s.current(ctx).Has(selector)
		if err != nil {
			return nil, wrap("wait for", selector, err)
		}
		if !has {
			return nil, NewError(KindTimeout, "wait for", selector, context.DeadlineExceeded)
		}
		return &node{el: el, selector: selector}, nil
	}
	el, err := s.current(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return nil, wrap("wait for", selector, err)
	}
	return &node{el: el.CancelTimeout(), selector: selector}, nil
}

// Click left-clicks the element once.
func (s *Session) Click(ctx context.Context, e Element) error {
	el, err := unwrap(e)
	if err != nil {
		return err
	}
	return wrap("click", e.Selector(), el.Context(ctx).Click(proto.InputMouseButtonLeft, 1))
}

// SendKeys types text into the element.
func (s *Session) SendKeys(ctx context.Context, e Element, text string) error {
	el, err := unwrap(e)
	if err != nil {
		return err
	}
	return wrap("send keys", e.Selector(), el.Context(ctx).Input(text))
}

// Clear selects the element's text and deletes it.
func (s *Session) Clear(ctx context.Context, e Element) error {
	el, err := unwrap(e)
	if err != nil {
		return err
	}
	el = el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return wrap("clear", e.Selector(), err)
	}
	return wrap("clear", e.Selector(), el.Input(""))
}

// Windows lists the handles of the open top-level pages in the order they
// were opened.
func (s *Session) Windows(ctx context.Context) ([]string, error) {
	pages, err := s.browser.Context(ctx).Pages()
	if err != nil {
		return nil, wrap("list windows", "", err)
	}
	handles := make([]string, 0, len(pages))
	for _, p := range pages {
		handles = append(handles, string(p.TargetID))
	}
	return s.windows.sort(handles), nil
}

// SwitchToWindow activates the window with the given handle and resets the
// frame stack.
func (s *Session) SwitchToWindow(ctx context.Context, handle string) error {
	pages, err := s.browser.Context(ctx).Pages()
	if err != nil {
		return wrap("switch window", "", err)
	}
	for _, p := range pages {
		if string(p.TargetID) != handle {
			continue
		}
		if _, err := p.Context(ctx).Activate(); err != nil {
			return wrap("switch window", "", err)
		}
		s.window = p
		s.frames = nil
		s.logger.Debug("switched window", zap.String("handle", handle))
		return nil
	}
	return NewError(KindWindowClosed, "switch window", "", fmt.Errorf("no window %s", handle))
}

// EnterFrame makes the frame element the active browsing context.
func (s *Session) EnterFrame(ctx context.Context, e Element) error {
	el, err := unwrap(e)
	if err != nil {
		return err
	}
	frame, err := el.Context(ctx).Frame()
	if err != nil {
		return wrap("enter frame", e.Selector(), err)
	}
	s.frames = append(s.frames, frame)
	return nil
}

// EnterParentFrame leaves the innermost frame. At the top level it does nothing.
func (s *Session) EnterParentFrame(ctx context.Context) error {
	if n := len(s.frames); n > 0 {
		s.frames = s.frames[:n-1]
	}
	return nil
}

// ResizeWindow sets the outer size of the active window.
func (s *Session) ResizeWindow(ctx context.Context, width, height int) error {
	return wrap("resize window", "", s.window.Context(ctx).SetWindow(&proto.BrowserBounds{
		Width:       &width,
		Height:      &height,
		WindowState: proto.BrowserWindowStateNormal,
	}))
}

// ExecuteScript evaluates a JavaScript function expression in the active
// browsing context, passing args as its parameters.
func (s *Session) ExecuteScript(ctx context.Context, script string, args ...interface{}) error {
	_, err := s.current(ctx).Eval(script, args...)
	return wrap("execute script", "", err)
}

// Screenshot captures the visible part of the active window as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := s.window.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	return data, wrap("screenshot", "", err)
}

// ElementCenter returns the viewport coordinates of the element's centre.
func (s *Session) ElementCenter(ctx context.Context, e Element) (int, int, error) {
	el, err := unwrap(e)
	if err != nil {
		return 0, 0, err
	}
	box, err := el.Context(ctx).Shape()
	if err != nil {
		return 0, 0, wrap("shape", e.Selector(), err)
	}
	if len(box.Quads) == 0 {
		return 0, 0, fmt.Errorf("element has no shape: %s", e.Selector())
	}

	quad := box.Quads[0]
	x := (quad[0] + quad[2] + quad[4] + quad[6]) / 4
	y := (quad[1] + quad[3] + quad[5] + quad[7]) / 4
	return int(x), int(y), nil
}

func unwrap(e Element) (*rod.Element, error) {
	n, ok := e.(*node)
	if !ok || n.el == nil {
		return nil, fmt.Errorf("element %T does not belong to this session", e)
	}
	return n.el, nil
}
