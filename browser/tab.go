package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/browserctl/browserctl/cdp"
	"github.com/browserctl/browserctl/protocol/dom"
	"github.com/browserctl/browserctl/protocol/input"
	"github.com/browserctl/browserctl/protocol/page"
	"github.com/browserctl/browserctl/protocol/profiler"
	"github.com/browserctl/browserctl/protocol/runtime"
	"github.com/browserctl/browserctl/protocol/target"
	"github.com/browserctl/browserctl/wait"
)

// Lifecycle event names that drive navigation tracking. "init" fires when a
// navigation starts, "networkAlmostIdle" once the page has settled.
const (
	lifecycleInit        = "init"
	lifecycleNetworkIdle = "networkAlmostIdle"
)

const defaultNavigationTimeout = 30 * time.Second

// Tab drives one attached page target. It owns the session's event
// subscription: a dedicated goroutine drains it and folds lifecycle events
// into the navigating flag that WaitUntilNavigated polls. Tab methods may be
// called from any goroutine.
type Tab struct {
	log  *zap.SugaredLogger
	conn *cdp.Conn

	targetID  target.ID
	sessionID target.SessionID

	sub       *cdp.Subscription
	drainDone chan struct{}

	// navigating is written only by the drain goroutine and read by
	// WaitUntilNavigated. A plain atomic is enough: it is one boolean with
	// no compound invariant.
	navigating atomic.Bool

	navTimeout time.Duration

	infoMu sync.Mutex
	info   target.Info

	closeOnce sync.Once
}

var boolTrue = true

func newTab(ctx context.Context, conn *cdp.Conn, log *zap.SugaredLogger, targetID target.ID) (*Tab, error) {
	attached, err := cdp.CallOnBrowser[target.AttachToTargetReply](ctx, conn, target.AttachToTarget{
		TargetID: targetID,
		Flatten:  &boolTrue,
	})
	if err != nil {
		return nil, fmt.Errorf("attaching to target %s: %w", targetID, err)
	}

	t := &Tab{
		log:        log.Named("tab").With("SessionID", attached.SessionID),
		conn:       conn,
		targetID:   targetID,
		sessionID:  attached.SessionID,
		drainDone:  make(chan struct{}),
		navTimeout: defaultNavigationTimeout,
		info:       target.Info{TargetID: targetID},
	}
	t.log.Debugw("attached to target", "TargetID", targetID)

	// Subscribe before enabling lifecycle events so none are missed.
	t.sub = conn.Subscribe(attached.SessionID)
	go t.drainEvents()

	if _, err := cdp.Call[page.EnableReply](ctx, conn, t.sessionID, page.Enable{}); err != nil {
		t.Close(ctx)
		return nil, fmt.Errorf("enabling page events: %w", err)
	}
	if _, err := cdp.Call[page.SetLifecycleEventsEnabledReply](ctx, conn, t.sessionID, page.SetLifecycleEventsEnabled{Enabled: true}); err != nil {
		t.Close(ctx)
		return nil, fmt.Errorf("enabling lifecycle events: %w", err)
	}

	return t, nil
}

// SessionID is the session this tab's commands are addressed to.
func (t *Tab) SessionID() target.SessionID { return t.sessionID }

// TargetID is the tab's target id.
func (t *Tab) TargetID() target.ID { return t.targetID }

// URL is the tab's last known URL from target info updates.
func (t *Tab) URL() string {
	t.infoMu.Lock()
	defer t.infoMu.Unlock()
	return t.info.URL
}

// SetNavigationTimeout adjusts how long WaitUntilNavigated waits for each
// navigation phase.
func (t *Tab) SetNavigationTimeout(d time.Duration) { t.navTimeout = d }

// drainEvents consumes the tab's subscription for its lifetime. It is the
// only writer of navigating and info. It exits when the subscription closes,
// either via Tab.Close or connection loss.
func (t *Tab) drainEvents() {
	defer close(t.drainDone)
	for ev := range t.sub.Events() {
		switch ev.Method {
		case page.EventLifecycleEvent:
			var lc page.LifecycleEvent
			if err := json.Unmarshal(ev.Params, &lc); err != nil {
				t.log.Debugf("undecodable lifecycle event: %s", err)
				continue
			}
			switch lc.Name {
			case lifecycleInit:
				t.navigating.Store(true)
			case lifecycleNetworkIdle:
				t.navigating.Store(false)
			}
		case target.EventTargetInfoChanged:
			var tic target.TargetInfoChangedEvent
			if err := json.Unmarshal(ev.Params, &tic); err != nil {
				t.log.Debugf("undecodable target info event: %s", err)
				continue
			}
			if tic.TargetInfo.TargetID == t.targetID {
				t.infoMu.Lock()
				t.info = tic.TargetInfo
				t.infoMu.Unlock()
			}
		}
	}
}

// Call issues a protocol command on the tab's session. It is the escape
// hatch for commands Tab has no wrapper for. A package-level function because
// methods cannot take type parameters.
func Call[R any](ctx context.Context, t *Tab, m cdp.Method) (R, error) {
	return cdp.Call[R](ctx, t.conn, t.sessionID, m)
}

// NavigateTo starts a navigation. It returns as soon as the browser accepts
// the navigation; use WaitUntilNavigated to block until the page settled.
func (t *Tab) NavigateTo(ctx context.Context, url string) error {
	reply, err := cdp.Call[page.NavigateReply](ctx, t.conn, t.sessionID, page.Navigate{URL: url})
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if reply.ErrorText != "" {
		return &NavigationError{Text: reply.ErrorText}
	}
	t.log.Infof("navigating to %s", url)
	return nil
}

// WaitUntilNavigated blocks until the navigation that was just issued has
// settled (network almost idle). It waits in two phases: first for the
// navigation to start, then for it to finish. The navigation command's own
// response can arrive before any lifecycle event fires, so a single
// "wait until idle" would falsely succeed immediately.
func (t *Tab) WaitUntilNavigated(ctx context.Context) error {
	err := wait.True(ctx, func() bool { return t.navigating.Load() }, wait.WithTimeout(t.navTimeout))
	if err != nil {
		return fmt.Errorf("waiting for navigation to start: %w", err)
	}
	t.log.Debug("navigation started")

	err = wait.True(ctx, func() bool { return !t.navigating.Load() }, wait.WithTimeout(t.navTimeout))
	if err != nil {
		return fmt.Errorf("waiting for navigation to finish: %w", err)
	}
	t.log.Debug("navigation finished")
	return nil
}

// Reload reloads the page, optionally ignoring the browser cache and
// injecting a script into every frame after reload.
func (t *Tab) Reload(ctx context.Context, ignoreCache bool, scriptToEvaluate string) error {
	_, err := cdp.Call[page.ReloadReply](ctx, t.conn, t.sessionID, page.Reload{
		IgnoreCache:            ignoreCache,
		ScriptToEvaluateOnLoad: scriptToEvaluate,
	})
	if err != nil {
		return fmt.Errorf("reloading: %w", err)
	}
	return nil
}

// Document fetches the document root node.
func (t *Tab) Document(ctx context.Context) (dom.Node, error) {
	depth := 0
	pierce := false
	reply, err := cdp.Call[dom.GetDocumentReply](ctx, t.conn, t.sessionID, dom.GetDocument{Depth: &depth, Pierce: &pierce})
	if err != nil {
		return dom.Node{}, fmt.Errorf("getting document: %w", err)
	}
	return reply.Root, nil
}

// FindElement finds the first element matching the CSS selector, or a
// NoElementError.
func (t *Tab) FindElement(ctx context.Context, selector string) (*Element, error) {
	root, err := t.Document(ctx)
	if err != nil {
		return nil, err
	}
	reply, err := cdp.Call[dom.QuerySelectorReply](ctx, t.conn, t.sessionID, dom.QuerySelector{
		NodeID:   root.NodeID,
		Selector: selector,
	})
	if err != nil {
		return nil, fmt.Errorf("querying selector %q: %w", selector, err)
	}
	if reply.NodeID == 0 {
		return nil, &NoElementError{Selector: selector}
	}
	return &Element{tab: t, nodeID: reply.NodeID, selector: selector}, nil
}

// FindElements finds every element matching the CSS selector; it is a
// NoElementError if there are none.
func (t *Tab) FindElements(ctx context.Context, selector string) ([]*Element, error) {
	root, err := t.Document(ctx)
	if err != nil {
		return nil, err
	}
	reply, err := cdp.Call[dom.QuerySelectorAllReply](ctx, t.conn, t.sessionID, dom.QuerySelectorAll{
		NodeID:   root.NodeID,
		Selector: selector,
	})
	if err != nil {
		return nil, fmt.Errorf("querying selector %q: %w", selector, err)
	}
	if len(reply.NodeIDs) == 0 {
		return nil, &NoElementError{Selector: selector}
	}
	els := make([]*Element, len(reply.NodeIDs))
	for i, id := range reply.NodeIDs {
		els[i] = &Element{tab: t, nodeID: id, selector: selector}
	}
	return els, nil
}

// WaitForElement polls FindElement until the selector matches. Options adjust
// the poll interval and deadline (default 15s).
func (t *Tab) WaitForElement(ctx context.Context, selector string, opts ...wait.Option) (*Element, error) {
	el, err := wait.Until(ctx, func() (*Element, bool) {
		el, err := t.FindElement(ctx, selector)
		if err != nil {
			return nil, false
		}
		return el, true
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("waiting for element %q: %w", selector, err)
	}
	return el, nil
}

// DescribeNode fetches a deep description of the given node.
func (t *Tab) DescribeNode(ctx context.Context, nodeID dom.NodeID) (dom.Node, error) {
	depth := 100
	reply, err := cdp.Call[dom.DescribeNodeReply](ctx, t.conn, t.sessionID, dom.DescribeNode{
		NodeID: &nodeID,
		Depth:  &depth,
	})
	if err != nil {
		return dom.Node{}, fmt.Errorf("describing node %d: %w", nodeID, err)
	}
	return reply.Node, nil
}

// Evaluate runs a JS expression in the page and returns its value mirror. A
// thrown exception is returned as the error.
func (t *Tab) Evaluate(ctx context.Context, expression string) (runtime.RemoteObject, error) {
	reply, err := cdp.Call[runtime.EvaluateReply](ctx, t.conn, t.sessionID, runtime.Evaluate{
		Expression:    expression,
		ReturnByValue: true,
		AwaitPromise:  true,
	})
	if err != nil {
		return runtime.RemoteObject{}, fmt.Errorf("evaluating expression: %w", err)
	}
	if reply.ExceptionDetails != nil {
		return runtime.RemoteObject{}, fmt.Errorf("expression threw: %w", reply.ExceptionDetails)
	}
	return reply.Result, nil
}

// EvaluateValue evaluates an expression and unmarshals its value into out.
func (t *Tab) EvaluateValue(ctx context.Context, expression string, out any) error {
	obj, err := t.Evaluate(ctx, expression)
	if err != nil {
		return err
	}
	return obj.DecodeValue(out)
}

// TypeStr types a string by synthesizing a key press per character.
func (t *Tab) TypeStr(ctx context.Context, s string) error {
	for _, r := range s {
		if err := t.PressKey(ctx, string(r)); err != nil {
			return err
		}
	}
	return nil
}

// PressKey synthesizes a key down/up pair for a key name ("Enter", "Tab") or
// a single character.
func (t *Tab) PressKey(ctx context.Context, key string) error {
	def, err := keyDefinitionFor(key)
	if err != nil {
		return err
	}

	// Keys with no text (Tab, arrows) use rawKeyDown; see the puppeteer
	// Input implementation this mirrors.
	downType := "keyDown"
	if def.Text == "" {
		downType = "rawKeyDown"
	}

	_, err = cdp.Call[input.DispatchKeyEventReply](ctx, t.conn, t.sessionID, input.DispatchKeyEvent{
		Type:                  downType,
		Key:                   def.Key,
		Text:                  def.Text,
		Code:                  def.Code,
		WindowsVirtualKeyCode: def.KeyCode,
		NativeVirtualKeyCode:  def.KeyCode,
	})
	if err != nil {
		return fmt.Errorf("dispatching key down for %q: %w", key, err)
	}
	_, err = cdp.Call[input.DispatchKeyEventReply](ctx, t.conn, t.sessionID, input.DispatchKeyEvent{
		Type:                  "keyUp",
		Key:                   def.Key,
		Text:                  def.Text,
		Code:                  def.Code,
		WindowsVirtualKeyCode: def.KeyCode,
		NativeVirtualKeyCode:  def.KeyCode,
	})
	if err != nil {
		return fmt.Errorf("dispatching key up for %q: %w", key, err)
	}
	return nil
}

// Point is a position in CSS pixels.
type Point struct {
	X float64
	Y float64
}

// ClickPoint moves the mouse to the point and clicks it.
func (t *Tab) ClickPoint(ctx context.Context, p Point) error {
	if p.X == 0 && p.Y == 0 {
		t.log.Warn("clicking 0,0; element midpoint is probably wrong")
	}
	events := []input.DispatchMouseEvent{
		{Type: "mouseMoved", X: p.X, Y: p.Y},
		{Type: "mousePressed", X: p.X, Y: p.Y, Button: "left", ClickCount: 1},
		{Type: "mouseReleased", X: p.X, Y: p.Y, Button: "left", ClickCount: 1},
	}
	for _, ev := range events {
		if _, err := cdp.Call[input.DispatchMouseEventReply](ctx, t.conn, t.sessionID, ev); err != nil {
			return fmt.Errorf("dispatching %s: %w", ev.Type, err)
		}
	}
	return nil
}

// ScreenshotOptions control CaptureScreenshot. The zero value is a PNG of
// the viewport.
type ScreenshotOptions struct {
	// Format is "png" (default) or "jpeg".
	Format string
	// Quality is the JPEG compression quality, 0-100.
	Quality *int
	// Clip restricts the screenshot to a region of the page.
	Clip *page.Viewport
	// FromSurface captures from the surface rather than the view.
	FromSurface bool
}

// CaptureScreenshot takes a screenshot and returns the image bytes.
func (t *Tab) CaptureScreenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error) {
	format := opts.Format
	if format == "" {
		format = "png"
	}
	reply, err := cdp.Call[page.CaptureScreenshotReply](ctx, t.conn, t.sessionID, page.CaptureScreenshot{
		Format:      format,
		Quality:     opts.Quality,
		Clip:        opts.Clip,
		FromSurface: opts.FromSurface,
	})
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	b, err := base64.StdEncoding.DecodeString(reply.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot data: %w", err)
	}
	return b, nil
}

// EnableProfiler enables the Profiler domain; required before coverage
// collection.
func (t *Tab) EnableProfiler(ctx context.Context) error {
	_, err := cdp.Call[profiler.EnableReply](ctx, t.conn, t.sessionID, profiler.Enable{})
	return err
}

// DisableProfiler disables the Profiler domain.
func (t *Tab) DisableProfiler(ctx context.Context) error {
	_, err := cdp.Call[profiler.DisableReply](ctx, t.conn, t.sessionID, profiler.Disable{})
	return err
}

// StartJSCoverage starts tracking which JS has executed, with block-level
// granularity and real call counts.
func (t *Tab) StartJSCoverage(ctx context.Context) error {
	_, err := cdp.Call[profiler.StartPreciseCoverageReply](ctx, t.conn, t.sessionID, profiler.StartPreciseCoverage{
		CallCount: &boolTrue,
		Detailed:  &boolTrue,
	})
	return err
}

// StopJSCoverage stops coverage tracking.
func (t *Tab) StopJSCoverage(ctx context.Context) error {
	_, err := cdp.Call[profiler.StopPreciseCoverageReply](ctx, t.conn, t.sessionID, profiler.StopPreciseCoverage{})
	return err
}

// TakePreciseJSCoverage collects coverage since the previous take (or since
// StartJSCoverage) and resets the counters.
func (t *Tab) TakePreciseJSCoverage(ctx context.Context) ([]profiler.ScriptCoverage, error) {
	reply, err := cdp.Call[profiler.TakePreciseCoverageReply](ctx, t.conn, t.sessionID, profiler.TakePreciseCoverage{})
	if err != nil {
		return nil, fmt.Errorf("taking coverage: %w", err)
	}
	return reply.Result, nil
}

// Close detaches from the target and tears down the event subscription and
// drain goroutine. Safe to call more than once.
func (t *Tab) Close(ctx context.Context) {
	t.closeOnce.Do(func() {
		if _, err := cdp.CallOnBrowser[target.DetachFromTargetReply](ctx, t.conn, target.DetachFromTarget{SessionID: t.sessionID}); err != nil {
			t.log.Debugf("detaching from target: %s", err)
		}
		t.sub.Close()
		<-t.drainDone
	})
}
