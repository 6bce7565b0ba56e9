package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/browserctl/browserctl/cdp"
	"github.com/browserctl/browserctl/cdp/cdptest"
	"github.com/browserctl/browserctl/protocol/dom"
	"github.com/browserctl/browserctl/wait"
)

var testLogger *zap.Logger

func init() {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	testLogger = l
}

const (
	testTargetID  = "target-1"
	testSessionID = "session-1"
)

// newTestBrowser wires a Browser to a cdptest endpoint with target
// creation/attachment stubbed out.
func newTestBrowser(t *testing.T) (*cdptest.Server, *Browser) {
	t.Helper()
	s := cdptest.NewServer()
	t.Cleanup(s.Close)

	s.Handle("Target.createTarget", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]string{"targetId": testTargetID})
	})
	s.Handle("Target.attachToTarget", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]string{"sessionId": testSessionID})
	})

	conn, err := cdp.Dial(context.Background(), s.WSURL(), cdp.WithLogger(testLogger))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return s, NewBrowser(conn, WithLogger(testLogger))
}

func newTestTab(t *testing.T) (*cdptest.Server, *Tab) {
	t.Helper()
	s, b := newTestBrowser(t)
	tab, err := b.NewTab(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { tab.Close(context.Background()) })
	return s, tab
}

// methodsSent filters the methods of all requests the server saw.
func methodsSent(s *cdptest.Server, method string) []cdptest.Request {
	var out []cdptest.Request
	for _, req := range s.Requests() {
		if req.Method == method {
			out = append(out, req)
		}
	}
	return out
}

func TestNewTabEnablesLifecycleEvents(t *testing.T) {
	s, tab := newTestTab(t)

	assert.Equal(t, testSessionID, tab.SessionID())
	assert.Equal(t, testTargetID, tab.TargetID())

	require.Len(t, methodsSent(s, "Page.enable"), 1)
	enables := methodsSent(s, "Page.setLifecycleEventsEnabled")
	require.Len(t, enables, 1)
	assert.Equal(t, testSessionID, enables[0].SessionID)
	assert.JSONEq(t, `{"enabled":true}`, string(enables[0].Params))
}

func lifecycle(name string) map[string]any {
	return map[string]any{"frameId": "frame-1", "loaderId": "loader-1", "name": name, "timestamp": 1.0}
}

func TestWaitUntilNavigatedTwoPhase(t *testing.T) {
	s, tab := newTestTab(t)

	require.NoError(t, tab.NavigateTo(context.Background(), "https://example.com"))

	// The navigation response has already arrived; lifecycle events come
	// later. A single "wait until idle" would return immediately here.
	const (
		initDelay = 50 * time.Millisecond
		idleDelay = 300 * time.Millisecond
	)
	go func() {
		time.Sleep(initDelay)
		s.Event("Page.lifecycleEvent", testSessionID, lifecycle("init"))
		time.Sleep(idleDelay - initDelay)
		s.Event("Page.lifecycleEvent", testSessionID, lifecycle("networkAlmostIdle"))
	}()

	start := time.Now()
	require.NoError(t, tab.WaitUntilNavigated(context.Background()))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, idleDelay-initDelay,
		"wait returned before the network-idle event")
}

func TestWaitUntilNavigatedTimesOut(t *testing.T) {
	_, tab := newTestTab(t)
	tab.SetNavigationTimeout(150 * time.Millisecond)

	// No lifecycle events ever arrive.
	err := tab.WaitUntilNavigated(context.Background())
	assert.ErrorIs(t, err, wait.ErrTimeout)
}

func TestNavigateToRejected(t *testing.T) {
	s, tab := newTestTab(t)
	s.Handle("Page.navigate", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]string{"frameId": "frame-1", "errorText": "net::ERR_NAME_NOT_RESOLVED"})
	})

	err := tab.NavigateTo(context.Background(), "https://nope.invalid")
	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Contains(t, navErr.Text, "ERR_NAME_NOT_RESOLVED")
}

func stubDocument(s *cdptest.Server) {
	s.Handle("DOM.getDocument", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]any{"root": map[string]any{"nodeId": 1, "nodeName": "#document"}})
	})
}

func TestFindElement(t *testing.T) {
	s, tab := newTestTab(t)
	stubDocument(s)
	s.Handle("DOM.querySelector", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]int{"nodeId": 5})
	})

	el, err := tab.FindElement(context.Background(), "#login")
	require.NoError(t, err)
	assert.Equal(t, dom.NodeID(5), el.NodeID())
	assert.Equal(t, "#login", el.Selector())
}

func TestFindElementNotFound(t *testing.T) {
	s, tab := newTestTab(t)
	stubDocument(s)
	s.Handle("DOM.querySelector", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]int{"nodeId": 0})
	})
	s.Handle("DOM.querySelectorAll", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]any{"nodeIds": []int{}})
	})

	_, err := tab.FindElement(context.Background(), ".missing")
	var noEl *NoElementError
	require.ErrorAs(t, err, &noEl)
	assert.Equal(t, ".missing", noEl.Selector)

	_, err = tab.FindElements(context.Background(), ".missing")
	require.ErrorAs(t, err, &noEl)
}

func TestWaitForElement(t *testing.T) {
	s, tab := newTestTab(t)
	stubDocument(s)

	calls := 0
	s.Handle("DOM.querySelector", func(req cdptest.Request) cdptest.Response {
		calls++
		if calls < 3 {
			return cdptest.Result(map[string]int{"nodeId": 0})
		}
		return cdptest.Result(map[string]int{"nodeId": 9})
	})

	el, err := tab.WaitForElement(context.Background(), "#late",
		wait.WithInterval(10*time.Millisecond), wait.WithTimeout(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, dom.NodeID(9), el.NodeID())
}

func TestPressKeySequences(t *testing.T) {
	cases := []struct {
		name        string
		key         string
		wantDown    string
		wantKey     string
		wantKeyCode int
	}{
		{name: "printable key uses keyDown", key: "a", wantDown: "keyDown", wantKey: "a", wantKeyCode: 65},
		{name: "enter has text", key: "Enter", wantDown: "keyDown", wantKey: "Enter", wantKeyCode: 13},
		{name: "tab is raw", key: "Tab", wantDown: "rawKeyDown", wantKey: "Tab", wantKeyCode: 9},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, tab := newTestTab(t)
			require.NoError(t, tab.PressKey(context.Background(), c.key))

			events := methodsSent(s, "Input.dispatchKeyEvent")
			require.Len(t, events, 2)

			var down, up struct {
				Type                  string `json:"type"`
				Key                   string `json:"key"`
				WindowsVirtualKeyCode int    `json:"windowsVirtualKeyCode"`
			}
			require.NoError(t, json.Unmarshal(events[0].Params, &down))
			require.NoError(t, json.Unmarshal(events[1].Params, &up))

			assert.Equal(t, c.wantDown, down.Type)
			assert.Equal(t, c.wantKey, down.Key)
			assert.Equal(t, c.wantKeyCode, down.WindowsVirtualKeyCode)
			assert.Equal(t, "keyUp", up.Type)
		})
	}
}

func TestTypeStr(t *testing.T) {
	s, tab := newTestTab(t)
	require.NoError(t, tab.TypeStr(context.Background(), "hi"))
	// One down and one up per character.
	assert.Len(t, methodsSent(s, "Input.dispatchKeyEvent"), 4)
}

func TestClickPoint(t *testing.T) {
	s, tab := newTestTab(t)
	require.NoError(t, tab.ClickPoint(context.Background(), Point{X: 10, Y: 20}))

	events := methodsSent(s, "Input.dispatchMouseEvent")
	require.Len(t, events, 3)

	wantTypes := []string{"mouseMoved", "mousePressed", "mouseReleased"}
	for i, req := range events {
		var ev struct {
			Type string  `json:"type"`
			X    float64 `json:"x"`
			Y    float64 `json:"y"`
		}
		require.NoError(t, json.Unmarshal(req.Params, &ev))
		assert.Equal(t, wantTypes[i], ev.Type)
		assert.Equal(t, 10.0, ev.X)
		assert.Equal(t, 20.0, ev.Y)
	}
}

func TestCaptureScreenshot(t *testing.T) {
	s, tab := newTestTab(t)
	png := []byte("definitely a png")
	s.Handle("Page.captureScreenshot", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]string{"data": base64.StdEncoding.EncodeToString(png)})
	})

	got, err := tab.CaptureScreenshot(context.Background(), ScreenshotOptions{})
	require.NoError(t, err)
	assert.Equal(t, png, got)

	shots := methodsSent(s, "Page.captureScreenshot")
	require.Len(t, shots, 1)
	assert.JSONEq(t, `{"format":"png"}`, string(shots[0].Params))
}

func TestEvaluate(t *testing.T) {
	s, tab := newTestTab(t)
	s.Handle("Runtime.evaluate", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]any{
			"result": map[string]any{"type": "string", "value": "Mozilla/5.0"},
		})
	})

	var ua string
	require.NoError(t, tab.EvaluateValue(context.Background(), "navigator.userAgent", &ua))
	assert.Equal(t, "Mozilla/5.0", ua)
}

func TestEvaluateException(t *testing.T) {
	s, tab := newTestTab(t)
	s.Handle("Runtime.evaluate", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]any{
			"result":           map[string]any{"type": "undefined"},
			"exceptionDetails": map[string]any{"exceptionId": 1, "text": "Uncaught ReferenceError"},
		})
	})

	_, err := tab.Evaluate(context.Background(), "nope()")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ReferenceError")
}

func TestTakePreciseJSCoverage(t *testing.T) {
	s, tab := newTestTab(t)
	s.Handle("Profiler.takePreciseCoverage", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]any{
			"result": []map[string]any{{
				"scriptId": "3",
				"url":      "https://example.com/app.js",
				"functions": []map[string]any{{
					"functionName": "main",
					"ranges":       []map[string]any{{"startOffset": 0, "endOffset": 10, "count": 2}},
				}},
			}},
		})
	})

	require.NoError(t, tab.EnableProfiler(context.Background()))
	require.NoError(t, tab.StartJSCoverage(context.Background()))
	cov, err := tab.TakePreciseJSCoverage(context.Background())
	require.NoError(t, err)
	require.Len(t, cov, 1)
	assert.Equal(t, "https://example.com/app.js", cov[0].URL)
	require.Len(t, cov[0].Functions, 1)
	assert.Equal(t, int64(2), cov[0].Functions[0].Ranges[0].Count)
}

func TestTargetInfoChangedUpdatesURL(t *testing.T) {
	s, tab := newTestTab(t)

	s.Event("Target.targetInfoChanged", testSessionID, map[string]any{
		"targetInfo": map[string]any{
			"targetId": testTargetID,
			"type":     "page",
			"url":      "https://example.com/after",
		},
	})

	require.Eventually(t, func() bool {
		return tab.URL() == "https://example.com/after"
	}, 2*time.Second, 10*time.Millisecond)
}
