// Package input contains the Input domain: synthesized keyboard and mouse
// events.
package input

// DispatchKeyEvent synthesizes one key event. Type is one of "keyDown",
// "keyUp", "rawKeyDown", "char".
type DispatchKeyEvent struct {
	Type                  string `json:"type"`
	Key                   string `json:"key,omitempty"`
	Text                  string `json:"text,omitempty"`
	Code                  string `json:"code,omitempty"`
	WindowsVirtualKeyCode int    `json:"windowsVirtualKeyCode,omitempty"`
	NativeVirtualKeyCode  int    `json:"nativeVirtualKeyCode,omitempty"`
}

func (DispatchKeyEvent) MethodName() string { return "Input.dispatchKeyEvent" }

type DispatchKeyEventReply struct{}

// DispatchMouseEvent synthesizes one mouse event. Type is one of
// "mousePressed", "mouseReleased", "mouseMoved", "mouseWheel".
type DispatchMouseEvent struct {
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Button     string  `json:"button,omitempty"`
	ClickCount int     `json:"clickCount,omitempty"`
}

func (DispatchMouseEvent) MethodName() string { return "Input.dispatchMouseEvent" }

type DispatchMouseEventReply struct{}
