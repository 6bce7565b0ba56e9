// Package page contains the Page domain: navigation, lifecycle events, and
// screenshots.
package page

// FrameID identifies one frame within a page.
type FrameID = string

type Enable struct{}

func (Enable) MethodName() string { return "Page.enable" }

type EnableReply struct{}

type Disable struct{}

func (Disable) MethodName() string { return "Page.disable" }

type DisableReply struct{}

type Navigate struct {
	URL            string `json:"url"`
	Referrer       string `json:"referrer,omitempty"`
	TransitionType string `json:"transitionType,omitempty"`
}

func (Navigate) MethodName() string { return "Page.navigate" }

type NavigateReply struct {
	FrameID  FrameID `json:"frameId"`
	LoaderID string  `json:"loaderId,omitempty"`
	// ErrorText is set when the navigation could not even start, e.g. the
	// scheme is unsupported. A successful reply says nothing about the page
	// having loaded; lifecycle events do.
	ErrorText string `json:"errorText,omitempty"`
}

type Reload struct {
	IgnoreCache            bool   `json:"ignoreCache,omitempty"`
	ScriptToEvaluateOnLoad string `json:"scriptToEvaluateOnLoad,omitempty"`
}

func (Reload) MethodName() string { return "Page.reload" }

type ReloadReply struct{}

// SetLifecycleEventsEnabled controls whether the browser emits
// Page.lifecycleEvent. Tabs enable it at attach time; navigation tracking
// depends on it.
type SetLifecycleEventsEnabled struct {
	Enabled bool `json:"enabled"`
}

func (SetLifecycleEventsEnabled) MethodName() string { return "Page.setLifecycleEventsEnabled" }

type SetLifecycleEventsEnabledReply struct{}

// Viewport is a clip rectangle for screenshots, in CSS pixels.
type Viewport struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

type CaptureScreenshot struct {
	// Format is "png" or "jpeg".
	Format      string    `json:"format,omitempty"`
	Quality     *int      `json:"quality,omitempty"`
	Clip        *Viewport `json:"clip,omitempty"`
	FromSurface bool      `json:"fromSurface,omitempty"`
}

func (CaptureScreenshot) MethodName() string { return "Page.captureScreenshot" }

type CaptureScreenshotReply struct {
	// Data is the base64-encoded image.
	Data string `json:"data"`
}

const EventLifecycleEvent = "Page.lifecycleEvent"

// LifecycleEvent reports page-load milestones. The names observed in
// practice include "init", "load", "DOMContentLoaded", "networkIdle" and
// "networkAlmostIdle".
type LifecycleEvent struct {
	FrameID   FrameID `json:"frameId"`
	LoaderID  string  `json:"loaderId"`
	Name      string  `json:"name"`
	Timestamp float64 `json:"timestamp"`
}
