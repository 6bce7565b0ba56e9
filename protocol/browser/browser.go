// Package browser contains the Browser domain: process-level version info
// and shutdown.
package browser

type GetVersion struct{}

func (GetVersion) MethodName() string { return "Browser.getVersion" }

type GetVersionReply struct {
	ProtocolVersion string `json:"protocolVersion"`
	Product         string `json:"product"`
	Revision        string `json:"revision"`
	UserAgent       string `json:"userAgent"`
	JSVersion       string `json:"jsVersion"`
}

// Close asks the browser process to shut down gracefully.
type Close struct{}

func (Close) MethodName() string { return "Browser.close" }

type CloseReply struct{}
