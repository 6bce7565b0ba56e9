package launch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// VersionInfo mirrors the browser's /json/version document.
type VersionInfo struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	UserAgent            string `json:"User-Agent"`
	V8Version            string `json:"V8-Version"`
	WebKitVersion        string `json:"WebKit-Version"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

type logAdapter struct {
	*zap.SugaredLogger
}

func (a *logAdapter) Printf(msg string, args ...interface{}) { a.Debugf(msg, args...) }

// DiscoverEndpoint polls baseURL/json/version until the browser answers and
// returns its advertised websocket debugger URL. A freshly started browser
// takes a moment to bind the port, so connection refusals are retried until
// ctx expires.
func DiscoverEndpoint(ctx context.Context, baseURL string, log *zap.SugaredLogger) (VersionInfo, error) {
	var info VersionInfo

	client := retryablehttp.NewClient()
	client.RetryMax = 100
	client.RetryWaitMin = 50 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond
	client.Logger = &logAdapter{SugaredLogger: log}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/json/version", nil)
	if err != nil {
		return info, fmt.Errorf("building version request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return info, fmt.Errorf("fetching %s/json/version: %w", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("unexpected status %d from /json/version", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("decoding /json/version: %w", err)
	}
	if info.WebSocketDebuggerURL == "" {
		return info, fmt.Errorf("/json/version reported no webSocketDebuggerUrl")
	}
	return info, nil
}
