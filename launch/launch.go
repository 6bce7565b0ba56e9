// Package launch supervises a local browser process: it locates a
// Chrome/Chromium binary, starts it with a debugging port and a throwaway
// profile, discovers the websocket debugger URL, and cleans everything up on
// Stop. The rest of the client only ever sees the resulting endpoint.
package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	internalnet "github.com/browserctl/browserctl/internal/net"
)

// chromeBinaryNames are tried in order when neither the CHROME env var nor
// WithPath points at a binary.
var chromeBinaryNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless_shell",
}

// wellKnownPaths are absolute locations tried after PATH lookup fails.
var wellKnownPaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/chromium",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
}

const defaultStartupTimeout = 20 * time.Second

// Chrome is a running, supervised browser process.
type Chrome struct {
	log *zap.SugaredLogger

	path           string
	headless       bool
	port           int
	windowSize     string
	extraArgs      []string
	startupTimeout time.Duration

	cmd        *exec.Cmd
	profileDir string
	wsURL      string

	stopOnce sync.Once
	stopErr  error
}

type Option func(*Chrome)

func WithLogger(l *zap.Logger) Option {
	return func(c *Chrome) { c.log = l.Named("launch").Sugar() }
}

// WithPath overrides binary discovery.
func WithPath(path string) Option {
	return func(c *Chrome) { c.path = path }
}

// WithHeadless controls headless mode (default true).
func WithHeadless(headless bool) Option {
	return func(c *Chrome) { c.headless = headless }
}

// WithPort pins the remote debugging port; 0 picks a free ephemeral port.
func WithPort(port int) Option {
	return func(c *Chrome) { c.port = port }
}

// WithWindowSize sets the browser window size, e.g. "1280,800".
func WithWindowSize(w, h int) Option {
	return func(c *Chrome) { c.windowSize = fmt.Sprintf("%d,%d", w, h) }
}

// WithArgs appends extra command-line flags.
func WithArgs(args ...string) Option {
	return func(c *Chrome) { c.extraArgs = append(c.extraArgs, args...) }
}

// WithStartupTimeout bounds how long Launch waits for the debug endpoint to
// come up.
func WithStartupTimeout(d time.Duration) Option {
	return func(c *Chrome) { c.startupTimeout = d }
}

// Launch starts a browser process and waits for its debugging endpoint to
// answer. On any failure the process and profile directory are cleaned up.
func Launch(ctx context.Context, opts ...Option) (*Chrome, error) {
	c := &Chrome{
		log:            zap.NewNop().Sugar(),
		headless:       true,
		startupTimeout: defaultStartupTimeout,
	}
	for _, o := range opts {
		o(c)
	}

	if c.path == "" {
		path, err := FindBinary()
		if err != nil {
			return nil, err
		}
		c.path = path
	}

	if c.port == 0 {
		port, err := internalnet.GetEphemeralTCPPort()
		if err != nil {
			return nil, fmt.Errorf("picking debugging port: %w", err)
		}
		c.port = port
	}

	profileDir := filepath.Join(os.TempDir(), "browserctl-profile-"+uuid.NewString())
	if err := os.MkdirAll(profileDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating profile dir: %w", err)
	}
	c.profileDir = profileDir

	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", c.port),
		"--user-data-dir=" + c.profileDir,
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-background-networking",
	}
	if c.headless {
		args = append(args, "--headless=new", "--disable-gpu", "--hide-scrollbars", "--mute-audio")
	}
	if c.windowSize != "" {
		args = append(args, "--window-size="+c.windowSize)
	}
	args = append(args, c.extraArgs...)
	args = append(args, "about:blank")

	c.log.Debugw("starting browser", "Path", c.path, "Args", args)
	cmd := exec.Command(c.path, args...)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(c.profileDir)
		return nil, fmt.Errorf("starting %s: %w", c.path, err)
	}
	c.cmd = cmd

	discoverCtx, cancel := context.WithTimeout(ctx, c.startupTimeout)
	defer cancel()
	info, err := DiscoverEndpoint(discoverCtx, fmt.Sprintf("http://127.0.0.1:%d", c.port), c.log)
	if err != nil {
		c.Stop()
		return nil, fmt.Errorf("waiting for debugging endpoint: %w", err)
	}
	c.wsURL = info.WebSocketDebuggerURL
	c.log.Infow("browser up", "Browser", info.Browser, "WSURL", c.wsURL)

	return c, nil
}

// FindBinary locates a Chrome/Chromium binary: the CHROME env var, then
// PATH, then well-known install locations.
func FindBinary() (string, error) {
	if env := os.Getenv("CHROME"); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", fmt.Errorf("CHROME env var points at %s: %w", env, err)
		}
		return env, nil
	}
	for _, name := range chromeBinaryNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	for _, path := range wellKnownPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no Chrome binary found; set CHROME or use WithPath")
}

// WebSocketDebuggerURL is the endpoint the cdp package should dial.
func (c *Chrome) WebSocketDebuggerURL() string { return c.wsURL }

// Port is the remote debugging port the browser bound.
func (c *Chrome) Port() int { return c.port }

// Stop kills the browser process and removes its profile directory.
// Idempotent.
func (c *Chrome) Stop() error {
	c.stopOnce.Do(func() {
		if c.cmd != nil && c.cmd.Process != nil {
			if err := c.cmd.Process.Kill(); err != nil {
				c.log.Debugf("killing browser process: %s", err)
			}
			// Reap it so the profile dir is no longer in use.
			_ = c.cmd.Wait()
		}
		if c.profileDir != "" {
			if err := os.RemoveAll(c.profileDir); err != nil {
				c.stopErr = fmt.Errorf("removing profile dir: %w", err)
			}
		}
	})
	return c.stopErr
}
