// Package browser sits on top of the cdp transport and exposes the familiar
// browser/tab/element model: open a tab, navigate it, find elements, type,
// click, screenshot. It is handed an already-established debugging endpoint;
// launching the browser process is the launch package's job.
package browser

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/browserctl/browserctl/cdp"
	browserproto "github.com/browserctl/browserctl/protocol/browser"
	"github.com/browserctl/browserctl/protocol/target"
)

// Browser is a handle to one browser process over one cdp connection. Any
// number of tabs can be driven through it concurrently.
type Browser struct {
	log  *zap.SugaredLogger
	conn *cdp.Conn
}

type Option func(*Browser)

func WithLogger(l *zap.Logger) Option {
	return func(b *Browser) { b.log = l.Named("browser").Sugar() }
}

// Connect dials the browser's websocket debugger URL.
func Connect(ctx context.Context, wsURL string, opts ...Option) (*Browser, error) {
	b := newBrowser(opts...)
	conn, err := cdp.Dial(ctx, wsURL, cdp.WithLogger(b.log.Desugar()))
	if err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	b.conn = conn
	return b, nil
}

// NewBrowser wraps an existing connection.
func NewBrowser(conn *cdp.Conn, opts ...Option) *Browser {
	b := newBrowser(opts...)
	b.conn = conn
	return b
}

func newBrowser(opts ...Option) *Browser {
	b := &Browser{log: zap.NewNop().Sugar()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Conn exposes the underlying connection for callers issuing protocol
// commands this package has no convenience wrapper for.
func (b *Browser) Conn() *cdp.Conn { return b.conn }

// Version reports the browser build and protocol version.
func (b *Browser) Version(ctx context.Context) (browserproto.GetVersionReply, error) {
	return cdp.CallOnBrowser[browserproto.GetVersionReply](ctx, b.conn, browserproto.GetVersion{})
}

// Targets lists the browser's current debuggable targets.
func (b *Browser) Targets(ctx context.Context) ([]target.Info, error) {
	reply, err := cdp.CallOnBrowser[target.GetTargetsReply](ctx, b.conn, target.GetTargets{})
	if err != nil {
		return nil, fmt.Errorf("listing targets: %w", err)
	}
	return reply.TargetInfos, nil
}

// NewTab opens a new page target at url (about:blank if empty) and attaches
// to it.
func (b *Browser) NewTab(ctx context.Context, url string) (*Tab, error) {
	if url == "" {
		url = "about:blank"
	}
	created, err := cdp.CallOnBrowser[target.CreateTargetReply](ctx, b.conn, target.CreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("creating target: %w", err)
	}
	return b.AttachTab(ctx, created.TargetID)
}

// AttachTab attaches to an existing target and returns a Tab driving it.
func (b *Browser) AttachTab(ctx context.Context, targetID target.ID) (*Tab, error) {
	return newTab(ctx, b.conn, b.log, targetID)
}

// FirstTab attaches to the first existing page target, which every freshly
// launched browser has.
func (b *Browser) FirstTab(ctx context.Context) (*Tab, error) {
	infos, err := b.Targets(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Type == "page" {
			return b.AttachTab(ctx, info.TargetID)
		}
	}
	return nil, fmt.Errorf("browser has no page targets")
}

// Close asks the browser process to exit and closes the connection. The
// Browser.close command is best-effort: a browser that already died can't
// acknowledge it.
func (b *Browser) Close(ctx context.Context) error {
	if _, err := cdp.CallOnBrowser[browserproto.CloseReply](ctx, b.conn, browserproto.Close{}); err != nil {
		b.log.Debugf("Browser.close failed: %s", err)
	}
	return b.conn.Close()
}
