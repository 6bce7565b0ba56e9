package browser

import (
	"context"
	"fmt"

	"github.com/browserctl/browserctl/cdp"
	"github.com/browserctl/browserctl/protocol/dom"
	"github.com/browserctl/browserctl/protocol/page"
	"github.com/browserctl/browserctl/protocol/runtime"
)

// Element is a handle to one DOM node found on a tab. It stays valid until
// the page navigates or mutates it away.
type Element struct {
	tab      *Tab
	nodeID   dom.NodeID
	selector string
}

// NodeID is the node's id in the DOM agent's mirror.
func (e *Element) NodeID() dom.NodeID { return e.nodeID }

// Selector is the selector the element was found by.
func (e *Element) Selector() string { return e.selector }

// Description fetches a deep description of the node.
func (e *Element) Description(ctx context.Context) (dom.Node, error) {
	return e.tab.DescribeNode(ctx, e.nodeID)
}

// Attributes returns the element's attributes as a map.
func (e *Element) Attributes(ctx context.Context) (map[string]string, error) {
	reply, err := cdp.Call[dom.GetAttributesReply](ctx, e.tab.conn, e.tab.sessionID, dom.GetAttributes{NodeID: e.nodeID})
	if err != nil {
		return nil, fmt.Errorf("getting attributes of %q: %w", e.selector, err)
	}
	n := dom.Node{Attributes: reply.Attributes}
	return n.AttributeMap(), nil
}

// BoxModel returns the element's layout boxes.
func (e *Element) BoxModel(ctx context.Context) (dom.BoxModel, error) {
	reply, err := cdp.Call[dom.GetBoxModelReply](ctx, e.tab.conn, e.tab.sessionID, dom.GetBoxModel{NodeID: e.nodeID})
	if err != nil {
		return dom.BoxModel{}, fmt.Errorf("getting box model of %q: %w", e.selector, err)
	}
	return reply.Model, nil
}

// Midpoint returns the center of the element's content box.
func (e *Element) Midpoint(ctx context.Context) (Point, error) {
	model, err := e.BoxModel(ctx)
	if err != nil {
		return Point{}, err
	}
	return quadMidpoint(model.Content), nil
}

// quadMidpoint averages a quad's four corners.
func quadMidpoint(q dom.Quad) Point {
	var p Point
	if len(q) != 8 {
		return p
	}
	for i := 0; i < 8; i += 2 {
		p.X += q[i]
		p.Y += q[i+1]
	}
	p.X /= 4
	p.Y /= 4
	return p
}

// Click clicks the element's midpoint.
func (e *Element) Click(ctx context.Context) error {
	p, err := e.Midpoint(ctx)
	if err != nil {
		return err
	}
	e.tab.log.Debugw("clicking element", "Selector", e.selector, "X", p.X, "Y", p.Y)
	return e.tab.ClickPoint(ctx, p)
}

// Focus gives the element input focus.
func (e *Element) Focus(ctx context.Context) error {
	_, err := cdp.Call[dom.FocusReply](ctx, e.tab.conn, e.tab.sessionID, dom.Focus{NodeID: e.nodeID})
	if err != nil {
		return fmt.Errorf("focusing %q: %w", e.selector, err)
	}
	return nil
}

// TypeInto focuses the element and types s.
func (e *Element) TypeInto(ctx context.Context, s string) error {
	if err := e.Focus(ctx); err != nil {
		return err
	}
	return e.tab.TypeStr(ctx, s)
}

// CallJSFunction resolves the node to a remote object and invokes
// functionDeclaration with the element as its `this`.
func (e *Element) CallJSFunction(ctx context.Context, functionDeclaration string) (runtime.RemoteObject, error) {
	resolved, err := cdp.Call[dom.ResolveNodeReply](ctx, e.tab.conn, e.tab.sessionID, dom.ResolveNode{NodeID: e.nodeID})
	if err != nil {
		return runtime.RemoteObject{}, fmt.Errorf("resolving node for %q: %w", e.selector, err)
	}
	reply, err := cdp.Call[runtime.CallFunctionOnReply](ctx, e.tab.conn, e.tab.sessionID, runtime.CallFunctionOn{
		ObjectID:            resolved.Object.ObjectID,
		FunctionDeclaration: functionDeclaration,
		ReturnByValue:       true,
	})
	if err != nil {
		return runtime.RemoteObject{}, fmt.Errorf("calling function on %q: %w", e.selector, err)
	}
	if reply.ExceptionDetails != nil {
		return runtime.RemoteObject{}, fmt.Errorf("function threw: %w", reply.ExceptionDetails)
	}
	return reply.Result, nil
}

// CaptureScreenshot screenshots just this element, clipped to its margin
// box.
func (e *Element) CaptureScreenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error) {
	model, err := e.BoxModel(ctx)
	if err != nil {
		return nil, err
	}
	opts.Clip = marginViewport(model)
	return e.tab.CaptureScreenshot(ctx, opts)
}

// marginViewport bounds the margin quad as a clip rectangle.
func marginViewport(model dom.BoxModel) *page.Viewport {
	q := model.Margin
	if len(q) != 8 {
		return nil
	}
	minX, minY := q[0], q[1]
	maxX, maxY := q[0], q[1]
	for i := 2; i < 8; i += 2 {
		minX = min(minX, q[i])
		maxX = max(maxX, q[i])
		minY = min(minY, q[i+1])
		maxY = max(maxY, q[i+1])
	}
	return &page.Viewport{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY, Scale: 1}
}
