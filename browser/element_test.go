package browser

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/browserctl/browserctl/cdp/cdptest"
	"github.com/browserctl/browserctl/protocol/dom"
)

func TestQuadMidpoint(t *testing.T) {
	// Axis-aligned rectangle (10,20)-(110,60).
	q := dom.Quad{10, 20, 110, 20, 110, 60, 10, 60}
	p := quadMidpoint(q)
	assert.Equal(t, Point{X: 60, Y: 40}, p)

	assert.Equal(t, Point{}, quadMidpoint(dom.Quad{1, 2, 3}))
}

func TestMarginViewport(t *testing.T) {
	model := dom.BoxModel{Margin: dom.Quad{5, 10, 205, 10, 205, 110, 5, 110}}
	vp := marginViewport(model)
	require.NotNil(t, vp)
	assert.Equal(t, 5.0, vp.X)
	assert.Equal(t, 10.0, vp.Y)
	assert.Equal(t, 200.0, vp.Width)
	assert.Equal(t, 100.0, vp.Height)

	assert.Nil(t, marginViewport(dom.BoxModel{}))
}

func findTestElement(t *testing.T) (*cdptest.Server, *Element) {
	t.Helper()
	s, tab := newTestTab(t)
	stubDocument(s)
	s.Handle("DOM.querySelector", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]int{"nodeId": 42})
	})
	el, err := tab.FindElement(context.Background(), "#target")
	require.NoError(t, err)
	return s, el
}

func TestElementAttributes(t *testing.T) {
	s, el := findTestElement(t)
	s.Handle("DOM.getAttributes", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]any{"attributes": []string{"href", "/login", "id", "target"}})
	})

	attrs, err := el.Attributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"href": "/login", "id": "target"}, attrs)
}

func TestElementClick(t *testing.T) {
	s, el := findTestElement(t)
	s.Handle("DOM.getBoxModel", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]any{"model": map[string]any{
			"content": []float64{0, 0, 100, 0, 100, 50, 0, 50},
			"width":   100,
			"height":  50,
		}})
	})

	require.NoError(t, el.Click(context.Background()))

	events := methodsSent(s, "Input.dispatchMouseEvent")
	require.Len(t, events, 3)
	var pressed struct {
		Type string  `json:"type"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
	}
	require.NoError(t, json.Unmarshal(events[1].Params, &pressed))
	assert.Equal(t, "mousePressed", pressed.Type)
	assert.Equal(t, 50.0, pressed.X)
	assert.Equal(t, 25.0, pressed.Y)
}

func TestElementTypeIntoFocusesFirst(t *testing.T) {
	s, el := findTestElement(t)
	require.NoError(t, el.TypeInto(context.Background(), "x"))

	require.Len(t, methodsSent(s, "DOM.focus"), 1)
	assert.Len(t, methodsSent(s, "Input.dispatchKeyEvent"), 2)
}

func TestElementCallJSFunction(t *testing.T) {
	s, el := findTestElement(t)
	s.Handle("DOM.resolveNode", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]any{"object": map[string]any{"type": "object", "objectId": "obj-1"}})
	})
	s.Handle("Runtime.callFunctionOn", func(req cdptest.Request) cdptest.Response {
		return cdptest.Result(map[string]any{
			"result": map[string]any{"type": "string", "value": "hello"},
		})
	})

	obj, err := el.CallJSFunction(context.Background(), "function() { return this.textContent; }")
	require.NoError(t, err)

	var text string
	require.NoError(t, obj.DecodeValue(&text))
	assert.Equal(t, "hello", text)

	calls := methodsSent(s, "Runtime.callFunctionOn")
	require.Len(t, calls, 1)
	var params struct {
		ObjectID string `json:"objectId"`
	}
	require.NoError(t, json.Unmarshal(calls[0].Params, &params))
	assert.Equal(t, "obj-1", params.ObjectID)
}
