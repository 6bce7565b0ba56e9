// Package dom contains the DOM domain: document access, element lookup, and
// geometry.
package dom

import "github.com/browserctl/browserctl/protocol/runtime"

// NodeID identifies a DOM node within the agent's node mirror.
type NodeID = int64

type BackendNodeID = int64

// Node is a mirror of a DOM node. Only the fields this client consumes are
// declared; unknown fields are ignored on decode.
type Node struct {
	NodeID           NodeID        `json:"nodeId"`
	BackendNodeID    BackendNodeID `json:"backendNodeId"`
	ParentID         NodeID        `json:"parentId,omitempty"`
	NodeType         int           `json:"nodeType"`
	NodeName         string        `json:"nodeName"`
	LocalName        string        `json:"localName"`
	NodeValue        string        `json:"nodeValue"`
	ChildNodeCount   int           `json:"childNodeCount,omitempty"`
	Children         []Node        `json:"children,omitempty"`
	// Attributes is a flat [name1, value1, name2, value2, ...] list.
	Attributes  []string `json:"attributes,omitempty"`
	DocumentURL string   `json:"documentURL,omitempty"`
	BaseURL     string   `json:"baseURL,omitempty"`
}

// AttributeMap folds the flat attribute list into name/value pairs.
func (n *Node) AttributeMap() map[string]string {
	m := make(map[string]string, len(n.Attributes)/2)
	for i := 0; i+1 < len(n.Attributes); i += 2 {
		m[n.Attributes[i]] = n.Attributes[i+1]
	}
	return m
}

type GetDocument struct {
	Depth  *int  `json:"depth,omitempty"`
	Pierce *bool `json:"pierce,omitempty"`
}

func (GetDocument) MethodName() string { return "DOM.getDocument" }

type GetDocumentReply struct {
	Root Node `json:"root"`
}

type QuerySelector struct {
	NodeID   NodeID `json:"nodeId"`
	Selector string `json:"selector"`
}

func (QuerySelector) MethodName() string { return "DOM.querySelector" }

type QuerySelectorReply struct {
	// NodeID is 0 when nothing matched.
	NodeID NodeID `json:"nodeId"`
}

type QuerySelectorAll struct {
	NodeID   NodeID `json:"nodeId"`
	Selector string `json:"selector"`
}

func (QuerySelectorAll) MethodName() string { return "DOM.querySelectorAll" }

type QuerySelectorAllReply struct {
	NodeIDs []NodeID `json:"nodeIds"`
}

type DescribeNode struct {
	NodeID        *NodeID        `json:"nodeId,omitempty"`
	BackendNodeID *BackendNodeID `json:"backendNodeId,omitempty"`
	Depth         *int           `json:"depth,omitempty"`
}

func (DescribeNode) MethodName() string { return "DOM.describeNode" }

type DescribeNodeReply struct {
	Node Node `json:"node"`
}

type GetAttributes struct {
	NodeID NodeID `json:"nodeId"`
}

func (GetAttributes) MethodName() string { return "DOM.getAttributes" }

type GetAttributesReply struct {
	Attributes []string `json:"attributes"`
}

type Focus struct {
	NodeID NodeID `json:"nodeId"`
}

func (Focus) MethodName() string { return "DOM.focus" }

type FocusReply struct{}

// Quad is four corner points as [x1,y1,x2,y2,x3,y3,x4,y4].
type Quad []float64

type BoxModel struct {
	Content Quad    `json:"content"`
	Padding Quad    `json:"padding"`
	Border  Quad    `json:"border"`
	Margin  Quad    `json:"margin"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

type GetBoxModel struct {
	NodeID NodeID `json:"nodeId"`
}

func (GetBoxModel) MethodName() string { return "DOM.getBoxModel" }

type GetBoxModelReply struct {
	Model BoxModel `json:"model"`
}

type ResolveNode struct {
	NodeID NodeID `json:"nodeId,omitempty"`
}

func (ResolveNode) MethodName() string { return "DOM.resolveNode" }

type ResolveNodeReply struct {
	Object runtime.RemoteObject `json:"object"`
}
