package cdp

import "encoding/json"

// request is the outbound wire envelope. The id namespace is shared across
// all sessions multiplexed over one connection.
type request struct {
	ID        int64  `json:"id"`
	SessionID string `json:"sessionId,omitempty"`
	Method    string `json:"method"`
	Params    any    `json:"params,omitempty"`
}

// frame is the inbound wire envelope. A frame is either a response to an
// earlier request (ID != 0, Result or Error set) or an unsolicited event
// (Method set). Anything else is malformed.
type frame struct {
	ID        int64           `json:"id"`
	Result    json.RawMessage `json:"result"`
	Error     *ProtocolError  `json:"error"`
	Method    string          `json:"method"`
	SessionID string          `json:"sessionId"`
	Params    json.RawMessage `json:"params"`
}

func (f *frame) isResponse() bool { return f.ID != 0 }

func (f *frame) isEvent() bool { return f.ID == 0 && f.Method != "" }

// Event is one protocol event as delivered to subscribers. Params is left
// raw; consumers decode the payloads they care about.
type Event struct {
	// Method is the protocol event name, e.g. "Page.lifecycleEvent".
	Method string
	// SessionID is the session the event belongs to, or empty for
	// browser-level events.
	SessionID string
	Params    json.RawMessage
}

// reply is what the call registry hands back to a waiting caller: the raw
// result payload, a remote rejection, or a transport error. At most one of
// remoteErr and err is set.
type reply struct {
	result    json.RawMessage
	remoteErr *ProtocolError
	err       error
}
