// Package target contains the Target domain: discovery of debuggable
// targets and session attachment.
package target

// ID identifies one debuggable target (e.g. a page).
type ID = string

// SessionID identifies an attached session on a target. Commands and events
// addressed to a tab carry its session id.
type SessionID = string

type Info struct {
	TargetID         ID     `json:"targetId"`
	Type             string `json:"type"`
	Title            string `json:"title"`
	URL              string `json:"url"`
	Attached         bool   `json:"attached"`
	OpenerID         ID     `json:"openerId,omitempty"`
	BrowserContextID string `json:"browserContextId,omitempty"`
}

type CreateTarget struct {
	URL string `json:"url"`
}

func (CreateTarget) MethodName() string { return "Target.createTarget" }

type CreateTargetReply struct {
	TargetID ID `json:"targetId"`
}

// AttachToTarget attaches to a target. Flatten must be true for the session
// to be addressed via the top-level sessionId envelope field; the
// non-flattened mode tunnels messages through Target.sendMessageToTarget and
// is not supported here.
type AttachToTarget struct {
	TargetID ID    `json:"targetId"`
	Flatten  *bool `json:"flatten,omitempty"`
}

func (AttachToTarget) MethodName() string { return "Target.attachToTarget" }

type AttachToTargetReply struct {
	SessionID SessionID `json:"sessionId"`
}

type DetachFromTarget struct {
	SessionID SessionID `json:"sessionId,omitempty"`
}

func (DetachFromTarget) MethodName() string { return "Target.detachFromTarget" }

type DetachFromTargetReply struct{}

type CloseTarget struct {
	TargetID ID `json:"targetId"`
}

func (CloseTarget) MethodName() string { return "Target.closeTarget" }

type CloseTargetReply struct {
	Success bool `json:"success"`
}

type GetTargets struct{}

func (GetTargets) MethodName() string { return "Target.getTargets" }

type GetTargetsReply struct {
	TargetInfos []Info `json:"targetInfos"`
}

type SetDiscoverTargets struct {
	Discover bool `json:"discover"`
}

func (SetDiscoverTargets) MethodName() string { return "Target.setDiscoverTargets" }

type SetDiscoverTargetsReply struct{}

// Event names and payloads.
const (
	EventTargetCreated     = "Target.targetCreated"
	EventTargetDestroyed   = "Target.targetDestroyed"
	EventTargetInfoChanged = "Target.targetInfoChanged"
	EventAttachedToTarget  = "Target.attachedToTarget"
)

type TargetCreatedEvent struct {
	TargetInfo Info `json:"targetInfo"`
}

type TargetDestroyedEvent struct {
	TargetID ID `json:"targetId"`
}

type TargetInfoChangedEvent struct {
	TargetInfo Info `json:"targetInfo"`
}

type AttachedToTargetEvent struct {
	SessionID          SessionID `json:"sessionId"`
	TargetInfo         Info      `json:"targetInfo"`
	WaitingForDebugger bool      `json:"waitingForDebugger"`
}
