package cdp

import (
	"context"
	"encoding/json"
	"time"
)

// Method is a typed protocol command. The params struct itself implements
// Method: it serializes to the request's params object and names the wire
// method. The result shape is bound at the call site via the type parameter
// of Call.
type Method interface {
	MethodName() string
}

// Call sends m on the given session and blocks until the decoded result, a
// remote rejection (*ProtocolError), a decode failure (*DecodeError), a
// timeout (*CallTimeoutError), or connection loss (ErrConnClosed). An empty
// sessionID addresses the browser itself.
//
// Call never retries. A caller that times out stops waiting; the abandoned
// registry slot is reclaimed when the response eventually arrives or the
// connection dies.
func Call[R any](ctx context.Context, conn *Conn, sessionID string, m Method) (R, error) {
	var ret R

	id := conn.nextID()
	ch, err := conn.calls.register(id)
	if err != nil {
		return ret, err
	}

	req := request{ID: id, SessionID: sessionID, Method: m.MethodName(), Params: m}
	conn.log.Debugw("calling method", "Method", req.Method, "ID", id, "SessionID", sessionID)
	if err := conn.send(ctx, req); err != nil {
		conn.calls.forget(id)
		return ret, err
	}

	timer := time.NewTimer(conn.callTimeout)
	defer timer.Stop()

	select {
	case rep := <-ch:
		if rep.err != nil {
			return ret, rep.err
		}
		if rep.remoteErr != nil {
			return ret, rep.remoteErr
		}
		if len(rep.result) > 0 {
			if err := json.Unmarshal(rep.result, &ret); err != nil {
				return ret, &DecodeError{Method: req.Method, Err: err}
			}
		}
		return ret, nil
	case <-timer.C:
		return ret, &CallTimeoutError{Method: req.Method, Timeout: conn.callTimeout}
	case <-ctx.Done():
		return ret, ctx.Err()
	}
}

// CallOnBrowser is Call with no session: the command is handled by the
// browser process itself rather than a tab.
func CallOnBrowser[R any](ctx context.Context, conn *Conn, m Method) (R, error) {
	return Call[R](ctx, conn, "", m)
}
