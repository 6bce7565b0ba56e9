// Package cdptest provides an in-process fake of a browser's debugging
// endpoint for tests: an HTTP server exposing /json/version and a websocket
// endpoint that answers protocol commands from registered handlers and can
// push events and arbitrary frames to connected clients.
package cdptest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/browserctl/browserctl/cdp"
)

// Request is one decoded command frame received from the client under test.
type Request struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"sessionId"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params"`
}

// Response tells the server what to send back for a request.
type Response struct {
	Result any
	Error  *cdp.ProtocolError
	// Pend suppresses the response entirely, leaving the caller blocked.
	Pend bool
}

// Result is a successful response carrying v.
func Result(v any) Response { return Response{Result: v} }

// Errorf is a remote rejection.
func Errorf(code int, format string, args ...any) Response {
	return Response{Error: &cdp.ProtocolError{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// Pending never responds.
func Pending() Response { return Response{Pend: true} }

// HandlerFunc produces the response for one request.
type HandlerFunc func(req Request) Response

// Server is the fake endpoint. The zero default for unhandled methods is an
// empty result object, which matches how the browser answers commands like
// Page.enable.
type Server struct {
	log *zap.SugaredLogger
	hs  *httptest.Server

	wsPath string

	// writeMu serializes websocket writes: responses and pushed events may
	// come from different goroutines.
	writeMu sync.Mutex

	mu             sync.Mutex
	handlers       map[string]HandlerFunc
	defaultHandler HandlerFunc
	conns          map[*websocket.Conn]struct{}
	requests       []Request
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l.Named("cdptest").Sugar() }
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		log:      zap.NewNop().Sugar(),
		wsPath:   "/devtools/browser/" + uuid.NewString(),
		handlers: make(map[string]HandlerFunc),
		conns:    make(map[*websocket.Conn]struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	router := httprouter.New()
	router.GET("/json/version", s.version)
	router.GET(s.wsPath, s.acceptWS)
	s.hs = httptest.NewServer(router)
	return s
}

func (s *Server) Close() {
	s.mu.Lock()
	for c := range s.conns {
		c.Close(websocket.StatusNormalClosure, "server closing")
	}
	s.mu.Unlock()
	s.hs.Close()
}

// BaseURL is the HTTP base, e.g. for /json/version discovery.
func (s *Server) BaseURL() string { return s.hs.URL }

// WSURL is the websocket debugger URL clients should dial.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.hs.URL, "http") + s.wsPath
}

// Handle registers fn for the given protocol method.
func (s *Server) Handle(method string, fn HandlerFunc) {
	s.mu.Lock()
	s.handlers[method] = fn
	s.mu.Unlock()
}

// HandleDefault replaces the fallback handler for unregistered methods.
func (s *Server) HandleDefault(fn HandlerFunc) {
	s.mu.Lock()
	s.defaultHandler = fn
	s.mu.Unlock()
}

// Requests returns a copy of every request received so far, in order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Event pushes an event frame to every connected client.
func (s *Server) Event(method, sessionID string, params any) {
	ev := struct {
		Method    string `json:"method"`
		SessionID string `json:"sessionId,omitempty"`
		Params    any    `json:"params"`
	}{Method: method, SessionID: sessionID, Params: params}
	b, err := json.Marshal(ev)
	if err != nil {
		panic(fmt.Sprintf("cdptest: encoding event: %s", err))
	}
	s.broadcast(b)
}

// SendRaw pushes arbitrary bytes as one frame, e.g. to exercise malformed
// frame handling.
func (s *Server) SendRaw(b []byte) {
	s.broadcast(b)
}

// DropConns abruptly closes every live websocket, simulating browser death.
func (s *Server) DropConns() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		c.Close(websocket.StatusGoingAway, "dropped")
	}
}

func (s *Server) version(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := map[string]string{
		"Browser":              "Chrome/120.0.0.0 (cdptest)",
		"Protocol-Version":     "1.3",
		"webSocketDebuggerUrl": s.WSURL(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) acceptWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Debugf("accept error: %s", err)
		return
	}
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		c.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			s.log.Debugf("read error: %s", err)
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.log.Debugf("ignoring undecodable request: %s", err)
			continue
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		fn, ok := s.handlers[req.Method]
		if !ok {
			fn = s.defaultHandler
		}
		s.mu.Unlock()

		resp := Response{Result: struct{}{}}
		if fn != nil {
			resp = fn(req)
		}
		if resp.Pend {
			continue
		}
		out := map[string]any{"id": req.ID}
		if req.SessionID != "" {
			out["sessionId"] = req.SessionID
		}
		if resp.Error != nil {
			out["error"] = resp.Error
		} else {
			result := resp.Result
			if result == nil {
				result = struct{}{}
			}
			out["result"] = result
		}
		b, err := json.Marshal(out)
		if err != nil {
			s.log.Debugf("encoding response: %s", err)
			continue
		}
		s.writeMu.Lock()
		err = c.Write(ctx, websocket.MessageText, b)
		s.writeMu.Unlock()
		if err != nil {
			s.log.Debugf("write error: %s", err)
			return
		}
	}
}

func (s *Server) broadcast(b []byte) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, c := range conns {
		if err := c.Write(context.Background(), websocket.MessageText, b); err != nil {
			s.log.Debugf("broadcast write error: %s", err)
		}
	}
}
