// Package websocket maintains the client side of the sync protocol:
// a single long-lived connection carrying correlated request/reply
// frames and server-initiated broadcasts.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs1703/logger"

	"nonbiri/pkg/models"
)

const (
	writeWait            = 10 * time.Second
	defaultRetryInterval = 10 * time.Second
)

var (
	// ErrChannelClosed is returned when a request is attempted while
	// the connection is down.
	ErrChannelClosed = errors.New("channel is closed")
	// ErrSessionClosed is returned after Shutdown.
	ErrSessionClosed = errors.New("session is closed")
)

// State is the connection lifecycle phase.
type State int

const (
	Disconnected State = iota
	Connecting
	Open
)

// Error is the structured error attached to a reply frame.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Err converts a wire error to a Go error, mapping known server
// messages back to their sentinels.
func (e *Error) Err() error {
	if e == nil {
		return nil
	}
	if e.Message == "" {
		return fmt.Errorf("error code %d", e.Code)
	}
	return models.WireError(e.Message)
}

// Message is an incoming frame. Replies carry the identifier of the
// request they answer; broadcasts carry none.
type Message struct {
	Identifier int             `json:"identifier,omitempty"`
	Task       models.Task     `json:"task"`
	Body       json.RawMessage `json:"body,omitempty"`
	Error      *Error          `json:"error,omitempty"`
}

type request struct {
	Identifier int         `json:"identifier"`
	Task       models.Task `json:"task"`
	Body       any         `json:"body,omitempty"`
}

// Handler consumes every frame of a task, replies included.
type Handler func(message *Message)

// RemoveHandler unsubscribes the handler it was returned for. Safe
// to call more than once and while a dispatch is running.
type RemoveHandler func()

// Client is the session surface consumed by view stores.
type Client interface {
	SendRequest(ctx context.Context, task models.Task, body any) (json.RawMessage, error)
	Handle(task models.Task, handler Handler) RemoveHandler
}

type handlerEntry struct {
	fn      Handler
	removed atomic.Bool
}

// Session owns the connection, reconnecting at a fixed interval for
// as long as it has not been shut down.
type Session struct {
	url           string
	retryInterval time.Duration

	mu         sync.Mutex
	conn       *websocket.Conn
	state      State
	identifier int
	pending    map[int]chan *Message
	openCh     chan struct{}
	started    bool

	done     chan struct{}
	shutdown sync.Once

	writeMu sync.Mutex

	hmu      sync.Mutex
	handlers map[models.Task][]*handlerEntry
}

var _ Client = (*Session)(nil)

// NewSession prepares a session for url. Nothing is dialed until
// Init is called.
func NewSession(url string, retryInterval time.Duration) *Session {
	if retryInterval <= 0 {
		retryInterval = defaultRetryInterval
	}
	return &Session{
		url:           url,
		retryInterval: retryInterval,
		openCh:        make(chan struct{}),
		done:          make(chan struct{}),
		handlers:      make(map[models.Task][]*handlerEntry),
	}
}

// State returns the current connection phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Init starts the connection loop on first use and blocks until the
// connection is open, the context expires or the session is shut
// down. Concurrent calls share the same attempt.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.started = true
		go s.run()
	}
	if s.state == Open {
		s.mu.Unlock()
		return nil
	}
	openCh := s.openCh
	s.mu.Unlock()

	select {
	case <-openCh:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.mu.Lock()
		s.state = Connecting
		s.mu.Unlock()

		conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
		if err != nil {
			logger.Err.Println(err)
			s.mu.Lock()
			s.state = Disconnected
			s.mu.Unlock()
			if !s.sleep() {
				return
			}
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.state = Open
		// Correlation restarts with every connection; replies from a
		// previous connection can no longer arrive.
		s.identifier = 1
		s.pending = make(map[int]chan *Message)
		close(s.openCh)
		s.mu.Unlock()
		logger.Inf.Println("Connected to", s.url)

		s.readLoop(conn)

		s.mu.Lock()
		s.conn = nil
		s.state = Disconnected
		// Requests in flight at disconnect stay unresolved, callers
		// bound their waits with contexts.
		s.pending = nil
		s.openCh = make(chan struct{})
		s.mu.Unlock()

		if !s.sleep() {
			return
		}
	}
}

func (s *Session) sleep() bool {
	select {
	case <-s.done:
		return false
	case <-time.After(s.retryInterval):
		return true
	}
}

func (s *Session) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, buf, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Err.Println(err)
			}
			return
		}

		message := &Message{}
		if err := json.Unmarshal(buf, message); err != nil {
			logger.Err.Println(err)
			continue
		}

		// Subscribers see the frame before the requester is released
		// so caches are already current when a request returns.
		s.dispatch(message)
		if message.Identifier > 0 {
			s.resolve(message)
		}
	}
}

func (s *Session) dispatch(message *Message) {
	s.hmu.Lock()
	entries := append([]*handlerEntry(nil), s.handlers[message.Task]...)
	s.hmu.Unlock()

	for _, e := range entries {
		if e.removed.Load() {
			continue
		}
		call(e.fn, message)
	}
}

func call(fn Handler, message *Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.Err.Println("handler panic:", r)
		}
	}()
	fn(message)
}

func (s *Session) resolve(message *Message) {
	s.mu.Lock()
	ch := s.pending[message.Identifier]
	delete(s.pending, message.Identifier)
	s.mu.Unlock()

	if ch != nil {
		ch <- message
	}
}

// Handle subscribes a handler to a task. Handlers run on the read
// loop in subscription order.
func (s *Session) Handle(task models.Task, handler Handler) RemoveHandler {
	e := &handlerEntry{fn: handler}

	s.hmu.Lock()
	s.handlers[task] = append(s.handlers[task], e)
	s.hmu.Unlock()

	return func() {
		if e.removed.Swap(true) {
			return
		}
		s.hmu.Lock()
		entries := s.handlers[task]
		for i, cur := range entries {
			if cur == e {
				s.handlers[task] = append(entries[:i], entries[i+1:]...)
				break
			}
		}
		s.hmu.Unlock()
	}
}

// SendRequest writes a correlated frame and blocks until its reply
// arrives or the context expires. Broadcast handlers for the task
// have already run when it returns.
func (s *Session) SendRequest(ctx context.Context, task models.Task, body any) (json.RawMessage, error) {
	s.mu.Lock()
	if s.state != Open || s.conn == nil {
		s.mu.Unlock()
		return nil, ErrChannelClosed
	}
	conn := s.conn
	id := s.identifier
	s.identifier++
	ch := make(chan *Message, 1)
	s.pending[id] = ch
	s.mu.Unlock()

	s.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteJSON(&request{Identifier: id, Task: task, Body: body})
	s.writeMu.Unlock()
	if err != nil {
		s.forget(id)
		return nil, err
	}

	select {
	case message := <-ch:
		if message.Error != nil {
			return nil, message.Error.Err()
		}
		return message.Body, nil
	case <-ctx.Done():
		s.forget(id)
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrSessionClosed
	}
}

func (s *Session) forget(id int) {
	s.mu.Lock()
	if s.pending != nil {
		delete(s.pending, id)
	}
	s.mu.Unlock()
}

// Shutdown closes the connection and stops the reconnect loop. The
// session cannot be reused afterwards.
func (s *Session) Shutdown() {
	s.shutdown.Do(func() {
		close(s.done)

		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.state = Disconnected
		s.mu.Unlock()

		if conn != nil {
			s.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			s.writeMu.Unlock()
			_ = conn.Close()
		}
	})
}
