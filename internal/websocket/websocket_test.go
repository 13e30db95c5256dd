package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"nonbiri/pkg/models"
)

type replyFunc func(task models.Task, body json.RawMessage) (any, *Error)

// backend is a minimal in-process sync server used to exercise the
// session against real frames.
type backend struct {
	t        *testing.T
	server   *httptest.Server
	upgrader gorilla.Upgrader
	reply    replyFunc

	mu    sync.Mutex
	conns map[*gorilla.Conn]*sync.Mutex
	ids   []int
}

type outFrame struct {
	Identifier int         `json:"identifier,omitempty"`
	Task       models.Task `json:"task"`
	Body       any         `json:"body,omitempty"`
	Error      *Error      `json:"error,omitempty"`
}

func newBackend(t *testing.T, reply replyFunc) *backend {
	gin.SetMode(gin.TestMode)

	b := &backend{
		t:     t,
		reply: reply,
		conns: make(map[*gorilla.Conn]*sync.Mutex),
	}

	router := gin.New()
	router.GET("/ws", b.serve)
	b.server = httptest.NewServer(router)
	t.Cleanup(b.server.Close)

	return b
}

func (b *backend) url() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http") + "/ws"
}

func (b *backend) serve(c *gin.Context) {
	conn, err := b.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	writeMu := &sync.Mutex{}
	b.mu.Lock()
	b.conns[conn] = writeMu
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.conns, conn)
		b.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, buf, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var in struct {
			Identifier int             `json:"identifier"`
			Task       models.Task     `json:"task"`
			Body       json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(buf, &in); err != nil {
			continue
		}

		b.mu.Lock()
		b.ids = append(b.ids, in.Identifier)
		b.mu.Unlock()

		if b.reply == nil {
			continue
		}
		body, werr := b.reply(in.Task, in.Body)

		writeMu.Lock()
		_ = conn.WriteJSON(&outFrame{Identifier: in.Identifier, Task: in.Task, Body: body, Error: werr})
		writeMu.Unlock()
	}
}

// push sends a broadcast frame, one without an identifier, to every
// connection.
func (b *backend) push(task models.Task, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn, writeMu := range b.conns {
		writeMu.Lock()
		_ = conn.WriteJSON(&outFrame{Task: task, Body: body})
		writeMu.Unlock()
	}
}

func (b *backend) dropConnections() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.conns {
		_ = conn.Close()
	}
}

func (b *backend) identifiers() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.ids...)
}

func newTestSession(t *testing.T, b *backend) *Session {
	s := NewSession(b.url(), 50*time.Millisecond)
	t.Cleanup(s.Shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not reached in time")
}

func echoReply(task models.Task, body json.RawMessage) (any, *Error) {
	if len(body) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return body, nil
}

func TestSendRequest(t *testing.T) {
	b := newBackend(t, echoReply)
	s := newTestSession(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	body, err := s.SendRequest(ctx, models.TaskGetManga, "manga-1")
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	if string(body) != `"manga-1"` {
		t.Errorf("Body = %s, want %q", body, `"manga-1"`)
	}
}

func TestSendRequestWhileClosed(t *testing.T) {
	s := NewSession("ws://127.0.0.1:1/ws", time.Hour)
	t.Cleanup(s.Shutdown)

	_, err := s.SendRequest(context.Background(), models.TaskLibrary, nil)
	if !errors.Is(err, ErrChannelClosed) {
		t.Errorf("Error = %v, want %v", err, ErrChannelClosed)
	}
}

func TestInitContextExpiry(t *testing.T) {
	s := NewSession("ws://127.0.0.1:1/ws", time.Hour)
	t.Cleanup(s.Shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := s.Init(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestInitIdempotent(t *testing.T) {
	b := newBackend(t, nil)
	s := newTestSession(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Second Init failed: %v", err)
	}
	if s.State() != Open {
		t.Errorf("State = %d, want %d", s.State(), Open)
	}
}

func TestHandlersRunBeforeRequestResolves(t *testing.T) {
	b := newBackend(t, echoReply)
	s := newTestSession(t, b)

	var mu sync.Mutex
	var order []string
	record := func(name string) Handler {
		return func(*Message) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	s.Handle(models.TaskReadChapter, record("first"))
	s.Handle(models.TaskReadChapter, record("second"))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := s.SendRequest(ctx, models.TaskReadChapter, "ch-1"); err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}

	// Both subscribers must have observed the reply by the time the
	// request returned, in subscription order.
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("Dispatch order = %v, want [first second]", order)
	}
}

func TestRemoveHandlerDuringDispatch(t *testing.T) {
	b := newBackend(t, nil)
	s := newTestSession(t, b)

	var mu sync.Mutex
	var calls []string
	done := make(chan struct{}, 4)

	var removeSecond RemoveHandler
	s.Handle(models.TaskLibrary, func(*Message) {
		mu.Lock()
		calls = append(calls, "first")
		mu.Unlock()
		removeSecond()
		removeSecond() // repeated removal is a no-op
		done <- struct{}{}
	})
	removeSecond = s.Handle(models.TaskLibrary, func(*Message) {
		mu.Lock()
		calls = append(calls, "second")
		mu.Unlock()
		done <- struct{}{}
	})

	b.push(models.TaskLibrary, nil)
	<-done

	b.push(models.TaskLibrary, nil)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "first" {
		t.Errorf("Calls = %v, want [first first]", calls)
	}
}

func TestHandlerPanicIsolation(t *testing.T) {
	b := newBackend(t, nil)
	s := newTestSession(t, b)

	done := make(chan struct{})
	s.Handle(models.TaskTags, func(*Message) {
		panic("boom")
	})
	s.Handle(models.TaskTags, func(*Message) {
		close(done)
	})

	b.push(models.TaskTags, nil)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Second handler never ran after panic in the first")
	}
}

func TestIdentifierResetsOnReconnect(t *testing.T) {
	b := newBackend(t, echoReply)
	s := newTestSession(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		if _, err := s.SendRequest(ctx, models.TaskGetManga, "m"); err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
	}

	b.dropConnections()
	waitFor(t, func() bool { return s.State() != Open })
	waitFor(t, func() bool { return s.State() == Open })

	if _, err := s.SendRequest(ctx, models.TaskGetManga, "m"); err != nil {
		t.Fatalf("Request after reconnect failed: %v", err)
	}

	ids := b.identifiers()
	want := []int{1, 2, 3, 4, 5, 1}
	if len(ids) != len(want) {
		t.Fatalf("Recorded %d identifiers, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Identifiers = %v, want %v", ids, want)
		}
	}
}

func TestErrorFrameMapsToSentinel(t *testing.T) {
	b := newBackend(t, func(task models.Task, body json.RawMessage) (any, *Error) {
		return nil, &Error{Code: 404, Message: models.ErrMangaNotFound.Error()}
	})
	s := newTestSession(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := GetManga(ctx, s, "missing")
	if !errors.Is(err, models.ErrMangaNotFound) {
		t.Errorf("Error = %v, want %v", err, models.ErrMangaNotFound)
	}
}

func TestErrorFrameWithoutMessage(t *testing.T) {
	b := newBackend(t, func(task models.Task, body json.RawMessage) (any, *Error) {
		return nil, &Error{Code: 500}
	})
	s := newTestSession(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := s.SendRequest(ctx, models.TaskLibrary, nil)
	if err == nil || err.Error() != "error code 500" {
		t.Errorf("Error = %v, want %q", err, "error code 500")
	}
}

func TestRequestContextExpiry(t *testing.T) {
	// A backend that records frames but never replies.
	b := newBackend(t, nil)
	s := newTestSession(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := s.SendRequest(ctx, models.TaskLibrary, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Error = %v, want %v", err, context.DeadlineExceeded)
	}
}
