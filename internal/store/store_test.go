package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"nonbiri/internal/websocket"
	"nonbiri/pkg/models"
)

// fakeClient replays scripted replies and fans frames out to
// subscribers before the requester resumes, like the real session.
type fakeClient struct {
	mu       sync.Mutex
	handlers map[models.Task][]*fakeHandler
	requests []sentRequest
	reply    func(task models.Task, body any) (any, error)
}

type fakeHandler struct {
	fn      websocket.Handler
	removed bool
}

type sentRequest struct {
	task models.Task
	body any
}

func newFakeClient(reply func(task models.Task, body any) (any, error)) *fakeClient {
	return &fakeClient{
		handlers: make(map[models.Task][]*fakeHandler),
		reply:    reply,
	}
}

func (c *fakeClient) Handle(task models.Task, fn websocket.Handler) websocket.RemoveHandler {
	e := &fakeHandler{fn: fn}
	c.mu.Lock()
	c.handlers[task] = append(c.handlers[task], e)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		e.removed = true
		c.mu.Unlock()
	}
}

func (c *fakeClient) SendRequest(ctx context.Context, task models.Task, body any) (json.RawMessage, error) {
	c.mu.Lock()
	c.requests = append(c.requests, sentRequest{task: task, body: body})
	reply := c.reply
	c.mu.Unlock()

	if reply == nil {
		return nil, nil
	}
	res, err := reply(task, body)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	c.dispatch(&websocket.Message{Task: task, Body: raw})
	return raw, nil
}

func (c *fakeClient) dispatch(m *websocket.Message) {
	c.mu.Lock()
	entries := append([]*fakeHandler(nil), c.handlers[m.Task]...)
	c.mu.Unlock()

	for _, e := range entries {
		c.mu.Lock()
		removed := e.removed
		c.mu.Unlock()
		if !removed {
			e.fn(m)
		}
	}
}

// push delivers a broadcast frame.
func (c *fakeClient) push(t *testing.T, task models.Task, body any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal frame body: %v", err)
	}
	c.dispatch(&websocket.Message{Task: task, Body: raw})
}

func (c *fakeClient) sent() []sentRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentRequest(nil), c.requests...)
}

func (c *fakeClient) sentTasks() []models.Task {
	var tasks []models.Task
	for _, r := range c.sent() {
		tasks = append(tasks, r.task)
	}
	return tasks
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

func newTestManga(title string, followed bool, chapters int) *models.Manga {
	m := &models.Manga{
		ID:            uuid.NewString(),
		MangaMetadata: models.MangaMetadata{Title: title, Cover: "cover.jpg"},
		TotalChapters: chapters,
		Followed:      followed,
	}
	for i := 0; i < chapters; i++ {
		m.Chapters = append(m.Chapters, &models.Chapter{
			ID:      uuid.NewString(),
			MangaID: m.ID,
		})
	}
	return m
}

func readStateBody(chapterID, mangaID string, readed bool) map[string]any {
	return map[string]any{
		"chapterId": chapterID,
		"mangaId":   mangaID,
		"readed":    readed,
	}
}
