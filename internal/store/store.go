// Package store holds the per-view caches. Each store mounts to
// subscribe its task handlers and fetch initial state, folds every
// matching frame into its cache on the session's read loop, and
// unmounts to stop reacting. Results arriving after unmount are
// dropped.
package store

import (
	"encoding/json"
	"sync"

	"github.com/rs1703/logger"

	"nonbiri/internal/websocket"
	"nonbiri/pkg/models"
)

// base carries the lifecycle shared by every store. The mutex guards
// both the lifecycle flags and the embedding store's cache.
type base struct {
	client websocket.Client

	mu       sync.Mutex
	mounted  bool
	removers []websocket.RemoveHandler

	// OnChange, when set before Mount, is invoked after every cache
	// mutation. It runs outside the store lock.
	OnChange func()
}

// subscribe registers a handler and remembers its remover. Must be
// called with the lock held.
func (b *base) subscribe(task models.Task, handler websocket.Handler) {
	b.removers = append(b.removers, b.client.Handle(task, handler))
}

// Unmount removes every subscription. The cache keeps its last value
// but no longer changes.
func (b *base) Unmount() {
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	b.mounted = false
	removers := b.removers
	b.removers = nil
	b.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
}

// Mounted reports whether the store is reacting to frames.
func (b *base) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mounted
}

func (b *base) notify() {
	if b.OnChange != nil {
		b.OnChange()
	}
}

// rawList splits a JSON array body into its raw elements.
func rawList(body json.RawMessage) []json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		logger.Err.Println(err)
		return nil
	}
	return raws
}

// mangaIDOf extracts the mangaId key of a delta, or "".
func mangaIDOf(delta json.RawMessage) string {
	var probe struct {
		MangaID string `json:"mangaId"`
	}
	if err := json.Unmarshal(delta, &probe); err != nil {
		logger.Err.Println(err)
		return ""
	}
	return probe.MangaID
}

// idOf extracts the id key of a delta, or "".
func idOf(delta json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(delta, &probe); err != nil {
		logger.Err.Println(err)
		return ""
	}
	return probe.ID
}

var mangaTasks = []models.Task{
	models.TaskGetManga,
	models.TaskUpdateManga,
	models.TaskFollowManga,
	models.TaskUnfollowManga,
}

var chapterListTasks = []models.Task{
	models.TaskGetChapters,
	models.TaskUpdateChapters,
}

var readStateTasks = []models.Task{
	models.TaskReadChapter,
	models.TaskUnreadChapter,
}
