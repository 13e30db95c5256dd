package store

import (
	"context"
	"encoding/json"

	"github.com/rs1703/logger"

	"nonbiri/internal/reconcile"
	"nonbiri/internal/websocket"
	"nonbiri/pkg/models"
)

// HistoryEntry groups the read states of one manga in the history
// feed.
type HistoryEntry struct {
	MangaID string
	Title   string
	Cover   string
	Entries []*models.ReadState
}

// History caches the recently-read feed, newest first. Progress
// broadcasts move the touched chapter and its manga to the front;
// progress on a manga the feed does not know yet triggers a refetch.
type History struct {
	base

	entries    []*HistoryEntry
	loading    bool
	refetching bool
}

func NewHistory(client websocket.Client) *History {
	h := &History{}
	h.client = client
	return h
}

func (h *History) Mount() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mounted {
		return
	}
	h.mounted = true

	h.subscribe(models.TaskHistory, h.handleFeed)
	h.subscribe(models.TaskReadPage, h.handleReadState)
	for _, task := range readStateTasks {
		h.subscribe(task, h.handleReadStates)
	}
}

// Load fetches the feed. The cache is rebuilt by the subscribed
// handler before the call returns.
func (h *History) Load(ctx context.Context) error {
	h.mu.Lock()
	if h.loading {
		h.mu.Unlock()
		return nil
	}
	h.loading = true
	h.mu.Unlock()
	h.notify()

	_, err := websocket.GetHistory(ctx, h.client)

	h.mu.Lock()
	if h.mounted {
		h.loading = false
	}
	h.mu.Unlock()
	h.notify()
	return err
}

// Toggle flips the read mark of a feed item. An item that was never
// opened is marked read, everything else is cleared back to unread.
func (h *History) Toggle(ctx context.Context, r *models.ReadState) error {
	var err error
	if r.Unreaded() {
		_, err = websocket.ReadChapter(ctx, h.client, r.ChapterID)
	} else {
		_, err = websocket.UnreadChapter(ctx, h.client, r.ChapterID)
	}
	return err
}

func (h *History) handleFeed(m *websocket.Message) {
	if m.Error != nil || len(m.Body) == 0 {
		return
	}
	var states []*models.ReadState
	if err := json.Unmarshal(m.Body, &states); err != nil {
		logger.Err.Println(err)
		return
	}

	entries := groupHistory(states)

	h.mu.Lock()
	if !h.mounted {
		h.mu.Unlock()
		return
	}
	h.entries = entries
	h.refetching = false
	h.mu.Unlock()
	h.notify()
}

func (h *History) handleReadState(m *websocket.Message) {
	if m.Error != nil || len(m.Body) == 0 {
		return
	}
	h.apply([]json.RawMessage{m.Body})
}

func (h *History) handleReadStates(m *websocket.Message) {
	if m.Error != nil {
		return
	}
	if raws := rawList(m.Body); len(raws) > 0 {
		h.apply(raws)
	}
}

func (h *History) apply(deltas []json.RawMessage) {
	refetch := false

	h.mu.Lock()
	if !h.mounted {
		h.mu.Unlock()
		return
	}
	for _, delta := range deltas {
		var probe struct {
			ChapterID string `json:"chapterId"`
			MangaID   string `json:"mangaId"`
		}
		if err := json.Unmarshal(delta, &probe); err != nil {
			logger.Err.Println(err)
			continue
		}

		idx := h.indexOf(probe.MangaID)
		if idx < 0 {
			// Progress on a manga the feed has never listed; only the
			// server knows its denormalized row.
			refetch = true
			continue
		}

		entry := h.entries[idx]
		merged := takeState(entry, probe.ChapterID)
		if merged == nil {
			merged = &models.ReadState{
				ChapterID:  probe.ChapterID,
				MangaID:    entry.MangaID,
				MangaTitle: entry.Title,
				Cover:      entry.Cover,
			}
		}
		if err := json.Unmarshal(delta, merged); err != nil {
			logger.Err.Println(err)
			continue
		}
		entry.Entries = append([]*models.ReadState{merged}, entry.Entries...)

		// The touched manga bubbles to the top of the feed.
		h.entries = append(h.entries[:idx], h.entries[idx+1:]...)
		h.entries = append([]*HistoryEntry{entry}, h.entries...)
	}
	if refetch && h.refetching {
		refetch = false
	}
	if refetch {
		h.refetching = true
	}
	client := h.client
	h.mu.Unlock()
	h.notify()

	if refetch {
		go func() {
			if _, err := websocket.GetHistory(context.Background(), client); err != nil {
				logger.Err.Println(err)
				// Allow the next unknown-manga event to retry.
				h.mu.Lock()
				h.refetching = false
				h.mu.Unlock()
			}
		}()
	}
}

// indexOf must be called with the lock held.
func (h *History) indexOf(mangaID string) int {
	if mangaID == "" {
		return -1
	}
	for i, e := range h.entries {
		if e.MangaID == mangaID {
			return i
		}
	}
	return -1
}

// takeState removes and returns a clone of the chapter's state from
// the entry, or nil.
func takeState(entry *HistoryEntry, chapterID string) *models.ReadState {
	for i, r := range entry.Entries {
		if r.ChapterID == chapterID {
			entry.Entries = append(entry.Entries[:i], entry.Entries[i+1:]...)
			return reconcile.CloneReadState(r)
		}
	}
	return nil
}

func groupHistory(states []*models.ReadState) []*HistoryEntry {
	var entries []*HistoryEntry
	index := make(map[string]*HistoryEntry)

	for _, r := range states {
		entry := index[r.MangaID]
		if entry == nil {
			entry = &HistoryEntry{
				MangaID: r.MangaID,
				Title:   r.MangaTitle,
				Cover:   r.Cover,
			}
			index[r.MangaID] = entry
			entries = append(entries, entry)
		}
		entry.Entries = append(entry.Entries, r)
	}
	return entries
}

// Entries returns a deep copy of the feed.
func (h *History) Entries() []*HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := make([]*HistoryEntry, len(h.entries))
	for i, e := range h.entries {
		clone := &HistoryEntry{MangaID: e.MangaID, Title: e.Title, Cover: e.Cover}
		clone.Entries = make([]*models.ReadState, len(e.Entries))
		for j, r := range e.Entries {
			clone.Entries[j] = reconcile.CloneReadState(r)
		}
		entries[i] = clone
	}
	return entries
}

// Loading reports whether a feed fetch is in flight.
func (h *History) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}
