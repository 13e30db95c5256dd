package store

import (
	"context"
	"encoding/json"

	"github.com/rs1703/logger"

	"nonbiri/internal/reconcile"
	"nonbiri/internal/websocket"
	"nonbiri/pkg/models"
)

// UpdatesEntry groups the recent chapters of one followed manga.
type UpdatesEntry struct {
	MangaID  string
	Title    string
	Cover    string
	Chapters []*models.Chapter
}

// Updates caches the new-chapters feed of followed manga. Read
// toggles fold into it in place; the feed itself only changes shape
// on refetch.
type Updates struct {
	base

	entries []*UpdatesEntry
	loading bool
}

func NewUpdates(client websocket.Client) *Updates {
	u := &Updates{}
	u.client = client
	return u
}

func (u *Updates) Mount() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.mounted {
		return
	}
	u.mounted = true

	u.subscribe(models.TaskUpdates, u.handleFeed)
	for _, task := range readStateTasks {
		u.subscribe(task, u.handleReadStates)
	}
}

// Load fetches the feed.
func (u *Updates) Load(ctx context.Context) error {
	u.mu.Lock()
	if u.loading {
		u.mu.Unlock()
		return nil
	}
	u.loading = true
	u.mu.Unlock()
	u.notify()

	_, err := websocket.GetUpdates(ctx, u.client)

	u.mu.Lock()
	if u.mounted {
		u.loading = false
	}
	u.mu.Unlock()
	u.notify()
	return err
}

// Toggle flips the read mark of a feed chapter.
func (u *Updates) Toggle(ctx context.Context, c *models.Chapter) error {
	var err error
	if c.Readed() {
		_, err = websocket.UnreadChapter(ctx, u.client, c.ID)
	} else {
		_, err = websocket.ReadChapter(ctx, u.client, c.ID)
	}
	return err
}

func (u *Updates) handleFeed(m *websocket.Message) {
	if m.Error != nil || len(m.Body) == 0 {
		return
	}
	var chapters []*models.Chapter
	if err := json.Unmarshal(m.Body, &chapters); err != nil {
		logger.Err.Println(err)
		return
	}

	entries := groupUpdates(chapters)

	u.mu.Lock()
	if !u.mounted {
		u.mu.Unlock()
		return
	}
	u.entries = entries
	u.mu.Unlock()
	u.notify()
}

func (u *Updates) handleReadStates(m *websocket.Message) {
	if m.Error != nil {
		return
	}
	raws := rawList(m.Body)
	if len(raws) == 0 {
		return
	}

	u.mu.Lock()
	if !u.mounted {
		u.mu.Unlock()
		return
	}
	for _, delta := range raws {
		var probe struct {
			ChapterID string `json:"chapterId"`
			MangaID   string `json:"mangaId"`
		}
		if err := json.Unmarshal(delta, &probe); err != nil {
			logger.Err.Println(err)
			continue
		}

		entry := u.find(probe.MangaID)
		if entry == nil {
			continue
		}
		for i, c := range entry.Chapters {
			if c.ID != probe.ChapterID {
				continue
			}
			merged := reconcile.CloneChapter(c)
			if merged.History == nil {
				merged.History = &models.ReadState{}
			}
			if err := json.Unmarshal(delta, merged.History); err != nil {
				logger.Err.Println(err)
				break
			}
			entry.Chapters[i] = merged
			break
		}
	}
	u.mu.Unlock()
	u.notify()
}

// find must be called with the lock held.
func (u *Updates) find(mangaID string) *UpdatesEntry {
	if mangaID == "" {
		return nil
	}
	for _, e := range u.entries {
		if e.MangaID == mangaID {
			return e
		}
	}
	return nil
}

func groupUpdates(chapters []*models.Chapter) []*UpdatesEntry {
	var entries []*UpdatesEntry
	index := make(map[string]*UpdatesEntry)

	for _, c := range chapters {
		entry := index[c.MangaID]
		if entry == nil {
			entry = &UpdatesEntry{
				MangaID: c.MangaID,
				Title:   c.MangaTitle,
				Cover:   c.Cover,
			}
			index[c.MangaID] = entry
			entries = append(entries, entry)
		}
		entry.Chapters = append(entry.Chapters, c)
	}
	return entries
}

// Entries returns a deep copy of the feed.
func (u *Updates) Entries() []*UpdatesEntry {
	u.mu.Lock()
	defer u.mu.Unlock()

	entries := make([]*UpdatesEntry, len(u.entries))
	for i, e := range u.entries {
		entries[i] = &UpdatesEntry{
			MangaID:  e.MangaID,
			Title:    e.Title,
			Cover:    e.Cover,
			Chapters: reconcile.CloneChapters(e.Chapters),
		}
	}
	return entries
}

// Loading reports whether a feed fetch is in flight.
func (u *Updates) Loading() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.loading
}
