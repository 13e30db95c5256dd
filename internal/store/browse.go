package store

import (
	"context"
	"encoding/json"

	"github.com/rs1703/logger"

	"nonbiri/internal/reconcile"
	"nonbiri/internal/websocket"
	"nonbiri/pkg/models"
)

// defaultBrowseLimit is the page size used when the query does not
// set one.
const defaultBrowseLimit = 36

// Browse caches the current search results. The first page of a
// query replaces the entries, later pages append, so an infinite
// scroll only ever grows forward.
type Browse struct {
	base

	data       models.BrowseData
	loading    bool
	paginating bool
}

func NewBrowse(client websocket.Client) *Browse {
	b := &Browse{}
	b.client = client
	return b
}

func (b *Browse) Mount() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mounted {
		return
	}
	b.mounted = true

	b.subscribe(models.TaskBrowse, b.handleBrowse)
	for _, task := range mangaTasks {
		b.subscribe(task, b.handleManga)
	}
	for _, task := range chapterListTasks {
		b.subscribe(task, b.handleChapters)
	}
	b.subscribe(models.TaskReadPage, b.handleReadPage)
	for _, task := range readStateTasks {
		b.subscribe(task, b.handleReadStates)
	}
}

// DefaultQuery seeds a query from the browse preference.
func DefaultQuery(pref models.BrowsePreference) models.BrowseQuery {
	return models.BrowseQuery{
		Limit:             defaultBrowseLimit,
		Origin:            append([]models.Language(nil), pref.Origins...),
		ExcludedTags:      append([]string(nil), pref.ExcludedTags...),
		ContentRating:     append([]models.Rating(nil), pref.ContentRatings...),
		AvailableLanguage: []models.Language{pref.Language},
	}
}

// Search runs a fresh query. The cache is already updated when it
// returns.
func (b *Browse) Search(ctx context.Context, q models.BrowseQuery) error {
	b.mu.Lock()
	if b.loading {
		b.mu.Unlock()
		return nil
	}
	b.loading = true
	b.mu.Unlock()
	b.notify()

	if q.Limit == 0 {
		q.Limit = defaultBrowseLimit
	}
	q.Offset = 0
	_, err := websocket.GetBrowse(ctx, b.client, q)

	b.mu.Lock()
	if b.mounted {
		b.loading = false
	}
	b.mu.Unlock()
	b.notify()
	return err
}

// LoadMore fetches the next page of the current query. It is a no-op
// while a request is in flight or when the result set is exhausted.
func (b *Browse) LoadMore(ctx context.Context) error {
	b.mu.Lock()
	if b.loading || b.paginating || !b.hasMore() {
		b.mu.Unlock()
		return nil
	}
	q := b.data.Query
	q.Limit = b.data.Limit
	if q.Limit == 0 {
		q.Limit = defaultBrowseLimit
	}
	q.Offset = b.data.Offset + q.Limit
	b.paginating = true
	b.mu.Unlock()
	b.notify()

	_, err := websocket.GetBrowse(ctx, b.client, q)

	b.mu.Lock()
	if b.mounted {
		b.paginating = false
	}
	b.mu.Unlock()
	b.notify()
	return err
}

// hasMore must be called with the lock held.
func (b *Browse) hasMore() bool {
	if len(b.data.Entries) == 0 {
		return false
	}
	limit := b.data.Limit
	if limit == 0 {
		limit = defaultBrowseLimit
	}
	return b.data.Offset+limit < b.data.Total
}

func (b *Browse) handleBrowse(m *websocket.Message) {
	if m.Error != nil || len(m.Body) == 0 {
		return
	}

	var page struct {
		Entries []json.RawMessage  `json:"entries"`
		Query   models.BrowseQuery `json:"query"`
		Limit   int                `json:"limit"`
		Offset  int                `json:"offset"`
		Total   int                `json:"total"`
	}
	if err := json.Unmarshal(m.Body, &page); err != nil {
		logger.Err.Println(err)
		return
	}

	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	b.data.Entries = reconcile.Page(b.data.Entries, page.Offset, page.Entries)
	b.data.Query = page.Query
	b.data.Limit = page.Limit
	b.data.Offset = page.Offset
	b.data.Total = page.Total
	b.mu.Unlock()
	b.notify()
}

func (b *Browse) handleManga(m *websocket.Message) {
	if m.Error != nil {
		return
	}
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	// Unlike the library, browse never grows from manga broadcasts.
	b.data.Entries = reconcile.Manga(b.data.Entries, m.Body, reconcile.AppendNever)
	b.mu.Unlock()
	b.notify()
}

func (b *Browse) handleChapters(m *websocket.Message) {
	if m.Error != nil {
		return
	}
	raws := rawList(m.Body)
	if len(raws) == 0 {
		return
	}

	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	if entry := b.find(mangaIDOf(raws[0])); entry != nil {
		reconcile.Chapters(entry, raws)
	}
	b.mu.Unlock()
	b.notify()
}

func (b *Browse) handleReadPage(m *websocket.Message) {
	if m.Error != nil || len(m.Body) == 0 {
		return
	}
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	if entry := b.find(mangaIDOf(m.Body)); entry != nil {
		entry.Chapters = reconcile.ReadState(entry.Chapters, m.Body)
	}
	b.mu.Unlock()
	b.notify()
}

func (b *Browse) handleReadStates(m *websocket.Message) {
	if m.Error != nil {
		return
	}
	raws := rawList(m.Body)
	if len(raws) == 0 {
		return
	}

	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	if entry := b.find(mangaIDOf(raws[0])); entry != nil {
		reconcile.ReadStates(entry, raws)
	}
	b.mu.Unlock()
	b.notify()
}

// find must be called with the lock held.
func (b *Browse) find(id string) *models.Manga {
	if id == "" {
		return nil
	}
	for _, m := range b.data.Entries {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Data returns a deep copy of the current result page.
func (b *Browse) Data() models.BrowseData {
	b.mu.Lock()
	defer b.mu.Unlock()
	data := b.data
	data.Entries = reconcile.CloneMangas(b.data.Entries)
	return data
}

// Loading reports whether a fresh search is in flight.
func (b *Browse) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Paginating reports whether a next page is in flight.
func (b *Browse) Paginating() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paginating
}
