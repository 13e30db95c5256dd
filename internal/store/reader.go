package store

import (
	"context"

	"nonbiri/internal/reconcile"
	"nonbiri/internal/websocket"
	"nonbiri/pkg/models"
)

// Page is one reader page and whether it is on screen.
type Page struct {
	Num     int
	Viewing bool
}

// Reader caches the manga being read and the page list of the
// current chapter. Chapter navigation prefers releases by the same
// scanlation groups.
type Reader struct {
	base

	mangaID   string
	chapterID string
	data      *models.Manga
	pages     []Page
	loading   bool
}

func NewReader(client websocket.Client, mangaID, chapterID string, seed *models.Manga) *Reader {
	r := &Reader{mangaID: mangaID, chapterID: chapterID}
	r.client = client
	if seed != nil && seed.ID == mangaID {
		r.data = reconcile.CloneManga(seed)
	}
	return r
}

func (r *Reader) Mount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mounted {
		return
	}
	r.mounted = true

	for _, task := range mangaTasks {
		r.subscribe(task, r.handleManga)
	}
	for _, task := range []models.Task{models.TaskGetChapter, models.TaskUpdateChapter} {
		r.subscribe(task, r.handleChapter)
	}
	for _, task := range chapterListTasks {
		r.subscribe(task, r.handleChapters)
	}
	r.subscribe(models.TaskReadPage, r.handleReadPage)
	for _, task := range readStateTasks {
		r.subscribe(task, r.handleReadStates)
	}
}

// Load fetches the manga, its chapter list and the pages of the
// current chapter as needed, then positions the viewport on the last
// viewed page.
func (r *Reader) Load(ctx context.Context) error {
	r.mu.Lock()
	r.loading = true
	missingManga := r.data == nil
	r.mu.Unlock()
	r.notify()

	finish := func(err error) error {
		r.mu.Lock()
		if r.mounted {
			r.loading = false
		}
		r.mu.Unlock()
		r.notify()
		return err
	}

	if missingManga {
		if _, err := websocket.GetManga(ctx, r.client, r.mangaID); err != nil {
			return finish(err)
		}
	}

	r.mu.Lock()
	missingChapters := r.data != nil && len(r.data.Chapters) == 0
	r.mu.Unlock()
	if missingChapters {
		if _, err := websocket.GetChapters(ctx, r.client, r.mangaID); err != nil {
			return finish(err)
		}
	}

	r.mu.Lock()
	current := r.currentLocked()
	missingPages := current == nil || len(current.Pages) == 0
	r.mu.Unlock()
	if missingPages {
		if _, err := websocket.GetChapter(ctx, r.client, r.chapterID); err != nil {
			return finish(err)
		}
	}

	r.mu.Lock()
	if r.mounted {
		r.initPagesLocked()
	}
	r.mu.Unlock()
	return finish(nil)
}

// SetChapter switches the reader to another chapter of the same
// manga and reloads its pages.
func (r *Reader) SetChapter(ctx context.Context, chapterID string) error {
	r.mu.Lock()
	r.chapterID = chapterID
	r.pages = nil
	r.mu.Unlock()
	r.notify()
	return r.Load(ctx)
}

// ViewPage reports that a page is on screen and propagates the
// progress. Landing on the final page marks the whole chapter read;
// once it already is, revisiting the final page resets the viewed
// page instead.
func (r *Reader) ViewPage(ctx context.Context, num int) error {
	r.mu.Lock()
	current := r.currentLocked()
	if current == nil {
		r.mu.Unlock()
		return nil
	}
	for i := range r.pages {
		r.pages[i].Viewing = r.pages[i].Num == num
	}
	total := len(current.Pages)
	readed := current.Readed()
	id := current.ID
	r.mu.Unlock()
	r.notify()

	var err error
	switch {
	case num >= total && total > 0 && !readed:
		_, err = websocket.ReadChapter(ctx, r.client, id)
	case num >= total && total > 0:
		_, err = websocket.ReadPage(ctx, r.client, id, 0)
	default:
		_, err = websocket.ReadPage(ctx, r.client, id, num)
	}
	return err
}

// Prev returns the previous chapter, preferring one released by the
// current chapter's groups.
func (r *Reader) Prev() *models.Chapter {
	return r.sibling(1)
}

// Next returns the next chapter, preferring one released by the
// current chapter's groups. Chapter lists are ordered newest first,
// so next means a lower index.
func (r *Reader) Next() *models.Chapter {
	return r.sibling(-1)
}

// sibling resolves the adjacent chapter number, preferring the
// release whose groups match the current chapter's among duplicate
// releases of that number.
func (r *Reader) sibling(direction int) *models.Chapter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.data == nil {
		return nil
	}
	idx := -1
	for i, c := range r.data.Chapters {
		if c.ID == r.chapterID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	ti := idx + direction
	if ti < 0 || ti >= len(r.data.Chapters) {
		return nil
	}

	current := r.data.Chapters[idx]
	target := r.data.Chapters[ti]
	for _, c := range r.data.Chapters {
		if c.Chapter == target.Chapter && sameRelease(current, c) {
			return reconcile.CloneChapter(c)
		}
	}
	return reconcile.CloneChapter(target)
}

// sameRelease matches candidate against current's scanlation
// groups: with equal group counts every group must match, otherwise
// any overlap counts.
func sameRelease(current, candidate *models.Chapter) bool {
	if len(current.Groups) == len(candidate.Groups) {
		for _, g := range current.Groups {
			if !hasGroup(candidate, g.ID) {
				return false
			}
		}
		return true
	}
	for _, g := range current.Groups {
		if hasGroup(candidate, g.ID) {
			return true
		}
	}
	return false
}

func hasGroup(c *models.Chapter, id string) bool {
	for _, g := range c.Groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

func (r *Reader) handleManga(msg *websocket.Message) {
	if msg.Error != nil || len(msg.Body) == 0 || idOf(msg.Body) != r.mangaID {
		return
	}
	r.mu.Lock()
	if !r.mounted {
		r.mu.Unlock()
		return
	}
	if r.data == nil {
		r.data = &models.Manga{ID: r.mangaID}
	}
	reconcile.MergeManga(r.data, msg.Body)
	r.mu.Unlock()
	r.notify()
}

func (r *Reader) handleChapter(msg *websocket.Message) {
	if msg.Error != nil || len(msg.Body) == 0 || mangaIDOf(msg.Body) != r.mangaID {
		return
	}
	r.mu.Lock()
	if !r.mounted || r.data == nil {
		r.mu.Unlock()
		return
	}
	r.data.Chapters = reconcile.Chapter(reconcile.CloneChapters(r.data.Chapters), msg.Body)
	if idOf(msg.Body) == r.chapterID && len(r.pages) == 0 {
		r.initPagesLocked()
	}
	r.mu.Unlock()
	r.notify()
}

func (r *Reader) handleChapters(msg *websocket.Message) {
	if msg.Error != nil {
		return
	}
	raws := rawList(msg.Body)
	if len(raws) == 0 || mangaIDOf(raws[0]) != r.mangaID {
		return
	}
	r.mu.Lock()
	if !r.mounted || r.data == nil {
		r.mu.Unlock()
		return
	}
	reconcile.Chapters(r.data, raws)
	r.mu.Unlock()
	r.notify()
}

func (r *Reader) handleReadPage(msg *websocket.Message) {
	if msg.Error != nil || len(msg.Body) == 0 || mangaIDOf(msg.Body) != r.mangaID {
		return
	}
	r.mu.Lock()
	if !r.mounted || r.data == nil {
		r.mu.Unlock()
		return
	}
	r.data.Chapters = reconcile.ReadState(r.data.Chapters, msg.Body)
	r.mu.Unlock()
	r.notify()
}

func (r *Reader) handleReadStates(msg *websocket.Message) {
	if msg.Error != nil {
		return
	}
	raws := rawList(msg.Body)
	if len(raws) == 0 || mangaIDOf(raws[0]) != r.mangaID {
		return
	}
	r.mu.Lock()
	if !r.mounted || r.data == nil {
		r.mu.Unlock()
		return
	}
	reconcile.ReadStates(r.data, raws)
	r.mu.Unlock()
	r.notify()
}

// currentLocked must be called with the lock held.
func (r *Reader) currentLocked() *models.Chapter {
	if r.data == nil {
		return nil
	}
	return r.data.Chapter(r.chapterID)
}

// initPagesLocked rebuilds the page list from the current chapter,
// resuming at the last viewed page. Must be called with the lock
// held.
func (r *Reader) initPagesLocked() {
	current := r.currentLocked()
	if current == nil || len(current.Pages) == 0 {
		r.pages = nil
		return
	}

	viewing := 1
	if current.History != nil && current.History.LastViewed > 0 && current.History.LastViewed <= len(current.Pages) {
		viewing = current.History.LastViewed
	}

	r.pages = make([]Page, len(current.Pages))
	for i := range current.Pages {
		r.pages[i] = Page{Num: i + 1, Viewing: i+1 == viewing}
	}
}

// Chapter returns a deep copy of the chapter being read, nil until
// loaded.
func (r *Reader) Chapter() *models.Chapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return reconcile.CloneChapter(r.currentLocked())
}

// Data returns a deep copy of the cached manga.
func (r *Reader) Data() *models.Manga {
	r.mu.Lock()
	defer r.mu.Unlock()
	return reconcile.CloneManga(r.data)
}

// Pages returns the page list with viewport flags.
func (r *Reader) Pages() []Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Page(nil), r.pages...)
}

// Loading reports whether a fetch is in flight.
func (r *Reader) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}
