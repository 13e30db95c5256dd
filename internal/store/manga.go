package store

import (
	"context"
	"errors"

	"github.com/rs1703/logger"

	"nonbiri/internal/reconcile"
	"nonbiri/internal/websocket"
	"nonbiri/pkg/models"
)

// Manga caches a single title for the detail view. It can be seeded
// with an entry already held by the library to avoid an extra fetch.
type Manga struct {
	base

	id       string
	data     *models.Manga
	loading  bool
	updating bool
}

func NewManga(client websocket.Client, id string, seed *models.Manga) *Manga {
	m := &Manga{id: id}
	m.client = client
	if seed != nil && seed.ID == id {
		m.data = reconcile.CloneManga(seed)
	}
	return m
}

func (m *Manga) Mount() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mounted {
		return
	}
	m.mounted = true

	for _, task := range mangaTasks {
		m.subscribe(task, m.handleManga)
	}
	for _, task := range []models.Task{models.TaskGetChapter, models.TaskUpdateChapter} {
		m.subscribe(task, m.handleChapter)
	}
	for _, task := range chapterListTasks {
		m.subscribe(task, m.handleChapters)
	}
	m.subscribe(models.TaskReadPage, m.handleReadPage)
	for _, task := range readStateTasks {
		m.subscribe(task, m.handleReadStates)
	}
}

// Load fetches whatever is missing: the manga itself when the store
// was not seeded, otherwise just its chapter list.
func (m *Manga) Load(ctx context.Context) error {
	m.mu.Lock()
	missingManga := m.data == nil
	missingChapters := m.data != nil && len(m.data.Chapters) == 0
	m.loading = missingManga || missingChapters
	m.mu.Unlock()
	m.notify()

	var err error
	if missingManga {
		_, err = websocket.GetManga(ctx, m.client, m.id)
	} else if missingChapters {
		_, err = websocket.GetChapters(ctx, m.client, m.id)
	}

	m.mu.Lock()
	if m.mounted {
		m.loading = false
	}
	m.mu.Unlock()
	m.notify()
	return err
}

// Update refreshes the manga and its chapters from the source site.
func (m *Manga) Update(ctx context.Context) error {
	m.mu.Lock()
	if m.updating {
		m.mu.Unlock()
		return nil
	}
	m.updating = true
	m.mu.Unlock()
	m.notify()

	_, err := websocket.UpdateManga(ctx, m.client, m.id)
	if err == nil {
		_, err = websocket.UpdateChapters(ctx, m.client, m.id)
	}

	m.mu.Lock()
	if m.mounted {
		m.updating = false
	}
	m.mu.Unlock()
	m.notify()
	return err
}

// SetFollowState follows, reclassifies or unfollows the manga. When
// the server has never seen the title it is registered with an
// update and the follow is retried once.
func (m *Manga) SetFollowState(ctx context.Context, state models.FollowState) error {
	m.mu.Lock()
	followed := m.data != nil && m.data.Followed
	m.mu.Unlock()

	send := func() error {
		var err error
		if followed && state == models.FollowNone {
			_, err = websocket.UnfollowManga(ctx, m.client, m.id)
		} else {
			target := state
			if target == models.FollowNone {
				target = models.FollowReading
			}
			_, err = websocket.FollowManga(ctx, m.client, m.id, target)
		}
		return err
	}

	err := send()
	if errors.Is(err, models.ErrMangaNotFound) {
		if _, uerr := websocket.UpdateManga(ctx, m.client, m.id); uerr != nil {
			return uerr
		}
		err = send()
	}
	return err
}

// ToggleFollow follows an unfollowed manga as reading, and
// unfollows a followed one.
func (m *Manga) ToggleFollow(ctx context.Context) error {
	m.mu.Lock()
	followed := m.data != nil && m.data.Followed
	m.mu.Unlock()

	if followed {
		return m.SetFollowState(ctx, models.FollowNone)
	}
	return m.SetFollowState(ctx, models.FollowReading)
}

func (m *Manga) handleManga(msg *websocket.Message) {
	if msg.Error != nil || len(msg.Body) == 0 {
		return
	}
	if idOf(msg.Body) != m.id {
		return
	}

	m.mu.Lock()
	if !m.mounted {
		m.mu.Unlock()
		return
	}
	if m.data == nil {
		m.data = &models.Manga{ID: m.id}
	}
	reconcile.MergeManga(m.data, msg.Body)
	m.mu.Unlock()
	m.notify()
}

func (m *Manga) handleChapter(msg *websocket.Message) {
	if msg.Error != nil || len(msg.Body) == 0 {
		return
	}
	if mangaIDOf(msg.Body) != m.id {
		return
	}

	m.mu.Lock()
	if !m.mounted || m.data == nil {
		m.mu.Unlock()
		return
	}
	m.data.Chapters = reconcile.Chapter(reconcile.CloneChapters(m.data.Chapters), msg.Body)
	m.mu.Unlock()
	m.notify()
}

func (m *Manga) handleChapters(msg *websocket.Message) {
	if msg.Error != nil {
		return
	}
	raws := rawList(msg.Body)
	if len(raws) == 0 || mangaIDOf(raws[0]) != m.id {
		return
	}

	m.mu.Lock()
	if !m.mounted || m.data == nil {
		m.mu.Unlock()
		return
	}
	reconcile.Chapters(m.data, raws)
	m.mu.Unlock()
	m.notify()
}

func (m *Manga) handleReadPage(msg *websocket.Message) {
	if msg.Error != nil || len(msg.Body) == 0 {
		return
	}
	if mangaIDOf(msg.Body) != m.id {
		return
	}

	m.mu.Lock()
	if !m.mounted || m.data == nil {
		m.mu.Unlock()
		return
	}
	m.data.Chapters = reconcile.ReadState(m.data.Chapters, msg.Body)
	m.mu.Unlock()
	m.notify()
}

func (m *Manga) handleReadStates(msg *websocket.Message) {
	if msg.Error != nil {
		return
	}
	raws := rawList(msg.Body)
	if len(raws) == 0 || mangaIDOf(raws[0]) != m.id {
		return
	}

	m.mu.Lock()
	if !m.mounted || m.data == nil {
		m.mu.Unlock()
		return
	}
	reconcile.ReadStates(m.data, raws)
	m.mu.Unlock()
	m.notify()
}

// ID returns the manga id the store is bound to.
func (m *Manga) ID() string {
	return m.id
}

// Data returns a deep copy of the cached manga, nil before the first
// fetch completes.
func (m *Manga) Data() *models.Manga {
	m.mu.Lock()
	defer m.mu.Unlock()
	return reconcile.CloneManga(m.data)
}

// Loading reports whether the initial fetch is in flight.
func (m *Manga) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Updating reports whether a source refresh is in flight.
func (m *Manga) Updating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updating
}

// MarkChaptersBelow marks the given chapter and everything published
// before it as read, mirroring the detail view bulk action.
func (m *Manga) MarkChaptersBelow(ctx context.Context, chapterID string) error {
	m.mu.Lock()
	var ids []string
	if m.data != nil {
		found := false
		for _, c := range m.data.Chapters {
			if c.ID == chapterID {
				found = true
			}
			if found && !c.Readed() {
				ids = append(ids, c.ID)
			}
		}
	}
	m.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	_, err := websocket.ReadChapter(ctx, m.client, ids...)
	if err != nil {
		logger.Err.Println(err)
	}
	return err
}
