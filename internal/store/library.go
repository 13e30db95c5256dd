package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rs1703/logger"

	"nonbiri/internal/reconcile"
	"nonbiri/internal/websocket"
	"nonbiri/pkg/models"
)

// Library caches the followed manga together with tags, preferences
// and the library update state. It is the longest-lived store and
// usually stays mounted for the whole session.
type Library struct {
	base

	entries     []*models.Manga
	tags        []*models.Entity
	prefs       models.Prefs
	updateState *models.LibraryUpdateState
}

func NewLibrary(client websocket.Client) *Library {
	l := &Library{}
	l.client = client
	l.prefs = models.DefaultPrefs()
	return l
}

// Mount subscribes every handler the library reacts to. It does not
// fetch anything; see Bootstrap.
func (l *Library) Mount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mounted {
		return
	}
	l.mounted = true

	for _, task := range mangaTasks {
		l.subscribe(task, l.handleManga)
	}
	for _, task := range chapterListTasks {
		l.subscribe(task, l.handleChapters)
	}
	l.subscribe(models.TaskReadPage, l.handleReadPage)
	for _, task := range readStateTasks {
		l.subscribe(task, l.handleReadStates)
	}

	l.subscribe(models.TaskLibrary, l.handleLibrary)
	l.subscribe(models.TaskTags, l.handleTags)

	l.subscribe(models.TaskGetPrefs, l.handlePrefs)
	l.subscribe(models.TaskGetBrowsePreference, l.handleBrowsePreference)
	l.subscribe(models.TaskUpdateBrowsePreference, l.handleBrowsePreference)
	l.subscribe(models.TaskGetLibraryPreference, l.handleLibraryPreference)
	l.subscribe(models.TaskUpdateLibraryPreference, l.handleLibraryPreference)
	l.subscribe(models.TaskGetReaderPreference, l.handleReaderPreference)
	l.subscribe(models.TaskUpdateReaderPreference, l.handleReaderPreference)

	l.subscribe(models.TaskUpdateLibrary, l.handleUpdateState)
	l.subscribe(models.TaskGetUpdateLibraryState, l.handleUpdateState)
}

// Bootstrap runs the startup fetch sequence. Each reply is folded
// into the cache by the subscribed handlers before the call returns,
// so a nil error means prefs, tags and library are all populated.
func (l *Library) Bootstrap(ctx context.Context) error {
	if _, err := websocket.GetPrefs(ctx, l.client); err != nil {
		return err
	}
	if _, err := websocket.GetTags(ctx, l.client); err != nil {
		return err
	}
	if _, err := websocket.GetLibrary(ctx, l.client); err != nil {
		return err
	}
	return nil
}

func (l *Library) handleManga(m *websocket.Message) {
	if m.Error != nil {
		return
	}
	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	l.entries = reconcile.Manga(l.entries, m.Body, reconcile.AppendFollowed)
	l.mu.Unlock()
	l.notify()
}

func (l *Library) handleChapters(m *websocket.Message) {
	if m.Error != nil {
		return
	}
	raws := rawList(m.Body)
	if len(raws) == 0 {
		return
	}

	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	if entry := l.find(mangaIDOf(raws[0])); entry != nil {
		reconcile.Chapters(entry, raws)
	}
	l.mu.Unlock()
	l.notify()
}

func (l *Library) handleReadPage(m *websocket.Message) {
	if m.Error != nil || len(m.Body) == 0 {
		return
	}
	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	if entry := l.find(mangaIDOf(m.Body)); entry != nil {
		entry.Chapters = reconcile.ReadState(entry.Chapters, m.Body)
	}
	l.mu.Unlock()
	l.notify()
}

func (l *Library) handleReadStates(m *websocket.Message) {
	if m.Error != nil {
		return
	}
	raws := rawList(m.Body)
	if len(raws) == 0 {
		return
	}

	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	if entry := l.find(mangaIDOf(raws[0])); entry != nil {
		reconcile.ReadStates(entry, raws)
	}
	l.mu.Unlock()
	l.notify()
}

func (l *Library) handleLibrary(m *websocket.Message) {
	if m.Error != nil {
		return
	}
	raws := rawList(m.Body)
	if len(raws) == 0 {
		return
	}

	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	l.entries = reconcile.All(l.entries, raws)
	l.mu.Unlock()
	l.notify()
}

func (l *Library) handleTags(m *websocket.Message) {
	if m.Error != nil || len(m.Body) == 0 {
		return
	}
	var tags []*models.Entity
	if err := json.Unmarshal(m.Body, &tags); err != nil {
		logger.Err.Println(err)
		return
	}

	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	l.tags = tags
	l.mu.Unlock()
	l.notify()
}

func (l *Library) handlePrefs(m *websocket.Message) {
	if m.Error != nil || len(m.Body) == 0 {
		return
	}
	var prefs models.Prefs
	if err := json.Unmarshal(m.Body, &prefs); err != nil {
		logger.Err.Println(err)
		return
	}

	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	l.prefs = prefs
	l.mu.Unlock()
	l.notify()
}

func (l *Library) handleBrowsePreference(m *websocket.Message) {
	if m.Error != nil || len(m.Body) == 0 {
		return
	}
	var pref models.BrowsePreference
	if err := json.Unmarshal(m.Body, &pref); err != nil {
		logger.Err.Println(err)
		return
	}

	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	l.prefs.Browse = pref
	l.mu.Unlock()
	l.notify()
}

func (l *Library) handleLibraryPreference(m *websocket.Message) {
	if m.Error != nil || len(m.Body) == 0 {
		return
	}
	var pref models.LibraryPreference
	if err := json.Unmarshal(m.Body, &pref); err != nil {
		logger.Err.Println(err)
		return
	}

	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	l.prefs.Library = pref
	l.mu.Unlock()
	l.notify()
}

func (l *Library) handleReaderPreference(m *websocket.Message) {
	if m.Error != nil || len(m.Body) == 0 {
		return
	}
	var pref models.ReaderPreference
	if err := json.Unmarshal(m.Body, &pref); err != nil {
		logger.Err.Println(err)
		return
	}

	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	l.prefs.Reader = pref
	l.mu.Unlock()
	l.notify()
}

func (l *Library) handleUpdateState(m *websocket.Message) {
	if m.Error != nil {
		return
	}

	var state *models.LibraryUpdateState
	if len(m.Body) > 0 && string(m.Body) != "null" {
		state = &models.LibraryUpdateState{}
		if err := json.Unmarshal(m.Body, state); err != nil {
			logger.Err.Println(err)
			return
		}
	}

	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	l.updateState = state
	l.mu.Unlock()
	l.notify()
}

// find must be called with the lock held.
func (l *Library) find(id string) *models.Manga {
	if id == "" {
		return nil
	}
	for _, m := range l.entries {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Entries returns a deep copy of every cached entry, unfollowed ones
// included.
func (l *Library) Entries() []*models.Manga {
	l.mu.Lock()
	defer l.mu.Unlock()
	return reconcile.CloneMangas(l.entries)
}

// Entry returns a deep copy of one entry, or nil.
func (l *Library) Entry(id string) *models.Manga {
	l.mu.Lock()
	defer l.mu.Unlock()
	return reconcile.CloneManga(l.find(id))
}

// Tags returns the cached tag list.
func (l *Library) Tags() []*models.Entity {
	l.mu.Lock()
	defer l.mu.Unlock()
	tags := make([]*models.Entity, len(l.tags))
	for i, tag := range l.tags {
		t := *tag
		tags[i] = &t
	}
	return tags
}

// Prefs returns a copy of the cached preferences.
func (l *Library) Prefs() models.Prefs {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefs := l.prefs
	prefs.Browse.Origins = append([]models.Language(nil), l.prefs.Browse.Origins...)
	prefs.Browse.ExcludedTags = append([]string(nil), l.prefs.Browse.ExcludedTags...)
	prefs.Browse.ContentRatings = append([]models.Rating(nil), l.prefs.Browse.ContentRatings...)
	return prefs
}

// UpdateState returns the current library update progress, nil when
// no update is running.
func (l *Library) UpdateState() *models.LibraryUpdateState {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.updateState == nil {
		return nil
	}
	state := *l.updateState
	return &state
}

// Updating reports whether a library update is in flight.
func (l *Library) Updating() bool {
	return l.UpdateState() != nil
}

// View returns the followed entries matching the query, sorted per
// the library preference. The result is a deep copy.
func (l *Library) View(q models.BrowseQuery) []*models.Manga {
	l.mu.Lock()
	var matched []*models.Manga
	for _, m := range l.entries {
		if m.Followed && matches(m, q) {
			matched = append(matched, reconcile.CloneManga(m))
		}
	}
	key, order := l.prefs.Library.Sort, l.prefs.Library.Order
	l.mu.Unlock()

	sortEntries(matched, key, order)
	return matched
}

// SetSort updates the library preference, toggling the order when
// the key is already active. The cache itself changes when the
// preference broadcast comes back.
func (l *Library) SetSort(ctx context.Context, key models.Sort) error {
	l.mu.Lock()
	pref := l.prefs.Library
	if pref.Sort == key {
		if pref.Order == models.DESC {
			pref.Order = models.ASC
		} else {
			pref.Order = models.DESC
		}
	} else {
		pref.Sort = key
		pref.Order = models.ASC
	}
	l.mu.Unlock()

	_, err := websocket.UpdateLibraryPreference(ctx, l.client, pref)
	return err
}

// StartUpdate asks the server to refresh every followed manga. A
// no-op while an update is already running.
func (l *Library) StartUpdate(ctx context.Context) error {
	l.mu.Lock()
	running := l.updateState != nil
	l.mu.Unlock()
	if running {
		return nil
	}
	_, err := websocket.UpdateLibrary(ctx, l.client)
	return err
}

// RefreshUpdateState re-reads the update progress from the server.
func (l *Library) RefreshUpdateState(ctx context.Context) error {
	_, err := websocket.GetUpdateLibraryState(ctx, l.client)
	return err
}

// matches implements the local library search: a title or creator
// substring match, tag constraints (included tags must all be
// present, a single excluded tag disqualifies) and enum allow
// lists.
func matches(m *models.Manga, q models.BrowseQuery) bool {
	if q.Title != "" {
		needle := strings.ToLower(q.Title)
		ok := strings.Contains(strings.ToLower(m.Title), needle)
		if !ok {
			for _, e := range append(append([]*models.Entity(nil), m.Authors...), m.Artists...) {
				if strings.Contains(strings.ToLower(e.Name), needle) {
					ok = true
					break
				}
			}
		}
		if !ok {
			return false
		}
	}

	for _, tag := range q.IncludedTags {
		if !hasTag(m, tag) {
			return false
		}
	}
	for _, tag := range q.ExcludedTags {
		if hasTag(m, tag) {
			return false
		}
	}

	if !memberOf(m.Demographic, q.Demographic) {
		return false
	}
	if !memberOf(m.Origin, q.Origin) {
		return false
	}
	for _, origin := range q.ExcludedOrigin {
		if m.Origin == origin {
			return false
		}
	}
	if !memberOf(m.Rating, q.ContentRating) {
		return false
	}
	if !memberOf(m.Status, q.Status) {
		return false
	}
	return true
}

// memberOf reports whether v is in the allow list; an empty list
// allows everything.
func memberOf[T comparable](v T, allowed []T) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func hasTag(m *models.Manga, tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func sortEntries(entries []*models.Manga, key models.Sort, order models.Order) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		var c int
		switch key {
		case models.SortTotalChapters:
			c = a.TotalChapters - b.TotalChapters
		case models.SortUnreadedChapters:
			c = a.UnreadedChapters() - b.UnreadedChapters()
		case models.SortLatestUploadedChapter:
			c = cmpInt64(a.LatestChapterAt, b.LatestChapterAt)
		default:
			c = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}

		if c == 0 {
			// Ties fall back to the title, ascending regardless of order.
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
		if order == models.DESC {
			return c > 0
		}
		return c < 0
	})
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
