// Package reconcile folds raw server deltas into cached view state.
// Deltas are partial JSON objects; merging unmarshals them onto the
// existing value so absent keys leave current fields untouched.
// Malformed deltas are logged and dropped, they never fail a caller.
package reconcile

import (
	"encoding/json"

	"github.com/rs1703/logger"

	"nonbiri/pkg/models"
)

// AppendMode decides what happens when a manga delta has no matching
// entry in the target list.
type AppendMode int

const (
	// AppendNever drops deltas for unknown manga.
	AppendNever AppendMode = iota
	// AppendFollowed appends unknown manga only when followed, which
	// is what a library wants after a follow elsewhere.
	AppendFollowed
	// AppendAlways appends every unknown manga.
	AppendAlways
)

type idProbe struct {
	ID string `json:"id"`
}

type readStateProbe struct {
	ChapterID string `json:"chapterId"`
	MangaID   string `json:"mangaId"`
	Readed    bool   `json:"readed"`
}

// Manga upserts a single manga delta into entries. Existing entries
// are merged in place; unknown manga are handled per mode.
func Manga(entries []*models.Manga, delta json.RawMessage, mode AppendMode) []*models.Manga {
	if len(delta) == 0 {
		return entries
	}

	var probe idProbe
	if err := json.Unmarshal(delta, &probe); err != nil {
		logger.Err.Println(err)
		return entries
	}
	if probe.ID == "" {
		return entries
	}

	for _, m := range entries {
		if m.ID == probe.ID {
			MergeManga(m, delta)
			return entries
		}
	}

	if mode == AppendNever {
		return entries
	}
	m := &models.Manga{}
	if err := json.Unmarshal(delta, m); err != nil {
		logger.Err.Println(err)
		return entries
	}
	if mode == AppendFollowed && !m.Followed {
		return entries
	}
	return append(entries, m)
}

// MergeManga folds a delta onto a manga already resolved by the
// caller.
func MergeManga(m *models.Manga, delta json.RawMessage) {
	if m == nil || len(delta) == 0 {
		return
	}
	if err := json.Unmarshal(delta, m); err != nil {
		logger.Err.Println(err)
	}
}

// Chapter upserts a single chapter delta into a chapter list.
func Chapter(chapters []*models.Chapter, delta json.RawMessage) []*models.Chapter {
	if len(delta) == 0 {
		return chapters
	}

	var probe idProbe
	if err := json.Unmarshal(delta, &probe); err != nil {
		logger.Err.Println(err)
		return chapters
	}
	if probe.ID == "" {
		return chapters
	}

	for _, c := range chapters {
		if c.ID == probe.ID {
			if err := json.Unmarshal(delta, c); err != nil {
				logger.Err.Println(err)
			}
			return chapters
		}
	}

	c := &models.Chapter{}
	if err := json.Unmarshal(delta, c); err != nil {
		logger.Err.Println(err)
		return chapters
	}
	return append(chapters, c)
}

// Chapters upserts a batch of chapter deltas into the manga's
// chapter list.
func Chapters(m *models.Manga, deltas []json.RawMessage) {
	if m == nil || len(deltas) == 0 {
		return
	}
	chapters := CloneChapters(m.Chapters)
	for _, delta := range deltas {
		chapters = Chapter(chapters, delta)
	}
	m.Chapters = chapters
}

// ReadState merges a single read-state delta onto the owning chapter
// and returns a fresh chapter list. The input slice and its chapters
// are never mutated; callers that handed out the old slice stay
// consistent.
func ReadState(chapters []*models.Chapter, delta json.RawMessage) []*models.Chapter {
	if len(chapters) == 0 || len(delta) == 0 {
		return chapters
	}

	var probe readStateProbe
	if err := json.Unmarshal(delta, &probe); err != nil {
		logger.Err.Println(err)
		return chapters
	}

	idx := indexOfChapter(chapters, probe.ChapterID)
	if idx < 0 {
		return chapters
	}

	cloned := CloneChapters(chapters)
	mergeReadState(cloned[idx], delta)
	return cloned
}

// ReadStates merges a batch of read-state deltas into the manga,
// keeping its readedChapters counter in step with every readed flag
// transition. The chapter list is cloned before the first mutation.
func ReadStates(m *models.Manga, deltas []json.RawMessage) {
	if m == nil || len(m.Chapters) == 0 || len(deltas) == 0 {
		return
	}

	cloned := false
	for _, delta := range deltas {
		var probe readStateProbe
		if err := json.Unmarshal(delta, &probe); err != nil {
			logger.Err.Println(err)
			continue
		}

		idx := indexOfChapter(m.Chapters, probe.ChapterID)
		if idx < 0 {
			continue
		}
		if !cloned {
			m.Chapters = CloneChapters(m.Chapters)
			cloned = true
		}

		c := m.Chapters[idx]

		// The old flag must be read before the merge overwrites it.
		wasReaded := c.Readed()
		if probe.Readed {
			if !wasReaded {
				m.ReadedChapters++
			}
		} else if wasReaded {
			m.ReadedChapters--
		}

		mergeReadState(c, delta)
	}
}

// All upserts a batch of manga deltas, appending entries that are
// not present yet.
func All(entries []*models.Manga, deltas []json.RawMessage) []*models.Manga {
	for _, delta := range deltas {
		entries = Manga(entries, delta, AppendAlways)
	}
	return entries
}

// Page folds one page of browse results. The first page replaces the
// accumulated entries, later pages append onto them.
func Page(entries []*models.Manga, offset int, deltas []json.RawMessage) []*models.Manga {
	if offset > 0 {
		return All(entries, deltas)
	}
	return All(nil, deltas)
}

func mergeReadState(c *models.Chapter, delta json.RawMessage) {
	if c.History == nil {
		c.History = &models.ReadState{}
	}
	if err := json.Unmarshal(delta, c.History); err != nil {
		logger.Err.Println(err)
	}
}

func indexOfChapter(chapters []*models.Chapter, id string) int {
	if id == "" {
		return -1
	}
	for i, c := range chapters {
		if c.ID == id {
			return i
		}
	}
	return -1
}
