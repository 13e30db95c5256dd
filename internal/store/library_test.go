package store

import (
	"context"
	"testing"

	"nonbiri/pkg/models"
)

func TestLibraryBootstrap(t *testing.T) {
	followed := newTestManga("Alpha", true, 2)
	tags := []*models.Entity{{ID: "t1", Name: "Adventure"}}
	prefs := models.DefaultPrefs()
	prefs.Library.Sort = models.SortTitle
	prefs.Library.Order = models.ASC

	client := newFakeClient(func(task models.Task, body any) (any, error) {
		switch task {
		case models.TaskGetPrefs:
			return prefs, nil
		case models.TaskTags:
			return tags, nil
		case models.TaskLibrary:
			return []*models.Manga{followed}, nil
		}
		return nil, nil
	})

	lib := NewLibrary(client)
	lib.Mount()
	t.Cleanup(lib.Unmount)

	if err := lib.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Failed to bootstrap: %v", err)
	}

	if got := lib.Entries(); len(got) != 1 || got[0].ID != followed.ID {
		t.Errorf("Entries = %d items, want the followed manga", len(got))
	}
	if got := lib.Tags(); len(got) != 1 || got[0].Name != "Adventure" {
		t.Errorf("Tags = %v, want the fetched tag", got)
	}
	if got := lib.Prefs(); got.Library.Sort != models.SortTitle {
		t.Errorf("Library sort = %v, want %v", got.Library.Sort, models.SortTitle)
	}
}

func TestLibraryFollowBroadcastAppends(t *testing.T) {
	client := newFakeClient(nil)
	lib := NewLibrary(client)
	lib.Mount()
	t.Cleanup(lib.Unmount)

	followed := newTestManga("Followed", true, 0)
	unfollowed := newTestManga("Unfollowed", false, 0)

	client.push(t, models.TaskFollowManga, followed)
	client.push(t, models.TaskGetManga, unfollowed)

	entries := lib.Entries()
	if len(entries) != 1 {
		t.Fatalf("Entries = %d items, want 1", len(entries))
	}
	if entries[0].ID != followed.ID {
		t.Errorf("Entry = %q, want the followed manga", entries[0].Title)
	}
}

func TestLibraryReadBroadcastsMaintainCounter(t *testing.T) {
	client := newFakeClient(nil)
	lib := NewLibrary(client)
	lib.Mount()
	t.Cleanup(lib.Unmount)

	m := newTestManga("Alpha", true, 3)
	client.push(t, models.TaskLibrary, []*models.Manga{m})

	client.push(t, models.TaskReadChapter, []map[string]any{
		readStateBody(m.Chapters[0].ID, m.ID, true),
		readStateBody(m.Chapters[1].ID, m.ID, true),
	})
	if got := lib.Entry(m.ID); got.ReadedChapters != 2 {
		t.Errorf("ReadedChapters = %d, want 2", got.ReadedChapters)
	}

	client.push(t, models.TaskUnreadChapter, []map[string]any{
		readStateBody(m.Chapters[0].ID, m.ID, false),
	})
	if got := lib.Entry(m.ID); got.ReadedChapters != 1 {
		t.Errorf("ReadedChapters = %d, want 1", got.ReadedChapters)
	}
}

func TestLibraryUnmountStopsMutation(t *testing.T) {
	client := newFakeClient(nil)
	lib := NewLibrary(client)
	lib.Mount()

	m := newTestManga("Alpha", true, 0)
	client.push(t, models.TaskLibrary, []*models.Manga{m})
	lib.Unmount()

	client.push(t, models.TaskFollowManga, newTestManga("Late", true, 0))
	client.push(t, models.TaskLibrary, []*models.Manga{newTestManga("Later", true, 0)})

	entries := lib.Entries()
	if len(entries) != 1 || entries[0].ID != m.ID {
		t.Errorf("Entries changed after unmount: %d items", len(entries))
	}
}

func TestLibraryView(t *testing.T) {
	client := newFakeClient(nil)
	lib := NewLibrary(client)
	lib.Mount()
	t.Cleanup(lib.Unmount)

	a := newTestManga("Berserk", true, 0)
	a.Authors = []*models.Entity{{ID: "1", Name: "Kentarou Miura"}}
	a.Tags = []string{"Action", "Horror"}
	a.Demographic = models.Shounen
	a.Origin = models.Japanese
	b := newTestManga("Vagabond", true, 0)
	b.Authors = []*models.Entity{{ID: "2", Name: "Takehiko Inoue"}}
	b.Tags = []string{"Action", "Historical"}
	b.Demographic = models.Seinen
	b.Origin = models.Japanese
	c := newTestManga("Dropped", false, 0)

	client.push(t, models.TaskLibrary, []*models.Manga{a, b, c})

	// Unfollowed entries never show.
	if got := lib.View(models.BrowseQuery{}); len(got) != 2 {
		t.Fatalf("View = %d items, want 2", len(got))
	}

	// Title search also matches creators, case-insensitively.
	got := lib.View(models.BrowseQuery{Title: "miura"})
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("Author search matched %d items", len(got))
	}

	// Included tags are conjunctive.
	got = lib.View(models.BrowseQuery{IncludedTags: []string{"Action", "Horror"}})
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("Included tag search matched %d items", len(got))
	}

	// A single excluded tag disqualifies.
	got = lib.View(models.BrowseQuery{ExcludedTags: []string{"Horror"}})
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("Excluded tag search matched %d items", len(got))
	}

	// Enum allow lists narrow the result; empty lists allow all.
	got = lib.View(models.BrowseQuery{Demographic: []models.Demographic{models.Seinen}})
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("Demographic filter matched %d items", len(got))
	}
	got = lib.View(models.BrowseQuery{ExcludedOrigin: []models.Language{models.Japanese}})
	if len(got) != 0 {
		t.Errorf("Excluded origin filter matched %d items, want 0", len(got))
	}
}

func TestLibraryViewSort(t *testing.T) {
	client := newFakeClient(nil)
	lib := NewLibrary(client)
	lib.Mount()
	t.Cleanup(lib.Unmount)

	a := newTestManga("Alpha", true, 0)
	a.TotalChapters, a.ReadedChapters = 10, 10
	b := newTestManga("Beta", true, 0)
	b.TotalChapters, b.ReadedChapters = 10, 2
	c := newTestManga("Gamma", true, 0)
	c.TotalChapters, c.ReadedChapters = 10, 5

	client.push(t, models.TaskLibrary, []*models.Manga{a, b, c})
	client.push(t, models.TaskUpdateLibraryPreference, models.LibraryPreference{
		Sort:  models.SortUnreadedChapters,
		Order: models.DESC,
	})

	got := lib.View(models.BrowseQuery{})
	if len(got) != 3 || got[0].ID != b.ID || got[1].ID != c.ID || got[2].ID != a.ID {
		titles := make([]string, len(got))
		for i, m := range got {
			titles[i] = m.Title
		}
		t.Errorf("Sorted view = %v, want [Beta Gamma Alpha]", titles)
	}
}

func TestLibrarySetSortTogglesOrder(t *testing.T) {
	client := newFakeClient(func(task models.Task, body any) (any, error) {
		if task == models.TaskUpdateLibraryPreference {
			return body, nil
		}
		return nil, nil
	})
	lib := NewLibrary(client)
	lib.Mount()
	t.Cleanup(lib.Unmount)

	// Default sort is latestUploadedChapter desc; a new key starts asc.
	if err := lib.SetSort(context.Background(), models.SortTitle); err != nil {
		t.Fatalf("Failed to set sort: %v", err)
	}
	if got := lib.Prefs().Library; got.Sort != models.SortTitle || got.Order != models.ASC {
		t.Errorf("Preference = %v %v, want title asc", got.Sort, got.Order)
	}

	// The same key flips the order.
	if err := lib.SetSort(context.Background(), models.SortTitle); err != nil {
		t.Fatalf("Failed to toggle order: %v", err)
	}
	if got := lib.Prefs().Library; got.Order != models.DESC {
		t.Errorf("Order = %v, want desc", got.Order)
	}
}

func TestLibraryUpdateState(t *testing.T) {
	client := newFakeClient(nil)
	lib := NewLibrary(client)
	lib.Mount()
	t.Cleanup(lib.Unmount)

	client.push(t, models.TaskUpdateLibrary, models.LibraryUpdateState{
		Current:  "Alpha",
		Progress: 1,
		Total:    4,
	})
	if !lib.Updating() {
		t.Error("Updating = false while a state is cached")
	}

	client.push(t, models.TaskGetUpdateLibraryState, nil)
	if lib.Updating() {
		t.Error("Updating = true after the state cleared")
	}
}
