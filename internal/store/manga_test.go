package store

import (
	"context"
	"sync"
	"testing"

	"nonbiri/pkg/models"
)

func TestMangaFollowRetriesAfterUnknownManga(t *testing.T) {
	m := newTestManga("Alpha", false, 0)

	var mu sync.Mutex
	known := false
	client := newFakeClient(func(task models.Task, body any) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		switch task {
		case models.TaskFollowManga:
			if !known {
				return nil, models.ErrMangaNotFound
			}
			followed := *m
			followed.Followed = true
			followed.FollowState = models.FollowReading
			return &followed, nil
		case models.TaskUpdateManga:
			known = true
			return m, nil
		}
		return nil, nil
	})

	store := NewManga(client, m.ID, m)
	store.Mount()
	t.Cleanup(store.Unmount)

	if err := store.ToggleFollow(context.Background()); err != nil {
		t.Fatalf("Failed to follow: %v", err)
	}

	want := []models.Task{models.TaskFollowManga, models.TaskUpdateManga, models.TaskFollowManga}
	got := client.sentTasks()
	if len(got) != len(want) {
		t.Fatalf("Requests = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Requests = %v, want %v", got, want)
		}
	}

	if data := store.Data(); data == nil || !data.Followed {
		t.Error("Store did not pick up the follow reply")
	}
}

func TestMangaToggleFollowUnfollows(t *testing.T) {
	m := newTestManga("Alpha", true, 0)

	client := newFakeClient(func(task models.Task, body any) (any, error) {
		if task == models.TaskUnfollowManga {
			unfollowed := *m
			unfollowed.Followed = false
			unfollowed.FollowState = models.FollowNone
			return &unfollowed, nil
		}
		return nil, nil
	})

	store := NewManga(client, m.ID, m)
	store.Mount()
	t.Cleanup(store.Unmount)

	if err := store.ToggleFollow(context.Background()); err != nil {
		t.Fatalf("Failed to unfollow: %v", err)
	}
	if got := client.sentTasks(); len(got) != 1 || got[0] != models.TaskUnfollowManga {
		t.Errorf("Requests = %v, want [UnfollowManga]", got)
	}
	if data := store.Data(); data.Followed {
		t.Error("Store still marks the manga followed")
	}
}

func TestMangaLoadFetchesWhatIsMissing(t *testing.T) {
	m := newTestManga("Alpha", false, 2)

	client := newFakeClient(func(task models.Task, body any) (any, error) {
		switch task {
		case models.TaskGetManga:
			bare := *m
			bare.Chapters = nil
			return &bare, nil
		case models.TaskGetChapters:
			return m.Chapters, nil
		}
		return nil, nil
	})

	// Unseeded: the manga itself is fetched.
	store := NewManga(client, m.ID, nil)
	store.Mount()
	t.Cleanup(store.Unmount)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if data := store.Data(); data == nil || data.Title != "Alpha" {
		t.Fatal("Manga was not fetched")
	}
	if got := client.sentTasks(); got[0] != models.TaskGetManga {
		t.Errorf("First request = %v, want GetManga", got[0])
	}

	// Seeded without chapters: only the chapter list is fetched.
	seeded := *m
	seeded.Chapters = nil
	store2 := NewManga(client, m.ID, &seeded)
	store2.Mount()
	t.Cleanup(store2.Unmount)
	if err := store2.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load seeded store: %v", err)
	}
	if data := store2.Data(); len(data.Chapters) != 2 {
		t.Errorf("Chapters = %d, want 2", len(data.Chapters))
	}
	got := client.sentTasks()
	if got[len(got)-1] != models.TaskGetChapters {
		t.Errorf("Last request = %v, want GetChapters", got[len(got)-1])
	}
}

func TestMangaIgnoresOtherManga(t *testing.T) {
	m := newTestManga("Alpha", false, 0)
	client := newFakeClient(nil)

	store := NewManga(client, m.ID, m)
	store.Mount()
	t.Cleanup(store.Unmount)

	client.push(t, models.TaskUpdateManga, newTestManga("Other", true, 0))

	if data := store.Data(); data.Title != "Alpha" {
		t.Errorf("Title = %q, a foreign broadcast leaked in", data.Title)
	}
}

func TestMangaMarkChaptersBelow(t *testing.T) {
	m := newTestManga("Alpha", true, 4)
	m.Chapters[3].History = &models.ReadState{Readed: true}

	client := newFakeClient(nil)
	store := NewManga(client, m.ID, m)
	store.Mount()
	t.Cleanup(store.Unmount)

	if err := store.MarkChaptersBelow(context.Background(), m.Chapters[1].ID); err != nil {
		t.Fatalf("Failed to mark chapters: %v", err)
	}

	sent := client.sent()
	if len(sent) != 1 || sent[0].task != models.TaskReadChapter {
		t.Fatalf("Requests = %v, want one ReadChapter", client.sentTasks())
	}
	body, ok := sent[0].body.(map[string]any)
	if !ok {
		t.Fatalf("Body = %T, want map", sent[0].body)
	}
	ids, ok := body["chapterIds"].([]string)
	if !ok || len(ids) != 2 {
		t.Fatalf("Body = %v, want the two unread chapters below", body)
	}
	if ids[0] != m.Chapters[1].ID || ids[1] != m.Chapters[2].ID {
		t.Errorf("Chapter ids = %v, want [%s %s]", ids, m.Chapters[1].ID, m.Chapters[2].ID)
	}
}
