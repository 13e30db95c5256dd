package websocket

import (
	"context"
	"encoding/json"

	"nonbiri/pkg/models"
)

// do sends a request and decodes the reply body into T. A reply
// without a body yields the zero value.
func do[T any](ctx context.Context, c Client, task models.Task, body any) (T, error) {
	var result T
	buf, err := c.SendRequest(ctx, task, body)
	if err != nil {
		return result, err
	}
	if len(buf) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(buf, &result); err != nil {
		return result, err
	}
	return result, nil
}

func GetManga(ctx context.Context, c Client, id string) (*models.Manga, error) {
	return do[*models.Manga](ctx, c, models.TaskGetManga, id)
}

func UpdateManga(ctx context.Context, c Client, id string) (*models.Manga, error) {
	return do[*models.Manga](ctx, c, models.TaskUpdateManga, map[string]any{"mangaId": id})
}

func FollowManga(ctx context.Context, c Client, id string, state models.FollowState) (*models.Manga, error) {
	return do[*models.Manga](ctx, c, models.TaskFollowManga, map[string]any{
		"mangaId":     id,
		"followState": state,
	})
}

func UnfollowManga(ctx context.Context, c Client, id string) (*models.Manga, error) {
	return do[*models.Manga](ctx, c, models.TaskUnfollowManga, id)
}

func GetChapter(ctx context.Context, c Client, id string) (*models.Chapter, error) {
	return do[*models.Chapter](ctx, c, models.TaskGetChapter, map[string]any{"chapterId": id})
}

func UpdateChapter(ctx context.Context, c Client, id string) (*models.Chapter, error) {
	return do[*models.Chapter](ctx, c, models.TaskUpdateChapter, map[string]any{"chapterId": id})
}

func GetChapters(ctx context.Context, c Client, mangaID string) ([]*models.Chapter, error) {
	return do[[]*models.Chapter](ctx, c, models.TaskGetChapters, mangaID)
}

func UpdateChapters(ctx context.Context, c Client, mangaID string) ([]*models.Chapter, error) {
	return do[[]*models.Chapter](ctx, c, models.TaskUpdateChapters, map[string]any{"mangaId": mangaID})
}

func ReadPage(ctx context.Context, c Client, chapterID string, page int) (*models.ReadState, error) {
	return do[*models.ReadState](ctx, c, models.TaskReadPage, map[string]any{
		"chapterId": chapterID,
		"page":      page,
	})
}

// ReadChapter marks one or more chapters read. The single and batch
// forms use different body keys on the wire.
func ReadChapter(ctx context.Context, c Client, ids ...string) ([]*models.ReadState, error) {
	return do[[]*models.ReadState](ctx, c, models.TaskReadChapter, chapterBody(ids))
}

// UnreadChapter clears the read mark of one or more chapters.
func UnreadChapter(ctx context.Context, c Client, ids ...string) ([]*models.ReadState, error) {
	return do[[]*models.ReadState](ctx, c, models.TaskUnreadChapter, chapterBody(ids))
}

func chapterBody(ids []string) any {
	if len(ids) > 1 {
		return map[string]any{"chapterIds": ids}
	}
	var id string
	if len(ids) == 1 {
		id = ids[0]
	}
	return map[string]any{"chapterId": id}
}

func GetLibrary(ctx context.Context, c Client) ([]*models.Manga, error) {
	return do[[]*models.Manga](ctx, c, models.TaskLibrary, nil)
}

func GetBrowse(ctx context.Context, c Client, q models.BrowseQuery) (*models.BrowseData, error) {
	return do[*models.BrowseData](ctx, c, models.TaskBrowse, q)
}

func GetTags(ctx context.Context, c Client) ([]*models.Entity, error) {
	return do[[]*models.Entity](ctx, c, models.TaskTags, nil)
}

func GetUpdates(ctx context.Context, c Client) ([]*models.Chapter, error) {
	return do[[]*models.Chapter](ctx, c, models.TaskUpdates, nil)
}

func GetHistory(ctx context.Context, c Client) ([]*models.ReadState, error) {
	return do[[]*models.ReadState](ctx, c, models.TaskHistory, nil)
}

func GetPrefs(ctx context.Context, c Client) (*models.Prefs, error) {
	return do[*models.Prefs](ctx, c, models.TaskGetPrefs, nil)
}

func GetBrowsePreference(ctx context.Context, c Client) (*models.BrowsePreference, error) {
	return do[*models.BrowsePreference](ctx, c, models.TaskGetBrowsePreference, nil)
}

func GetLibraryPreference(ctx context.Context, c Client) (*models.LibraryPreference, error) {
	return do[*models.LibraryPreference](ctx, c, models.TaskGetLibraryPreference, nil)
}

func GetReaderPreference(ctx context.Context, c Client) (*models.ReaderPreference, error) {
	return do[*models.ReaderPreference](ctx, c, models.TaskGetReaderPreference, nil)
}

func UpdateBrowsePreference(ctx context.Context, c Client, pref models.BrowsePreference) (*models.BrowsePreference, error) {
	return do[*models.BrowsePreference](ctx, c, models.TaskUpdateBrowsePreference, pref)
}

func UpdateLibraryPreference(ctx context.Context, c Client, pref models.LibraryPreference) (*models.LibraryPreference, error) {
	return do[*models.LibraryPreference](ctx, c, models.TaskUpdateLibraryPreference, pref)
}

func UpdateReaderPreference(ctx context.Context, c Client, pref models.ReaderPreference) (*models.ReaderPreference, error) {
	return do[*models.ReaderPreference](ctx, c, models.TaskUpdateReaderPreference, pref)
}

func UpdateLibrary(ctx context.Context, c Client) (*models.LibraryUpdateState, error) {
	return do[*models.LibraryUpdateState](ctx, c, models.TaskUpdateLibrary, nil)
}

func GetUpdateLibraryState(ctx context.Context, c Client) (*models.LibraryUpdateState, error) {
	return do[*models.LibraryUpdateState](ctx, c, models.TaskGetUpdateLibraryState, nil)
}
