package models

// Task identifies an operation on the wire. Values are part of the
// protocol and must stay in sync with the server.
type Task int

const (
	TaskGetManga      Task = 1
	TaskUpdateManga   Task = 2
	TaskFollowManga   Task = 3
	TaskUnfollowManga Task = 4

	TaskGetChapter     Task = 5
	TaskUpdateChapter  Task = 6
	TaskGetChapters    Task = 7
	TaskUpdateChapters Task = 8

	TaskReadPage      Task = 9
	TaskReadChapter   Task = 10
	TaskUnreadChapter Task = 11

	TaskLibrary Task = 30
	TaskBrowse  Task = 31
	TaskTags    Task = 32
	TaskUpdates Task = 33
	TaskHistory Task = 34

	TaskGetPrefs             Task = 40
	TaskGetBrowsePreference  Task = 41
	TaskGetLibraryPreference Task = 42
	TaskGetReaderPreference  Task = 43

	TaskUpdateBrowsePreference  Task = 51
	TaskUpdateLibraryPreference Task = 52
	TaskUpdateReaderPreference  Task = 53

	TaskUpdateLibrary         Task = 60
	TaskGetUpdateLibraryState Task = 61
)

func (t Task) String() string {
	switch t {
	case TaskGetManga:
		return "getManga"
	case TaskUpdateManga:
		return "updateManga"
	case TaskFollowManga:
		return "followManga"
	case TaskUnfollowManga:
		return "unfollowManga"
	case TaskGetChapter:
		return "getChapter"
	case TaskUpdateChapter:
		return "updateChapter"
	case TaskGetChapters:
		return "getChapters"
	case TaskUpdateChapters:
		return "updateChapters"
	case TaskReadPage:
		return "readPage"
	case TaskReadChapter:
		return "readChapter"
	case TaskUnreadChapter:
		return "unreadChapter"
	case TaskLibrary:
		return "library"
	case TaskBrowse:
		return "browse"
	case TaskTags:
		return "tags"
	case TaskUpdates:
		return "updates"
	case TaskHistory:
		return "history"
	case TaskGetPrefs:
		return "getPrefs"
	case TaskGetBrowsePreference:
		return "getBrowsePreference"
	case TaskGetLibraryPreference:
		return "getLibraryPreference"
	case TaskGetReaderPreference:
		return "getReaderPreference"
	case TaskUpdateBrowsePreference:
		return "updateBrowsePreference"
	case TaskUpdateLibraryPreference:
		return "updateLibraryPreference"
	case TaskUpdateReaderPreference:
		return "updateReaderPreference"
	case TaskUpdateLibrary:
		return "updateLibrary"
	case TaskGetUpdateLibraryState:
		return "getUpdateLibraryState"
	default:
		return "unknown"
	}
}
