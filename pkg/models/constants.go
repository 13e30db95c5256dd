package models

// Language identifies a translation or origin language.
type Language int

const (
	English Language = iota + 1
	Japanese
	Chinese
	Korean
)

func (l Language) String() string {
	switch l {
	case Japanese:
		return "ja"
	case Chinese:
		return "zh"
	case Korean:
		return "ko"
	default:
		return "en"
	}
}

// Rating is the content rating of a manga.
type Rating int

const (
	Safe Rating = iota + 1
	Suggestive
	Erotica
	Pornographic
)

func (r Rating) String() string {
	switch r {
	case Suggestive:
		return "suggestive"
	case Erotica:
		return "erotica"
	case Pornographic:
		return "pornographic"
	default:
		return "safe"
	}
}

// Status is the publication status of a manga.
type Status int

const (
	Ongoing Status = iota + 1
	Completed
	Cancelled
	Hiatus
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Hiatus:
		return "hiatus"
	default:
		return "ongoing"
	}
}

// Demographic is the target demographic of a manga.
type Demographic int

const (
	Josei Demographic = iota + 1
	Seinen
	Shoujo
	Shounen
)

func (d Demographic) String() string {
	switch d {
	case Seinen:
		return "seinen"
	case Shoujo:
		return "shoujo"
	case Shounen:
		return "shounen"
	default:
		return "josei"
	}
}

// FollowState tracks where a followed manga sits in the user's reading plan.
type FollowState int

const (
	FollowNone FollowState = iota
	FollowReading
	FollowPlanning
	FollowCompleted
	FollowDropped
)

func (f FollowState) String() string {
	switch f {
	case FollowReading:
		return "reading"
	case FollowPlanning:
		return "planning"
	case FollowCompleted:
		return "completed"
	case FollowDropped:
		return "dropped"
	default:
		return "none"
	}
}

// Sort selects the key used when ordering manga lists.
type Sort int

const (
	SortTitle Sort = iota + 1
	SortTotalChapters
	SortCreatedAt
	SortUpdatedAt
	SortPublishAt
	SortLatestUploadedChapter
	SortFollowedCount
	SortRelevance
	SortVolume
	SortChapter

	SortUnreadedChapters Sort = 20
)

func (s Sort) String() string {
	switch s {
	case SortTotalChapters:
		return "totalChapters"
	case SortCreatedAt:
		return "createdAt"
	case SortUpdatedAt:
		return "updatedAt"
	case SortPublishAt:
		return "publishAt"
	case SortLatestUploadedChapter:
		return "latestUploadedChapter"
	case SortFollowedCount:
		return "followedCount"
	case SortRelevance:
		return "relevance"
	case SortVolume:
		return "volume"
	case SortChapter:
		return "chapter"
	case SortUnreadedChapters:
		return "unreadedChapters"
	default:
		return "title"
	}
}

// Order is the direction applied to a Sort.
type Order int

const (
	ASC Order = iota + 1
	DESC
)

func (o Order) String() string {
	if o == DESC {
		return "desc"
	}
	return "asc"
}

// PageDirection is the reading direction inside the reader.
type PageDirection int

const (
	TopToBottom PageDirection = iota + 1
	RightToLeft
	LeftToRight
)

// PageScale controls how reader pages are fitted to the viewport.
type PageScale int

const (
	ScaleNone PageScale = iota
	ScaleOriginal
	ScaleWidth
	ScaleHeight
	ScaleStretch
	ScaleFitWidth
	ScaleFitHeight
	ScaleStretchWidth
	ScaleStretchHeight
)

// SidebarPosition places the reader sidebar.
type SidebarPosition int

const (
	SidebarLeft SidebarPosition = iota + 1
	SidebarRight
)
