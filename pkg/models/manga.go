package models

// Entity is a named resource attached to a manga or chapter, such as
// an author, artist or scanlation group.
type Entity struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Related links a manga to another title in the same franchise.
type Related struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// Links holds external tracker and storefront URLs for a manga.
type Links struct {
	AniList      string `json:"al,omitempty"`
	AnimePlanet  string `json:"ap,omitempty"`
	MangaWalker  string `json:"bw,omitempty"`
	MangaUpdates string `json:"mu,omitempty"`
	NovelUpdates string `json:"nu,omitempty"`
	Kitsu        string `json:"kt,omitempty"`
	Amazon       string `json:"amz,omitempty"`
	EmangaJapan  string `json:"ebj,omitempty"`
	MyAnimeList  string `json:"mal,omitempty"`
	RAW          string `json:"raw,omitempty"`
	ENGTL        string `json:"engtl,omitempty"`
}

// MangaMetadata is the descriptive half of a manga, shared by full
// entries and partial updates.
type MangaMetadata struct {
	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Cover       string `json:"cover"`

	Authors  []*Entity  `json:"authors,omitempty"`
	Artists  []*Entity  `json:"artists,omitempty"`
	Tags     []string   `json:"tags,omitempty"`
	Links    Links      `json:"links,omitempty"`
	Relateds []*Related `json:"relateds,omitempty"`

	Demographic Demographic `json:"demographic,omitempty"`
	Origin      Language    `json:"origin,omitempty"`
	Rating      Rating      `json:"rating,omitempty"`
	Status      Status      `json:"status,omitempty"`
}

// Manga is a single library or browse entry together with its reading
// statistics and, when loaded, its chapter list.
type Manga struct {
	ID string `json:"id"`

	MangaMetadata

	Chapters []*Chapter `json:"chapters,omitempty"`
	Banner   string     `json:"banner,omitempty"`

	TotalChapters   int   `json:"totalChapters"`
	LatestChapterAt int64 `json:"latestChapterAt"`
	ReadedChapters  int   `json:"readedChapters"`

	Followed    bool        `json:"followed"`
	FollowState FollowState `json:"followState"`
	FollowedAt  int64       `json:"followedAt"`
}

// UnreadedChapters is the number of chapters without a read mark.
func (m *Manga) UnreadedChapters() int {
	return m.TotalChapters - m.ReadedChapters
}

// Chapter finds a chapter by id, returning nil when absent.
func (m *Manga) Chapter(id string) *Chapter {
	for _, c := range m.Chapters {
		if c.ID == id {
			return c
		}
	}
	return nil
}
