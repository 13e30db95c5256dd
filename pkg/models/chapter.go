package models

// ChapterMetadata is the descriptive half of a chapter.
type ChapterMetadata struct {
	CreatedAt int64 `json:"createdAt,omitempty"`
	PublishAt int64 `json:"publishAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`

	Title    string    `json:"title,omitempty"`
	Volume   string    `json:"volume,omitempty"`
	Chapter  string    `json:"chapter,omitempty"`
	Language Language  `json:"language,omitempty"`
	Groups   []*Entity `json:"groups,omitempty"`

	Hash        string `json:"hash,omitempty"`
	ExternalURL string `json:"externalURL,omitempty"`
}

// Chapter is one release of a manga. MangaTitle and Cover are only
// populated on denormalized feed entries.
type Chapter struct {
	ID      string `json:"id"`
	MangaID string `json:"mangaId"`

	ChapterMetadata

	Pages   []string   `json:"pages,omitempty"`
	History *ReadState `json:"history,omitempty"`

	MangaTitle string `json:"mangaTitle,omitempty"`
	Cover      string `json:"cover,omitempty"`
}

// Readed reports whether the chapter carries a read mark.
func (c *Chapter) Readed() bool {
	return c.History != nil && c.History.Readed
}

// GroupIDs returns the ids of the chapter's scanlation groups.
func (c *Chapter) GroupIDs() []string {
	ids := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		ids = append(ids, g.ID)
	}
	return ids
}
