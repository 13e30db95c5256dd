package models

// ReadState is the reading progress of a single chapter. Entries in
// the history feed are denormalized with the owning manga and chapter
// metadata; deltas attached to chapters carry only the progress
// fields.
type ReadState struct {
	ID        uint64 `json:"id"`
	ChapterID string `json:"chapterId"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`

	Readed     bool `json:"readed"`
	LastViewed int  `json:"lastViewed"`

	MangaID    string `json:"mangaId,omitempty"`
	MangaTitle string `json:"mangaTitle,omitempty"`
	Cover      string `json:"cover,omitempty"`

	Title    string    `json:"title,omitempty"`
	Volume   string    `json:"volume,omitempty"`
	Chapter  string    `json:"chapter,omitempty"`
	Language Language  `json:"language,omitempty"`
	Groups   []*Entity `json:"groups,omitempty"`
}

// Unreaded reports whether the chapter has neither a read mark nor a
// last viewed page.
func (r *ReadState) Unreaded() bool {
	return !r.Readed && r.LastViewed == 0
}
