package models

// BrowseQuery is the search form sent with a browse request. Zero
// fields are omitted on the wire.
type BrowseQuery struct {
	Limit             int           `json:"limit,omitempty"`
	Offset            int           `json:"offset,omitempty"`
	Title             string        `json:"title,omitempty"`
	Authors           []string      `json:"author,omitempty"`
	Artists           []string      `json:"artist,omitempty"`
	Year              int           `json:"year,omitempty"`
	IncludedTags      []string      `json:"includedTag,omitempty"`
	ExcludedTags      []string      `json:"excludedTag,omitempty"`
	Status            []Status      `json:"status,omitempty"`
	Origin            []Language    `json:"origin,omitempty"`
	ExcludedOrigin    []Language    `json:"excludedOrigin,omitempty"`
	AvailableLanguage []Language    `json:"availableLanguage,omitempty"`
	Demographic       []Demographic `json:"demographic,omitempty"`
	IDs               []string      `json:"id,omitempty"`
	ContentRating     []Rating      `json:"rating,omitempty"`

	Sort  Sort  `json:"sort,omitempty"`
	Order Order `json:"order,omitempty"`
}

// BrowseData is one page of browse results together with the query
// that produced it.
type BrowseData struct {
	Entries []*Manga    `json:"entries"`
	Query   BrowseQuery `json:"query"`

	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// LibraryUpdateState reports the progress of a running library
// update. A nil state means no update is in flight.
type LibraryUpdateState struct {
	Current  string `json:"current"`
	Progress int    `json:"progress"`
	Total    int    `json:"total"`
}
