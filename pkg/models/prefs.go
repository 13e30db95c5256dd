package models

// BrowsePreference is the persistent defaults applied to new browse
// queries.
type BrowsePreference struct {
	Language       Language   `json:"language"`
	Origins        []Language `json:"origins"`
	ExcludedTags   []string   `json:"excludedTags"`
	ContentRatings []Rating   `json:"ratings"`
}

// LibraryPreference controls library ordering and the automatic
// update schedule. UpdateFrequency is in hours.
type LibraryPreference struct {
	Sort            Sort  `json:"sort"`
	Order           Order `json:"order"`
	UpdateFrequency int64 `json:"updateFrequency"`
	LastUpdated     int64 `json:"lastUpdated"`
}

// ReaderPreference is the reader layout, navigation and shortcut
// configuration.
type ReaderPreference struct {
	ShowSidebar     bool            `json:"showSidebar"`
	SidebarPosition SidebarPosition `json:"sidebarPosition"`

	NavigateOnClick bool          `json:"navigateOnClick"`
	Direction       PageDirection `json:"direction"`
	Scale           PageScale     `json:"scale"`
	MaxWidth        string        `json:"maxWidth"`
	MaxHeight       string        `json:"maxHeight"`
	Gaps            string        `json:"gaps"`
	Zoom            string        `json:"zoom"`

	MaxPreloads int `json:"maxPreloads"`
	MaxParallel int `json:"maxParallel"`

	Keybinds       Keybinds `json:"keybinds"`
	KeyScrollSpeed string   `json:"keyScrollSpeed"`
}

// Keybinds maps reader actions to key identifiers.
type Keybinds struct {
	PreviousChapter string `json:"previousChapter"`
	NextChapter     string `json:"nextChapter"`
	PreviousPage    string `json:"previousPage"`
	NextPage        string `json:"nextPage"`
}

// Prefs bundles every preference group as served by TaskGetPrefs.
type Prefs struct {
	Browse  BrowsePreference  `json:"browse"`
	Library LibraryPreference `json:"library"`
	Reader  ReaderPreference  `json:"reader"`
}

// DefaultPrefs returns the preferences used before the server state
// has been fetched.
func DefaultPrefs() Prefs {
	return Prefs{
		Browse: BrowsePreference{
			Language:       English,
			Origins:        []Language{Japanese},
			ExcludedTags:   []string{"Boys' Love"},
			ContentRatings: []Rating{Safe, Suggestive, Erotica},
		},
		Library: LibraryPreference{
			Sort:            SortLatestUploadedChapter,
			Order:           DESC,
			UpdateFrequency: 2,
		},
		Reader: ReaderPreference{
			ShowSidebar:     true,
			SidebarPosition: SidebarLeft,
			Direction:       TopToBottom,
			Scale:           ScaleNone,
			MaxWidth:        "1024",
			MaxHeight:       "0",
			Gaps:            "10",
			Zoom:            "1.0",
			MaxPreloads:     3,
			MaxParallel:     6,
			Keybinds: Keybinds{
				PreviousChapter: "Comma",
				NextChapter:     "Period",
				PreviousPage:    "ArrowLeft",
				NextPage:        "ArrowRight",
			},
			KeyScrollSpeed: "40",
		},
	}
}
