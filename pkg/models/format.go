package models

import (
	"fmt"
	"strings"
	"time"
)

// FormatDate renders a unix timestamp as MM/DD/YY HH:MM.
func FormatDate(v int64) string {
	return time.Unix(v, 0).Format("01/02/06 15:04")
}

// FormatGroups joins group names for display, "A, B & C" style.
func FormatGroups(groups []*Entity) string {
	if len(groups) == 0 {
		return "No Group"
	}
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	last := names[len(names)-1]
	names = names[:len(names)-1]
	if len(names) == 0 {
		if last == "" {
			return "No Group"
		}
		return last
	}
	return strings.Join(names, ", ") + " & " + last
}

// FormatChapter renders a chapter label such as "Vol. 2 Ch. 15 - The
// Title". Oneshots keep their title as-is.
func FormatChapter(c *Chapter, includeTitle bool) string {
	if c == nil {
		return ""
	}
	if c.Title == "Oneshot" {
		return c.Title
	}

	var parts []string
	if c.Volume != "" {
		parts = append(parts, fmt.Sprintf("Vol. %s", c.Volume))
	}
	if c.Chapter != "" {
		parts = append(parts, fmt.Sprintf("Ch. %s", c.Chapter))
	}
	if c.Title != "" && includeTitle {
		parts = append(parts, fmt.Sprintf("- %s", c.Title))
	}

	if len(parts) == 0 {
		return "Ch. 0"
	}
	return strings.Join(parts, " ")
}

// FormatReadState renders a history entry the same way FormatChapter
// renders a chapter.
func FormatReadState(r *ReadState, includeTitle bool) string {
	if r == nil {
		return ""
	}
	return FormatChapter(&Chapter{
		ID: r.ChapterID,
		ChapterMetadata: ChapterMetadata{
			Title:   r.Title,
			Volume:  r.Volume,
			Chapter: r.Chapter,
			Groups:  r.Groups,
		},
	}, includeTitle)
}
