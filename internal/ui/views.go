package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nonbiri/internal/store"
	"nonbiri/pkg/models"
)

// updatesRow is one rendered line of the updates feed: either a
// manga header or one of its chapters.
type updatesRow struct {
	header  string
	chapter *models.Chapter
}

// historyRow mirrors updatesRow for the history feed.
type historyRow struct {
	header string
	state  *models.ReadState
}

func updatesRows(entries []*store.UpdatesEntry) []updatesRow {
	var rows []updatesRow
	for _, e := range entries {
		rows = append(rows, updatesRow{header: e.Title})
		for _, c := range e.Chapters {
			rows = append(rows, updatesRow{chapter: c})
		}
	}
	return rows
}

func historyRows(entries []*store.HistoryEntry) []historyRow {
	var rows []historyRow
	for _, e := range entries {
		rows = append(rows, historyRow{header: e.Title})
		for _, r := range e.Entries {
			rows = append(rows, historyRow{state: r})
		}
	}
	return rows
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.tabBar())
	b.WriteString("\n\n")

	body := m.bodyLines()
	visible := m.bodyHeight()
	body = window(body, m.cursor[m.tab], visible)
	for len(body) < visible {
		body = append(body, "")
	}
	b.WriteString(strings.Join(body, "\n"))
	b.WriteString("\n")
	b.WriteString(m.statusBar())
	return b.String()
}

func (m Model) tabBar() string {
	var tabs []string
	for tab := Tab(0); tab < tabCount; tab++ {
		label := tab.String()
		if tab == TabLibrary {
			label = fmt.Sprintf("%s (%d)", label, len(m.library.View(models.BrowseQuery{})))
		}
		if tab == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) bodyHeight() int {
	// Tab bar, blank line, status bar.
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) bodyLines() []string {
	switch m.tab {
	case TabLibrary:
		return m.libraryLines()
	case TabUpdates:
		return m.updatesLines()
	case TabHistory:
		return m.historyLines()
	}
	return nil
}

func (m Model) libraryLines() []string {
	entries := m.library.View(models.BrowseQuery{})
	if len(entries) == 0 {
		return []string{dimStyle.Render("Library is empty. Follow manga to see them here.")}
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		unreaded := e.UnreadedChapters()
		marker := "  "
		if unreaded > 0 {
			marker = accentStyle.Render(unreadedChar) + " "
		}
		line := fmt.Sprintf("%s%s %s",
			marker,
			titleStyle.Render(truncate(e.Title, m.width-30)),
			dimStyle.Render(fmt.Sprintf("%d/%d chapters, updated %s",
				e.TotalChapters-unreaded, e.TotalChapters,
				models.FormatDate(e.LatestChapterAt))),
		)
		if i == m.cursor[m.tab] {
			line = selectedRowStyle.Render(fmt.Sprintf("> %s %s",
				truncate(e.Title, m.width-30),
				fmt.Sprintf("%d/%d", e.TotalChapters-unreaded, e.TotalChapters)))
		}
		lines[i] = line
	}
	return lines
}

func (m Model) updatesLines() []string {
	rows := updatesRows(m.updates.Entries())
	if len(rows) == 0 {
		if m.updates.Loading() {
			return []string{m.spin.View() + " Loading updates..."}
		}
		return []string{dimStyle.Render("No recent chapters. Press u to update the library.")}
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		if row.chapter == nil {
			lines[i] = titleStyle.Render(truncate(row.header, m.width-4))
			continue
		}
		lines[i] = m.chapterLine(row.chapter, i == m.cursor[m.tab])
	}
	return lines
}

func (m Model) chapterLine(c *models.Chapter, selected bool) string {
	mark := accentStyle.Render(unreadedChar)
	if c.Readed() {
		mark = readedStyle.Render(readedChar)
	}
	label := fmt.Sprintf("%s  %s", models.FormatChapter(c, true), models.FormatGroups(c.Groups))
	if selected {
		return selectedRowStyle.Render("  > " + truncate(label, m.width-8))
	}
	return fmt.Sprintf("  %s %s", mark, subtitleStyle.Render(truncate(label, m.width-8)))
}

func (m Model) historyLines() []string {
	rows := historyRows(m.history.Entries())
	if len(rows) == 0 {
		if m.history.Loading() {
			return []string{m.spin.View() + " Loading history..."}
		}
		return []string{dimStyle.Render("Nothing read yet.")}
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		if row.state == nil {
			lines[i] = titleStyle.Render(truncate(row.header, m.width-4))
			continue
		}
		lines[i] = m.stateLine(row.state, i == m.cursor[m.tab])
	}
	return lines
}

func (m Model) stateLine(r *models.ReadState, selected bool) string {
	mark := accentStyle.Render(unreadedChar)
	if r.Readed {
		mark = readedStyle.Render(readedChar)
	}
	label := fmt.Sprintf("%s  %s", models.FormatReadState(r, true), models.FormatDate(r.UpdatedAt))
	if selected {
		return selectedRowStyle.Render("  > " + truncate(label, m.width-8))
	}
	return fmt.Sprintf("  %s %s", mark, subtitleStyle.Render(truncate(label, m.width-8)))
}

func (m Model) statusBar() string {
	if m.statusErr && m.status != "" {
		return errorStyle.Render(m.status)
	}

	if state := m.library.UpdateState(); state != nil && state.Total > 0 {
		percent := float64(state.Progress) / float64(state.Total)
		return fmt.Sprintf("%s Updating %s %s %d/%d",
			m.spin.View(),
			truncate(state.Current, 24),
			m.bar.ViewAs(percent),
			state.Progress, state.Total)
	}

	help := "tab: switch view · j/k: move · x: toggle read · u: update · s: sort · q: quit"
	return dimStyle.Render(help)
}

// window returns the slice of lines to draw so the cursor stays
// visible.
func window(lines []string, cursor, height int) []string {
	if len(lines) <= height {
		return lines
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}

func truncate(s string, limit int) string {
	if limit < 4 {
		limit = 4
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
