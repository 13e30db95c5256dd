package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"nonbiri/internal/store"
	"nonbiri/pkg/models"
)

// Tab identifies the visible view.
type Tab int

const (
	TabLibrary Tab = iota
	TabUpdates
	TabHistory
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabLibrary:
		return "Library"
	case TabUpdates:
		return "Updates"
	case TabHistory:
		return "History"
	}
	return "Unknown"
}

// librarySortCycle is the order the sort keybind walks through.
var librarySortCycle = []models.Sort{
	models.SortTitle,
	models.SortTotalChapters,
	models.SortUnreadedChapters,
	models.SortLatestUploadedChapter,
}

const requestTimeout = 15 * time.Second

// Model is the root Bubble Tea model. It renders snapshots of the
// mounted stores; StoreChangedMsg arrives whenever any of them folds
// in a frame.
type Model struct {
	keys KeyMap

	library *store.Library
	updates *store.Updates
	history *store.History

	spin spinner.Model
	bar  progress.Model

	tab    Tab
	cursor [tabCount]int
	width  int
	height int

	status    string
	statusErr bool
}

func NewModel(library *store.Library, updates *store.Updates, history *store.History) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = accentStyle

	return Model{
		keys:    DefaultKeyMap(),
		library: library,
		updates: updates,
		history: history,
		spin:    spin,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(min(msg.Width-24, 40), 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case StoreChangedMsg:
		m.clampCursor()
		return m, nil

	case ErrMsg:
		m.status = msg.Error()
		m.statusErr = true
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.tab] > 0 {
			m.cursor[m.tab]--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.tab] < m.rowCount()-1 {
			m.cursor[m.tab]++
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggleCmd()

	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		return m, request("update library", m.library.StartUpdate)

	case key.Matches(msg, m.keys.Sort):
		return m, m.sortCmd()

	case key.Matches(msg, m.keys.Reload):
		m.status = ""
		switch m.tab {
		case TabUpdates:
			return m, request("load updates", m.updates.Load)
		case TabHistory:
			return m, request("load history", m.history.Load)
		}
		return m, nil
	}
	return m, nil
}

// request wraps a store call into a command that surfaces failures
// on the status line.
func request(what string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return ErrMsg{Err: err, Context: what}
		}
		return nil
	}
}

func (m Model) toggleCmd() tea.Cmd {
	switch m.tab {
	case TabUpdates:
		rows := updatesRows(m.updates.Entries())
		i := m.cursor[m.tab]
		if i < len(rows) && rows[i].chapter != nil {
			c := rows[i].chapter
			return request("toggle read", func(ctx context.Context) error {
				return m.updates.Toggle(ctx, c)
			})
		}
	case TabHistory:
		rows := historyRows(m.history.Entries())
		i := m.cursor[m.tab]
		if i < len(rows) && rows[i].state != nil {
			r := rows[i].state
			return request("toggle read", func(ctx context.Context) error {
				return m.history.Toggle(ctx, r)
			})
		}
	}
	return nil
}

func (m Model) sortCmd() tea.Cmd {
	if m.tab != TabLibrary {
		return nil
	}
	current := m.library.Prefs().Library.Sort
	next := librarySortCycle[0]
	for i, s := range librarySortCycle {
		if s == current {
			next = librarySortCycle[(i+1)%len(librarySortCycle)]
			break
		}
	}
	return request("sort library", func(ctx context.Context) error {
		return m.library.SetSort(ctx, next)
	})
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabLibrary:
		return len(m.library.View(models.BrowseQuery{}))
	case TabUpdates:
		return len(updatesRows(m.updates.Entries()))
	case TabHistory:
		return len(historyRows(m.history.Entries()))
	}
	return 0
}

func (m *Model) clampCursor() {
	for tab := Tab(0); tab < tabCount; tab++ {
		saved := m.tab
		m.tab = tab
		if n := m.rowCount(); m.cursor[tab] >= n {
			m.cursor[tab] = max(n-1, 0)
		}
		m.tab = saved
	}
}
