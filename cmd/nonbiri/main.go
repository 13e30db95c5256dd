package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs1703/logger"
	"golang.org/x/term"

	"nonbiri/internal/config"
	"nonbiri/internal/store"
	"nonbiri/internal/ui"
	"nonbiri/internal/websocket"
	"nonbiri/pkg/models"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (default ~/.nonbiri/config.yaml)")
	plain := flag.Bool("plain", false, "print the library and exit instead of starting the TUI")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := setupLogging(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := websocket.NewSession(cfg.URL(), cfg.Sync.ReconnectInterval)
	defer session.Shutdown()

	if err := session.Init(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	library := store.NewLibrary(session)
	updates := store.NewUpdates(session)
	history := store.NewHistory(session)

	if *plain {
		library.Mount()
		defer library.Unmount()
		if err := library.Bootstrap(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		printLibrary(library)
		return 0
	}

	model := ui.NewModel(library, updates, history)
	program := tea.NewProgram(model, tea.WithAltScreen())

	notify := func() { program.Send(ui.StoreChangedMsg{}) }
	library.OnChange = notify
	updates.OnChange = notify
	history.OnChange = notify

	library.Mount()
	updates.Mount()
	history.Mount()
	defer library.Unmount()
	defer updates.Unmount()
	defer history.Unmount()

	if err := library.Bootstrap(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	go func() {
		if err := updates.Load(ctx); err != nil {
			logger.Err.Println(err)
		}
	}()
	go func() {
		if err := history.Load(ctx); err != nil {
			logger.Err.Println(err)
		}
	}()

	if _, err := program.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// setupLogging points the loggers at the configured file, keeping
// them off the terminal the TUI draws on. Level "error" silences
// the info logger.
func setupLogging(cfg *config.Config) error {
	if cfg.Logging.Path != "" {
		file, err := os.OpenFile(cfg.Logging.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		logger.Inf.SetOutput(file)
		logger.Err.SetOutput(file)
	}
	if strings.EqualFold(cfg.Logging.Level, "error") {
		logger.Inf.SetOutput(io.Discard)
	}
	return nil
}

// printLibrary dumps the followed manga as a plain table sized to
// the terminal.
func printLibrary(library *store.Library) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		width = w
	}
	titleWidth := width - 34

	entries := library.View(models.BrowseQuery{})
	if len(entries) == 0 {
		fmt.Println("Library is empty.")
		return
	}

	fmt.Printf("%-*s %8s %8s %15s\n", titleWidth, "TITLE", "UNREAD", "TOTAL", "UPDATED")
	for _, e := range entries {
		title := e.Title
		if runes := []rune(title); len(runes) > titleWidth {
			title = string(runes[:titleWidth-1]) + "…"
		}
		fmt.Printf("%-*s %8d %8d %15s\n",
			titleWidth, title,
			e.UnreadedChapters(), e.TotalChapters,
			models.FormatDate(e.LatestChapterAt))
	}
}
