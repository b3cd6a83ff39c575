package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/visual-novel/internal/config"
	"github.com/tatianab/visual-novel/internal/tui"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if len(os.Args) > 1 {
		cfg.StoryPath = os.Args[1]
	}

	// The terminal belongs to the TUI, so logs go to a file.
	f, err := tea.LogToFile(cfg.LogFile, "")
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := tui.Run(cfg); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
