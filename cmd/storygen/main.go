// Command storygen drafts a story file with Gemini, or extends an existing
// one by a chapter. The output is validated with the player's own loader.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tatianab/visual-novel/internal/config"
	"github.com/tatianab/visual-novel/internal/engine"
	"github.com/tatianab/visual-novel/internal/models"
)

func main() {
	var (
		hint     string
		chapters int
		out      string
		extend   string
	)
	flag.StringVar(&hint, "hint", "random", "theme or direction for the story")
	flag.IntVar(&chapters, "chapters", 2, "number of chapters for a new story")
	flag.StringVar(&out, "out", "data/story.yaml", "where to write the story (YAML)")
	flag.StringVar(&extend, "continue", "", "existing story file to extend by one chapter")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.RequireGemini(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	var story *models.Story
	if extend != "" {
		story, err = models.LoadStory(extend)
		if err == nil {
			err = eng.ContinueStory(ctx, story, hint)
		}
	} else {
		story, err = eng.GenerateStory(ctx, hint, chapters)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := story.Save(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving story: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %q (%d chapters) to %s\n", story.Title, len(story.Chapters), out)
}
