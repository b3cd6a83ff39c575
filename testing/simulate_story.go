package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/visual-novel/internal/assets"
	"github.com/tatianab/visual-novel/internal/config"
	"github.com/tatianab/visual-novel/internal/models"
	"github.com/tatianab/visual-novel/internal/player"
	"github.com/tatianab/visual-novel/internal/typing"
)

const maxSteps = 10000

func main() {
	var (
		storyPath string
		skipEvery int
	)
	flag.StringVar(&storyPath, "story", "", "story file (default: VN_STORY)")
	flag.IntVar(&skipEvery, "skip-every", 0, "skip typing on every Nth event (0 = never)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if storyPath != "" {
		cfg.StoryPath = storyPath
	}

	// 1. Load and check the story
	fmt.Println("--- Step 1: Loading story ---")
	story, err := models.LoadStory(cfg.StoryPath)
	if err != nil {
		log.Fatalf("Failed to load story: %v", err)
	}
	fmt.Printf("Title: %s (%d chapters)\n\n", story.Title, len(story.Chapters))

	// 2. Preload assets
	fmt.Println("--- Step 2: Preloading assets ---")
	catalog := assets.NewCatalog(cfg.AssetsDir, nil)
	progress := func(done, total int) {
		fmt.Printf("Preloaded %d/%d\n", done, total)
	}
	if err := catalog.Preload(context.Background(), assets.Refs(story), cfg.PreloadWorkers, progress); err != nil {
		log.Fatalf("Failed to preload assets: %v", err)
	}
	for _, info := range catalog.Missing() {
		fmt.Printf("MISSING: %s\n", info.Ref)
	}
	fmt.Println()

	// 3. Play
	fmt.Println("--- Step 3: Playing ---")
	var ending *models.Ending
	session := player.New(story, typing.New(cfg.TypingInterval),
		player.WithSkipGuard(0),
		player.WithEnding(func(e models.Ending) { ending = &e }),
	)

	step := session.Start()
	prev := session.Cursor()
	presented := 0
	for i := 0; i < maxSteps && session.State() != player.Ended; i++ {
		switch step.Outcome {
		case player.Faulted:
			log.Fatalf("Playback fault: %v", step.Err)
		case player.Presented:
			presented++
			printStep(step)
		}

		if c := session.Cursor(); c.Compare(prev) < 0 {
			log.Fatalf("Cursor moved backwards: %v -> %v", prev, c)
		} else {
			prev = c
		}

		switch {
		case session.State() == player.Presenting && skipEvery > 0 && presented%skipEvery == 0:
			step = session.Advance()
			fmt.Printf("    (skipped) %s\n", session.Text())
		case session.State() == player.Presenting:
			step = session.Update(runCmd(step.Cmd))
			if step.Outcome == player.Typed {
				fmt.Printf("    %s\n", session.Text())
			}
		default:
			step = session.Advance()
		}
	}

	if ending == nil {
		log.Fatalf("Story did not reach its ending after %d steps", maxSteps)
	}
	fmt.Printf("\n--- The End: %s ---\n%s\n", ending.Title, ending.Text)
	fmt.Printf("Presented %d events.\n", presented)
}

func printStep(step player.Step) {
	fmt.Printf("[%s] %s\n", step.Cursor, step.Event.Type)
	var effects []string
	for _, e := range step.Effects {
		effects = append(effects, e.String())
	}
	if len(effects) > 0 {
		fmt.Printf("    effects: %s\n", strings.Join(effects, "; "))
	}
}

// runCmd executes a typing tick synchronously. A nil command yields a nil
// message, which the session ignores.
func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}
