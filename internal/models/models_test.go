package models

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

const chapterArrayJSON = `[
	{
		"scenes": [
			{
				"background": "gracia_bedroom_day.jpg",
				"events": [
					{"type": "narration", "text": "Morning light."},
					{"type": "character_dialogue", "character": "Gracia", "text": "Another day."}
				]
			},
			{
				"events": [
					{"type": "display_image", "image": "alex_letter.png"},
					{"type": "hide_image", "text": "She folds the letter.", "choices": [{"text": "Keep it", "next": "x"}]}
				],
				"choices": [{"text": "Go outside", "next": "street"}, {"text": "Stay in", "next": "room"}]
			}
		]
	}
]`

const storyYAML = `
title: Dreams
ending:
  title: A Dream Come True
  image: alex_ending.png
chapters:
  - title: One
    scenes:
      - background: room.jpg
        events:
          - type: character_dialogue
            character: Alex
            expression: happy
            text: Hi
        choices:
          - text: Wave back
            next: greet
`

func TestParseStoryChapterArray(t *testing.T) {
	s, err := ParseStory([]byte(chapterArrayJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Failed to parse story: %v", err)
	}

	if len(s.Chapters) != 1 {
		t.Fatalf("Expected 1 chapter, got %d", len(s.Chapters))
	}
	if got := len(s.Chapters[0].Scenes); got != 2 {
		t.Fatalf("Expected 2 scenes, got %d", got)
	}
	if bg := s.Chapters[0].Scenes[1].Background; bg != "" {
		t.Errorf("Expected second scene background to stay empty at load time, got %q", bg)
	}

	ev, ok := s.Event(0, 1, 1)
	if !ok {
		t.Fatalf("Expected event (0,1,1) to exist")
	}
	if ev.Type != EventHideImage || len(ev.Choices) != 1 {
		t.Errorf("Expected hide_image with one scaffolded choice, got %+v", ev)
	}
	if got := s.Chapters[0].Scenes[1].Choices; len(got) != 2 || got[1].Text != "Stay in" {
		t.Errorf("Expected two scene choices, got %+v", got)
	}
	if s.Title != "" || s.Ending != nil {
		t.Errorf("Expected no title or ending for array form, got %q %+v", s.Title, s.Ending)
	}
}

func TestParseStoryMappingYAML(t *testing.T) {
	s, err := ParseStory([]byte(storyYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Failed to parse story: %v", err)
	}

	if s.Title != "Dreams" {
		t.Errorf("Expected title Dreams, got %q", s.Title)
	}
	ev, _ := s.Event(0, 0, 0)
	if ev.SpriteExpression() != "happy" {
		t.Errorf("Expected expression happy, got %q", ev.SpriteExpression())
	}
	if got := s.Chapters[0].Scenes[0].Choices; len(got) != 1 || got[0].Next != "greet" {
		t.Errorf("Expected one scene choice, got %+v", got)
	}

	end := s.EndingOrDefault()
	if end.Title != "A Dream Come True" || end.Text != "Thank you for playing." || end.Image != "alex_ending.png" {
		t.Errorf("Unexpected ending: %+v", end)
	}
}

func TestParseStoryJSONAsYAML(t *testing.T) {
	// Space-indented JSON is also valid YAML.
	data := `[{"scenes": [{"events": [{"type": "narration", "text": "x"}]}]}]`
	if _, err := ParseStory([]byte(data), FormatYAML); err != nil {
		t.Fatalf("Expected JSON flow syntax to decode as YAML, got %v", err)
	}
}

func TestParseStoryEmpty(t *testing.T) {
	for _, tc := range []struct {
		name   string
		data   string
		format Format
	}{
		{"empty json", "  ", FormatJSON},
		{"empty array", "[]", FormatJSON},
		{"empty yaml", "", FormatYAML},
		{"no chapters", "title: nothing\n", FormatYAML},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseStory([]byte(tc.data), tc.format)
			if !errors.Is(err, ErrEmptyStory) {
				t.Errorf("Expected ErrEmptyStory, got %v", err)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	s := &Story{Chapters: []Chapter{
		{Scenes: nil},
		{Scenes: []Scene{
			{Events: nil},
			{Events: []Event{
				{Type: EventCharacterDialogue, Text: "no speaker"},
				{Type: EventNarration},
				{Type: EventDisplayImage},
				{Type: "choice"},
				{Type: EventHideImage},
			}},
		}},
	}}

	err := Validate(s)
	if !errors.Is(err, ErrInvalidStory) {
		t.Fatalf("Expected ErrInvalidStory, got %v", err)
	}

	msg := err.Error()
	for _, want := range []string{
		"chapters[0]: chapter has no scenes",
		"chapters[1].scenes[0]: scene has no events",
		"chapters[1].scenes[1].events[0]: character_dialogue is missing character",
		"chapters[1].scenes[1].events[1]: narration is missing text",
		"chapters[1].scenes[1].events[2]: display_image is missing image",
		`chapters[1].scenes[1].events[3]: unknown event type "choice"`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected error to mention %q, got:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "events[4]") {
		t.Errorf("Expected hide_image without text to be valid, got:\n%s", msg)
	}
}

func TestSaveAndLoadStory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stories", "dreams.yaml")

	s, err := ParseStory([]byte(storyYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Failed to parse story: %v", err)
	}
	if err := s.Save(path); err != nil {
		t.Fatalf("Failed to save story: %v", err)
	}

	loaded, err := LoadStory(path)
	if err != nil {
		t.Fatalf("Failed to load story: %v", err)
	}
	if loaded.Chapters[0].Scenes[0].Events[0].Text != "Hi" {
		t.Errorf("Expected first line Hi, got %q", loaded.Chapters[0].Scenes[0].Events[0].Text)
	}
}

func TestLoadStoryMissingFile(t *testing.T) {
	_, err := LoadStory(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || !strings.Contains(err.Error(), "read story") {
		t.Errorf("Expected read error, got %v", err)
	}
}

func TestSampleStoryLoads(t *testing.T) {
	s, err := LoadStory(filepath.Join("..", "..", "data", "dialogue.json"))
	if err != nil {
		t.Fatalf("Failed to load sample story: %v", err)
	}
	if len(s.Chapters) != 2 {
		t.Errorf("Expected 2 chapters, got %d", len(s.Chapters))
	}
	if sc, _ := s.Scene(0, 2); sc.Background != "" {
		t.Errorf("Expected third scene to rely on background inheritance, got %q", sc.Background)
	}
}
