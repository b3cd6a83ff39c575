package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyStory is returned when a story has no chapters at all.
	ErrEmptyStory = errors.New("story has no chapters")
	// ErrInvalidStory wraps every ValidationError produced by Validate.
	ErrInvalidStory = errors.New("invalid story")
)

// ValidationError points at one malformed node of the story tree.
type ValidationError struct {
	Path    string // e.g. "chapters[0].scenes[2].events[1]"
	Problem string
}

func (e *ValidationError) Error() string {
	return e.Path + ": " + e.Problem
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidStory
}

// Validate checks the shape invariants the player relies on: every chapter
// has scenes, every scene has events, and every event carries the fields its
// type requires. All problems are reported, not just the first.
func Validate(s *Story) error {
	if s == nil || len(s.Chapters) == 0 {
		return ErrEmptyStory
	}

	var errs []error
	report := func(path, format string, args ...any) {
		errs = append(errs, &ValidationError{Path: path, Problem: fmt.Sprintf(format, args...)})
	}

	for ci, ch := range s.Chapters {
		chPath := fmt.Sprintf("chapters[%d]", ci)
		if len(ch.Scenes) == 0 {
			report(chPath, "chapter has no scenes")
			continue
		}
		for si, sc := range ch.Scenes {
			scPath := fmt.Sprintf("%s.scenes[%d]", chPath, si)
			if len(sc.Events) == 0 {
				report(scPath, "scene has no events")
				continue
			}
			for ei, ev := range sc.Events {
				evPath := fmt.Sprintf("%s.events[%d]", scPath, ei)
				switch ev.Type {
				case EventCharacterDialogue:
					if ev.Character == "" {
						report(evPath, "character_dialogue is missing character")
					}
					if ev.Text == "" {
						report(evPath, "character_dialogue is missing text")
					}
				case EventNarration:
					if ev.Text == "" {
						report(evPath, "narration is missing text")
					}
				case EventDisplayImage:
					if ev.Image == "" {
						report(evPath, "display_image is missing image")
					}
				case EventHideImage:
				case "":
					report(evPath, "event is missing type")
				default:
					report(evPath, "unknown event type %q", ev.Type)
				}
			}
		}
	}
	return errors.Join(errs...)
}
