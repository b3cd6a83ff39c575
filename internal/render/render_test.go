package render

import (
	"testing"

	"github.com/tatianab/visual-novel/internal/models"
)

func dialogue(who, text string) models.Event {
	return models.Event{Type: models.EventCharacterDialogue, Character: who, Text: text}
}

func narration(text string) models.Event {
	return models.Event{Type: models.EventNarration, Text: text}
}

func countLayer(effects []Effect, layer Layer) int {
	n := 0
	for _, e := range effects {
		if e.Layer == layer {
			n++
		}
	}
	return n
}

func TestBackgroundIsIdempotent(t *testing.T) {
	s, effects := SetBackground(State{}, "room.jpg")
	if len(effects) != 1 || effects[0].Kind != FadeIn {
		t.Fatalf("Expected a single fade-in, got %v", effects)
	}

	s2, effects := SetBackground(s, "room.jpg")
	if len(effects) != 0 {
		t.Errorf("Expected no effects for the same background, got %v", effects)
	}
	if s2 != s {
		t.Errorf("Expected state unchanged, got %+v", s2)
	}

	_, effects = SetBackground(s, "street.jpg")
	if len(effects) != 2 || effects[0].Kind != FadeOut || effects[0].Asset != "room.jpg" || effects[1].Kind != FadeIn || effects[1].Asset != "street.jpg" {
		t.Errorf("Expected exit-then-enter crossfade, got %v", effects)
	}
}

func TestEmptyBackgroundKeepsCurrent(t *testing.T) {
	s, _ := SetBackground(State{}, "room.jpg")
	s, effects := Apply(s, narration("..."), "")
	if s.Background != "room.jpg" || countLayer(effects, LayerBackground) != 0 {
		t.Errorf("Expected background kept, got %q with %v", s.Background, effects)
	}
}

func TestSpeakerSwap(t *testing.T) {
	s, effects := Apply(State{}, dialogue("Alex", "Hi"), "room.jpg")
	if s.Speaker.Character != "Alex" || s.Speaker.Expression != models.DefaultExpression || s.Name != "Alex" {
		t.Fatalf("Expected Alex shown and named, got %+v", s)
	}
	if countLayer(effects, LayerSpeaker) != 1 {
		t.Errorf("Expected one speaker effect, got %v", effects)
	}

	s, effects = Apply(s, dialogue("Gracia", "Hello"), "room.jpg")
	if s.Speaker.Character != "Gracia" {
		t.Fatalf("Expected Gracia, got %+v", s.Speaker)
	}
	speaker := []Effect{}
	for _, e := range effects {
		if e.Layer == LayerSpeaker {
			speaker = append(speaker, e)
		}
	}
	if len(speaker) != 2 || speaker[0].Kind != FadeOut || speaker[0].Asset != "Alex" || speaker[1].Kind != FadeIn || speaker[1].Asset != "Gracia" {
		t.Errorf("Expected Alex out then Gracia in, got %v", speaker)
	}
}

func TestSameSpeakerOnlyEnsuresVisibility(t *testing.T) {
	s, _ := Apply(State{}, dialogue("Alex", "Hi"), "")

	ev := dialogue("Alex", "Again")
	ev.Expression = "sad"
	s, effects := Apply(s, ev, "")

	if len(effects) != 1 || effects[0].Kind != Show || effects[0].Expression != "sad" {
		t.Errorf("Expected a single show effect with the new expression, got %v", effects)
	}
	if s.Speaker.Expression != "sad" {
		t.Errorf("Expected expression updated, got %q", s.Speaker.Expression)
	}
}

func TestNarrationClearsSpeaker(t *testing.T) {
	s, _ := Apply(State{}, dialogue("Alex", "Hi"), "")
	s, effects := Apply(s, narration("Silence."), "")

	if s.HasSpeaker() || s.Name != "" {
		t.Errorf("Expected no speaker and no name, got %+v", s)
	}
	if len(effects) != 2 || effects[0].Kind != FadeOut || effects[1].Layer != LayerName {
		t.Errorf("Expected speaker fade-out and name reset, got %v", effects)
	}

	_, effects = Apply(s, narration("More silence."), "")
	if len(effects) != 0 {
		t.Errorf("Expected repeated narration to be a no-op, got %v", effects)
	}
}

func TestSpeakerExclusivity(t *testing.T) {
	events := []models.Event{
		dialogue("Alex", "1"),
		dialogue("Gracia", "2"),
		narration("3"),
		dialogue("Teacher", "4"),
		dialogue("Teacher", "5"),
		dialogue("Alex", "6"),
	}

	var s State
	visible := map[string]bool{}
	for _, ev := range events {
		var effects []Effect
		s, effects = Apply(s, ev, "")
		for _, e := range effects {
			if e.Layer != LayerSpeaker {
				continue
			}
			switch e.Kind {
			case FadeIn, Show:
				visible[e.Asset] = true
			case FadeOut:
				delete(visible, e.Asset)
			}
		}
		if len(visible) > 1 {
			t.Fatalf("Expected at most one visible speaker, got %v", visible)
		}
	}
	if !visible["Alex"] || s.Speaker.Character != "Alex" {
		t.Errorf("Expected Alex to be the visible speaker, got %v / %+v", visible, s.Speaker)
	}
}

func TestOverlayLayer(t *testing.T) {
	s, _ := Apply(State{}, dialogue("Alex", "Hi"), "room.jpg")

	s, effects := Apply(s, models.Event{Type: models.EventDisplayImage, Image: "letter.png"}, "room.jpg")
	if s.Overlay != "letter.png" || s.Name != "" {
		t.Errorf("Expected overlay shown and name suppressed, got %+v", s)
	}
	if s.Speaker.Character != "Alex" || s.Background != "room.jpg" {
		t.Errorf("Expected speaker and background untouched, got %+v", s)
	}
	if countLayer(effects, LayerOverlay) != 1 || countLayer(effects, LayerSpeaker) != 0 {
		t.Errorf("Unexpected effects: %v", effects)
	}

	s, effects = Apply(s, models.Event{Type: models.EventDisplayImage, Image: "photo.png"}, "")
	if s.Overlay != "photo.png" || countLayer(effects, LayerOverlay) != 2 {
		t.Errorf("Expected overlay replaced, got %+v with %v", s, effects)
	}

	s, effects = Apply(s, models.Event{Type: models.EventHideImage, Text: "Gone."}, "")
	if s.Overlay != "" || len(effects) != 1 || effects[0].Kind != FadeOut {
		t.Errorf("Expected overlay faded out, got %+v with %v", s, effects)
	}

	_, effects = Apply(s, models.Event{Type: models.EventHideImage}, "")
	if len(effects) != 0 {
		t.Errorf("Expected hiding with no overlay to be a no-op, got %v", effects)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	prev := State{Background: "a.jpg", Speaker: Sprite{Character: "Alex", Expression: "normal"}, Name: "Alex"}
	snapshot := prev

	Apply(prev, narration("x"), "b.jpg")
	if prev != snapshot {
		t.Errorf("Expected previous state untouched, got %+v", prev)
	}
}
