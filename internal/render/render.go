// Package render turns story events into presentation state.
//
// Apply is a pure function of the previous State, the event and the scene's
// resolved background. It returns the next State plus the visual effects the
// presentation layer has to play to get there. State changes immediately;
// effects describe fades that may still be running afterwards.
package render

import (
	"fmt"

	"github.com/tatianab/visual-novel/internal/models"
)

// Layer is one independent visual plane.
type Layer int

const (
	LayerBackground Layer = iota
	LayerSpeaker
	LayerOverlay
	LayerName
)

func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerSpeaker:
		return "speaker"
	case LayerOverlay:
		return "overlay"
	case LayerName:
		return "name"
	default:
		return "unknown"
	}
}

// EffectKind says what happens to a layer.
type EffectKind int

const (
	// FadeOut removes the layer's current content.
	FadeOut EffectKind = iota
	// FadeIn brings new content onto an empty layer.
	FadeIn
	// Show makes sure already-present content is visible, without a transition.
	Show
	// Set replaces content instantly. Used for the speaker name.
	Set
)

func (k EffectKind) String() string {
	switch k {
	case FadeOut:
		return "fade-out"
	case FadeIn:
		return "fade-in"
	case Show:
		return "show"
	case Set:
		return "set"
	default:
		return "unknown"
	}
}

// Effect is one visual command for the presentation layer.
type Effect struct {
	Layer      Layer
	Kind       EffectKind
	Asset      string // background file, character name, overlay file or name text
	Expression string // speaker layer only
}

func (e Effect) String() string {
	if e.Expression != "" {
		return fmt.Sprintf("%s %s %s (%s)", e.Layer, e.Kind, e.Asset, e.Expression)
	}
	return fmt.Sprintf("%s %s %s", e.Layer, e.Kind, e.Asset)
}

// Sprite is a character drawn with an expression. The zero Sprite means no
// speaker is shown.
type Sprite struct {
	Character  string
	Expression string
}

// State is what is on screen, logically.
type State struct {
	Background string
	Speaker    Sprite
	Overlay    string
	Name       string
}

// HasSpeaker reports whether a speaker sprite is visible.
func (s State) HasSpeaker() bool {
	return s.Speaker.Character != ""
}

// Apply computes the state and effects for presenting ev over background.
// An empty background leaves the current one in place.
func Apply(prev State, ev models.Event, background string) (State, []Effect) {
	next, effects := SetBackground(prev, background)

	var more []Effect
	switch ev.Type {
	case models.EventCharacterDialogue:
		next, more = showSpeaker(next, Sprite{Character: ev.Character, Expression: ev.SpriteExpression()})
		effects = append(effects, more...)
		next, more = setName(next, ev.Character)
	case models.EventNarration:
		next, more = ClearSpeaker(next)
		effects = append(effects, more...)
		next, more = setName(next, "")
	case models.EventDisplayImage:
		next, more = showOverlay(next, ev.Image)
		effects = append(effects, more...)
		next, more = setName(next, "")
	case models.EventHideImage:
		next, more = hideOverlay(next)
		effects = append(effects, more...)
		next, more = setName(next, "")
	}
	return next, append(effects, more...)
}

// SetBackground crossfades to bg. Re-applying the shown background is a no-op.
func SetBackground(prev State, bg string) (State, []Effect) {
	if bg == "" || bg == prev.Background {
		return prev, nil
	}

	var effects []Effect
	if prev.Background != "" {
		effects = append(effects, Effect{Layer: LayerBackground, Kind: FadeOut, Asset: prev.Background})
	}
	effects = append(effects, Effect{Layer: LayerBackground, Kind: FadeIn, Asset: bg})
	prev.Background = bg
	return prev, effects
}

// ClearSpeaker fades out the shown speaker, if any.
func ClearSpeaker(prev State) (State, []Effect) {
	if !prev.HasSpeaker() {
		return prev, nil
	}
	effects := []Effect{{
		Layer:      LayerSpeaker,
		Kind:       FadeOut,
		Asset:      prev.Speaker.Character,
		Expression: prev.Speaker.Expression,
	}}
	prev.Speaker = Sprite{}
	return prev, effects
}

func showSpeaker(prev State, sp Sprite) (State, []Effect) {
	if prev.Speaker.Character == sp.Character {
		prev.Speaker = sp
		return prev, []Effect{{Layer: LayerSpeaker, Kind: Show, Asset: sp.Character, Expression: sp.Expression}}
	}

	next, effects := ClearSpeaker(prev)
	next.Speaker = sp
	return next, append(effects, Effect{Layer: LayerSpeaker, Kind: FadeIn, Asset: sp.Character, Expression: sp.Expression})
}

func showOverlay(prev State, image string) (State, []Effect) {
	if prev.Overlay == image {
		return prev, nil
	}

	next, effects := hideOverlay(prev)
	next.Overlay = image
	return next, append(effects, Effect{Layer: LayerOverlay, Kind: FadeIn, Asset: image})
}

func hideOverlay(prev State) (State, []Effect) {
	if prev.Overlay == "" {
		return prev, nil
	}
	effects := []Effect{{Layer: LayerOverlay, Kind: FadeOut, Asset: prev.Overlay}}
	prev.Overlay = ""
	return prev, effects
}

func setName(prev State, name string) (State, []Effect) {
	if prev.Name == name {
		return prev, nil
	}
	prev.Name = name
	return prev, []Effect{{Layer: LayerName, Kind: Set, Asset: name}}
}
