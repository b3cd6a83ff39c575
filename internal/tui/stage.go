package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/visual-novel/internal/render"
)

type phase int

const (
	hidden phase = iota
	fadingIn
	visible
	fadingOut
)

// layer is the on-screen half of a render.Layer: what is drawn and whether a
// fade is running. queued holds content waiting for a fade-out to finish.
type layer struct {
	asset      string
	expression string
	phase      phase
	seq        int

	queued     string
	queuedExpr string
}

type fadeMsg struct {
	layer render.Layer
	seq   int
}

// stage plays render effects. The session's logical state is already final
// when effects arrive; the stage only animates towards it.
type stage struct {
	fade       time.Duration
	background layer
	speaker    layer
	overlay    layer
	name       string
}

func newStage(fade time.Duration) *stage {
	return &stage{fade: fade}
}

func (s *stage) layer(l render.Layer) *layer {
	switch l {
	case render.LayerBackground:
		return &s.background
	case render.LayerSpeaker:
		return &s.speaker
	case render.LayerOverlay:
		return &s.overlay
	}
	return nil
}

// Apply plays effects in order and returns the fade timers to schedule.
func (s *stage) Apply(effects []render.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range effects {
		if e.Layer == render.LayerName {
			s.name = e.Asset
			continue
		}
		l := s.layer(e.Layer)
		if l == nil {
			continue
		}
		switch e.Kind {
		case render.FadeOut:
			cmds = append(cmds, s.fadeOut(e.Layer, l))
		case render.FadeIn:
			cmds = append(cmds, s.fadeIn(e.Layer, l, e.Asset, e.Expression))
		case render.Show:
			l.asset, l.expression = e.Asset, e.Expression
			l.queued, l.queuedExpr = "", ""
			l.phase = visible
			l.seq++
		}
	}
	return tea.Batch(cmds...)
}

// Update advances a layer whose fade timer fired. Stale timers are ignored.
func (s *stage) Update(msg fadeMsg) tea.Cmd {
	l := s.layer(msg.layer)
	if l == nil || msg.seq != l.seq {
		return nil
	}

	switch l.phase {
	case fadingOut:
		if l.queued != "" {
			asset, expr := l.queued, l.queuedExpr
			l.queued, l.queuedExpr = "", ""
			return s.enter(msg.layer, l, asset, expr)
		}
		l.asset, l.expression = "", ""
		l.phase = hidden
	case fadingIn:
		l.phase = visible
	}
	return nil
}

func (s *stage) fadeOut(id render.Layer, l *layer) tea.Cmd {
	if l.phase == hidden {
		return nil
	}
	l.queued, l.queuedExpr = "", ""
	if s.fade <= 0 {
		l.asset, l.expression = "", ""
		l.phase = hidden
		return nil
	}
	l.phase = fadingOut
	return s.timer(id, l)
}

func (s *stage) fadeIn(id render.Layer, l *layer, asset, expr string) tea.Cmd {
	if l.phase == fadingOut {
		l.queued, l.queuedExpr = asset, expr
		return nil
	}
	return s.enter(id, l, asset, expr)
}

func (s *stage) enter(id render.Layer, l *layer, asset, expr string) tea.Cmd {
	l.asset, l.expression = asset, expr
	if s.fade <= 0 {
		l.phase = visible
		return nil
	}
	l.phase = fadingIn
	return s.timer(id, l)
}

func (s *stage) timer(id render.Layer, l *layer) tea.Cmd {
	l.seq++
	seq := l.seq
	// Each half of a crossfade takes half the configured duration.
	return tea.Tick(s.fade/2, func(time.Time) tea.Msg {
		return fadeMsg{layer: id, seq: seq}
	})
}

// reset clears everything, e.g. before playing again. Sequence numbers keep
// counting so timers from the previous playthrough stay stale.
func (s *stage) reset() {
	for _, l := range []*layer{&s.background, &s.speaker, &s.overlay} {
		*l = layer{seq: l.seq}
	}
	s.name = ""
}
