// Package player walks a story event by event.
//
// A Session owns the cursor, the presentation state and the typewriter. It is
// driven from a single event loop: Advance for user input and Update for
// typing ticks. It is not safe for concurrent use.
package player

import (
	"errors"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/visual-novel/internal/models"
	"github.com/tatianab/visual-novel/internal/render"
	"github.com/tatianab/visual-novel/internal/typing"
)

// ErrCursorOutOfRange means the cursor points past the story data somewhere
// other than the end of the last chapter. Validated stories never do this.
var ErrCursorOutOfRange = errors.New("cursor points past story data")

// DefaultSkipGuard absorbs the second click of a double-click that skipped
// typing.
const DefaultSkipGuard = 150 * time.Millisecond

// State is the controller state.
type State int

const (
	Idle State = iota
	Presenting
	AwaitingAdvance
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Presenting:
		return "Presenting"
	case AwaitingAdvance:
		return "AwaitingAdvance"
	case Ended:
		return "Ended"
	default:
		return "Unknown"
	}
}

// Outcome says what a call to Start, Advance or Update did.
type Outcome int

const (
	// Ignored: nothing changed.
	Ignored Outcome = iota
	// Presented: a new event was rendered and its typing started.
	Presented
	// Skipped: typing was cut short and the full text revealed.
	Skipped
	// Typed: typing ran to completion on its own.
	Typed
	// Finished: the story ended and the ending collaborator was called.
	Finished
	// Faulted: the cursor pointed at missing data. Playback stops.
	Faulted
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Presented:
		return "presented"
	case Skipped:
		return "skipped"
	case Typed:
		return "typed"
	case Finished:
		return "finished"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Step reports the result of driving the session once.
type Step struct {
	Outcome Outcome
	Cursor  Cursor
	Event   models.Event    // the presented event, when Outcome is Presented
	Effects []render.Effect // visual commands for the presentation layer
	Cmd     tea.Cmd         // typing tick to schedule, if any
	Err     error           // set when Outcome is Faulted
}

// Option configures a Session.
type Option func(*Session)

// WithEnding registers the collaborator called once when the story ends.
func WithEnding(fn func(models.Ending)) Option {
	return func(s *Session) {
		s.onEnd = fn
	}
}

// WithSkipGuard sets how long after a skip further advances are absorbed.
// Zero disables the guard.
func WithSkipGuard(d time.Duration) Option {
	return func(s *Session) {
		s.skipGuard = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithLogger replaces the standard logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

type sceneKey struct {
	chapter, scene int
}

// Session is one playthrough of a story.
type Session struct {
	story       *models.Story
	typer       *typing.Typewriter
	cursor      Cursor
	state       State
	view        render.State
	task        *typing.Task
	backgrounds map[sceneKey]string

	onEnd     func(models.Ending)
	skipGuard time.Duration
	skippedAt time.Time
	now       func() time.Time
	logger    *log.Logger
}

// New creates an Idle session. The story must already be validated.
func New(story *models.Story, typer *typing.Typewriter, opts ...Option) *Session {
	s := &Session{
		story:       story,
		typer:       typer,
		backgrounds: make(map[sceneKey]string),
		skipGuard:   DefaultSkipGuard,
		now:         time.Now,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the controller state.
func (s *Session) State() State { return s.state }

// Cursor returns the current position.
func (s *Session) Cursor() Cursor { return s.cursor }

// View returns the logical presentation state.
func (s *Session) View() render.State { return s.view }

// Text returns the dialogue text currently displayed.
func (s *Session) Text() string { return s.typer.Text() }

// Story returns the story being played.
func (s *Session) Story() *models.Story { return s.story }

// CurrentEvent returns the event under the cursor, if any.
func (s *Session) CurrentEvent() (models.Event, bool) {
	return s.story.Event(s.cursor.Chapter, s.cursor.Scene, s.cursor.Event)
}

// ResolvedBackground returns the background a scene resolved to when it was
// entered. Scenes that were never entered are not resolved.
func (s *Session) ResolvedBackground(chapter, scene int) (string, bool) {
	bg, ok := s.backgrounds[sceneKey{chapter, scene}]
	return bg, ok
}

// Start presents the first event. It only has an effect on an Idle session
// that has not played anything yet.
func (s *Session) Start() Step {
	if s.state != Idle || s.task != nil {
		return Step{Outcome: Ignored, Cursor: s.cursor}
	}
	s.logger.Printf("[playback] starting %q", s.story.Title)
	return s.present(nil)
}

// Advance is the single user signal. While text is typing it skips to the
// full text; once typing is done it moves the cursor forward.
func (s *Session) Advance() Step {
	switch s.state {
	case Presenting:
		s.typer.Skip()
		s.state = AwaitingAdvance
		s.skippedAt = s.now()
		return Step{Outcome: Skipped, Cursor: s.cursor}
	case AwaitingAdvance:
		if s.skipGuard > 0 && !s.skippedAt.IsZero() && s.now().Sub(s.skippedAt) < s.skipGuard {
			return Step{Outcome: Ignored, Cursor: s.cursor}
		}
		return s.next()
	default:
		return Step{Outcome: Ignored, Cursor: s.cursor}
	}
}

// Update feeds bubbletea messages to the typewriter. Typing ticks return the
// next tick to schedule; the last one moves the session to AwaitingAdvance.
func (s *Session) Update(msg tea.Msg) Step {
	cmd := s.typer.Update(msg)
	if s.state == Presenting && s.task != nil && s.task.Finished() {
		s.state = AwaitingAdvance
		s.skippedAt = time.Time{}
		return Step{Outcome: Typed, Cursor: s.cursor, Cmd: cmd}
	}
	return Step{Outcome: Ignored, Cursor: s.cursor, Cmd: cmd}
}

func (s *Session) next() Step {
	c := s.cursor
	if c.Chapter >= len(s.story.Chapters) {
		return s.fault(c)
	}
	chapter := s.story.Chapters[c.Chapter]
	if c.Scene >= len(chapter.Scenes) {
		return s.fault(c)
	}

	c.Event++
	if c.Event < len(chapter.Scenes[c.Scene].Events) {
		s.cursor = c
		return s.present(nil)
	}

	c.Scene++
	c.Event = 0
	if c.Scene < len(chapter.Scenes) {
		s.cursor = c
		return s.present(nil)
	}

	c.Chapter++
	c.Scene = 0
	c.Event = 0
	s.cursor = c

	var effects []render.Effect
	s.view, effects = render.ClearSpeaker(s.view)
	if c.Chapter >= len(s.story.Chapters) {
		return s.end(effects)
	}
	s.logger.Printf("[playback] entering chapter %d %s", c.Chapter+1, s.story.Chapters[c.Chapter].Title)
	return s.present(effects)
}

// present renders the event under the cursor, then starts typing it. The
// presentation state is settled before typing begins.
func (s *Session) present(prefix []render.Effect) Step {
	c := s.cursor
	ev, ok := s.story.Event(c.Chapter, c.Scene, c.Event)
	if !ok {
		return s.fault(c)
	}

	bg := s.resolveBackground(c.Chapter, c.Scene)
	view, effects := render.Apply(s.view, ev, bg)
	s.view = view
	s.logger.Printf("[display] %s: %s", c, ev.Type)

	s.state = Presenting
	s.skippedAt = time.Time{}
	task, cmd := s.typer.Start(ev.Text)
	s.task = task
	if task.Finished() {
		s.state = AwaitingAdvance
	}

	return Step{
		Outcome: Presented,
		Cursor:  c,
		Event:   ev,
		Effects: append(prefix, effects...),
		Cmd:     cmd,
	}
}

// resolveBackground fills in a missing background from the previous scene of
// the same chapter. Each scene is resolved once, when first entered.
func (s *Session) resolveBackground(chapter, scene int) string {
	key := sceneKey{chapter, scene}
	if bg, ok := s.backgrounds[key]; ok {
		return bg
	}

	sc, _ := s.story.Scene(chapter, scene)
	bg := sc.Background
	if bg == "" && scene > 0 {
		bg = s.resolveBackground(chapter, scene-1)
	}
	s.backgrounds[key] = bg
	return bg
}

func (s *Session) end(effects []render.Effect) Step {
	s.typer.Cancel()
	s.state = Ended
	s.logger.Printf("[end] story finished after %d chapters", len(s.story.Chapters))
	if s.onEnd != nil {
		s.onEnd(s.story.EndingOrDefault())
	}
	return Step{Outcome: Finished, Cursor: s.cursor, Effects: effects}
}

func (s *Session) fault(c Cursor) Step {
	err := fmt.Errorf("%w: %s", ErrCursorOutOfRange, c)
	s.logger.Printf("[playback] integrity fault: %v", err)
	s.typer.Cancel()
	s.state = Idle
	return Step{Outcome: Faulted, Cursor: c, Err: err}
}
