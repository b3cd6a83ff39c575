// Package typing reveals a line of text one grapheme at a time on a fixed
// tick, driven by the bubbletea event loop.
//
// Exactly one Task owns the displayed text at any moment. Starting a new Task
// cancels the previous one, and every pending tick carries the tag of the Task
// that scheduled it, so ticks from a canceled or skipped Task are dropped.
package typing

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rivo/uniseg"
)

// DefaultInterval is the delay between two revealed characters.
const DefaultInterval = 30 * time.Millisecond

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// Scheduler arranges for fn to be called after d. tea.Tick is the default.
type Scheduler func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// TickMsg asks a Typewriter to reveal its next character.
type TickMsg struct {
	Time time.Time
	id   int
	tag  int
}

// Task is one typing operation. Done is closed once the task settles, which
// happens when the text is fully revealed (by ticking or by Skip) or when the
// task is canceled.
type Task struct {
	tag      int
	units    []string
	full     string
	shown    int
	done     chan struct{}
	settled  bool
	canceled bool
}

func newTask(tag int, text string) *Task {
	var units []string
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		units = append(units, g.Str())
	}
	return &Task{
		tag:   tag,
		units: units,
		full:  text,
		done:  make(chan struct{}),
	}
}

// Done returns a channel closed when the task settles.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Finished reports whether the full text was revealed. A skipped task is
// finished exactly like one that was typed out.
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return !t.canceled
	default:
		return false
	}
}

// Canceled reports whether the task was abandoned before finishing.
func (t *Task) Canceled() bool {
	return t.canceled
}

// Text returns the full target text.
func (t *Task) Text() string {
	return t.full
}

func (t *Task) settle(canceled bool) {
	if t.settled {
		return
	}
	t.settled = true
	t.canceled = canceled
	close(t.done)
}

// Option configures a Typewriter.
type Option func(*Typewriter)

// WithScheduler replaces tea.Tick, mostly for tests.
func WithScheduler(s Scheduler) Option {
	return func(w *Typewriter) {
		w.schedule = s
	}
}

// Typewriter owns the displayed text field.
type Typewriter struct {
	id       int
	interval time.Duration
	schedule Scheduler
	tag      int
	task     *Task
	text     string
}

// New creates a Typewriter revealing one character per interval. A
// non-positive interval falls back to DefaultInterval.
func New(interval time.Duration, opts ...Option) *Typewriter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	w := &Typewriter{
		id:       nextID(),
		interval: interval,
		schedule: tea.Tick,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Interval returns the per-character delay.
func (w *Typewriter) Interval() time.Duration {
	return w.interval
}

// Text returns what is currently displayed.
func (w *Typewriter) Text() string {
	return w.text
}

// Typing reports whether a task is mid-reveal.
func (w *Typewriter) Typing() bool {
	return w.task != nil && !w.task.settled
}

// Start cancels any in-flight task, clears the display and begins revealing
// text. An empty text settles immediately and schedules nothing.
func (w *Typewriter) Start(text string) (*Task, tea.Cmd) {
	w.Cancel()

	w.tag++
	w.task = newTask(w.tag, text)
	w.text = ""

	if len(w.task.units) == 0 {
		w.task.settle(false)
		return w.task, nil
	}
	return w.task, w.tick()
}

// Cancel abandons the in-flight task, leaving the display as it is. Pending
// ticks for it become stale.
func (w *Typewriter) Cancel() {
	if !w.Typing() {
		return
	}
	w.tag++
	w.task.settle(true)
}

// Skip reveals the rest of the in-flight task at once and finishes it. It
// reports false when nothing was typing.
func (w *Typewriter) Skip() bool {
	if !w.Typing() {
		return false
	}
	w.tag++
	w.task.shown = len(w.task.units)
	w.text = w.task.full
	w.task.settle(false)
	return true
}

// Update handles TickMsg for this Typewriter and ignores everything else.
func (w *Typewriter) Update(msg tea.Msg) tea.Cmd {
	tm, ok := msg.(TickMsg)
	if !ok || tm.id != w.id || tm.tag != w.tag || !w.Typing() {
		return nil
	}

	t := w.task
	w.text += t.units[t.shown]
	t.shown++
	if t.shown == len(t.units) {
		t.settle(false)
		return nil
	}
	return w.tick()
}

func (w *Typewriter) tick() tea.Cmd {
	id, tag := w.id, w.tag
	return w.schedule(w.interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t, id: id, tag: tag}
	})
}
