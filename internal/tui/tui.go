package tui

import (
	"context"
	"fmt"
	"log"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/visual-novel/internal/assets"
	"github.com/tatianab/visual-novel/internal/config"
	"github.com/tatianab/visual-novel/internal/models"
	"github.com/tatianab/visual-novel/internal/player"
	"github.com/tatianab/visual-novel/internal/typing"
)

type sessionState int

const (
	stateLoading sessionState = iota
	statePlaying
	stateEnded
	stateError
	stateFaulted
)

const (
	dialogueLines = 4
	// border plus the name line above the box
	dialogueChrome = 3
	helpLines      = 1
)

// endingScreen is filled in by the session's ending callback. It is shared by
// pointer so every copy of the model sees it.
type endingScreen struct {
	reached bool
	ending  models.Ending
}

type model struct {
	state    sessionState
	cfg      *config.Config
	catalog  *assets.Catalog
	story    *models.Story
	session  *player.Session
	stage    *stage
	ending   *endingScreen
	preload  preloadProgressMsg
	progress <-chan tea.Msg
	spinner  spinner.Model
	help     help.Model
	viewport viewport.Model
	err      error
	width    int
	height   int
}

var (
	sceneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3C3C3C"))

	backgroundStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	spriteStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#5F5F87")).
			Padding(1, 3).
			Foreground(lipgloss.Color("#EEEEEE"))

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("#FFFFFF")).
			Padding(2, 6).
			Foreground(lipgloss.Color("#FFFFFF"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			Padding(0, 1)

	dialogueStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	fadingStyle = lipgloss.NewStyle().Faint(true)
)

func NewModel(cfg *config.Config) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		state:    stateLoading,
		cfg:      cfg,
		catalog:  assets.NewCatalog(cfg.AssetsDir, nil),
		stage:    newStage(cfg.FadeDuration),
		ending:   &endingScreen{},
		spinner:  sp,
		help:     help.New(),
		viewport: viewport.New(0, dialogueLines),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadStory())
}

type storyParsedMsg struct {
	story *models.Story
	refs  []assets.Ref
}

type preloadProgressMsg struct {
	done, total int
}

type storyLoadedMsg struct {
	story   *models.Story
	missing int
}

type errMsg struct {
	err error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Advance) && m.state == statePlaying:
			cmd := m.advance()
			return m, cmd
		case key.Matches(msg, keys.Restart) && m.state == stateEnded:
			cmd := m.begin()
			return m, cmd
		}

	case tea.MouseMsg:
		if m.state == statePlaying &&
			msg.Action == tea.MouseActionPress &&
			msg.Button == tea.MouseButtonLeft &&
			m.inDialogue(msg.Y) {
			cmd := m.advance()
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 10)
		m.help.Width = msg.Width

	case storyParsedMsg:
		m.story = msg.story
		m.preload = preloadProgressMsg{total: len(msg.refs)}
		// Buffered for every progress message plus the final one.
		ch := make(chan tea.Msg, len(msg.refs)+1)
		m.progress = ch
		return m, tea.Batch(m.preloadAssets(msg.story, msg.refs, ch), waitForPreload(ch))

	case preloadProgressMsg:
		// Workers finish out of order.
		if msg.done > m.preload.done {
			m.preload = msg
		}
		return m, waitForPreload(m.progress)

	case storyLoadedMsg:
		m.story = msg.story
		m.progress = nil
		if msg.missing > 0 {
			log.Printf("[init] %d assets missing, continuing without them", msg.missing)
		}
		log.Printf("[init] ready to play")
		cmd := m.begin()
		return m, cmd

	case typing.TickMsg:
		if m.session == nil {
			return m, nil
		}
		cmd := m.play(m.session.Update(msg))
		return m, cmd

	case fadeMsg:
		return m, m.stage.Update(msg)

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case errMsg:
		m.err = msg.err
		m.state = stateError
		m.progress = nil
		log.Printf("[init] fatal: %v", msg.err)
		return m, nil
	}

	return m, nil
}

// begin starts a fresh session from the first event.
func (m *model) begin() tea.Cmd {
	ending := &endingScreen{}
	m.ending = ending
	m.stage.reset()

	tw := typing.New(m.cfg.TypingInterval)
	m.session = player.New(m.story, tw,
		player.WithSkipGuard(m.cfg.SkipGuard),
		player.WithEnding(func(e models.Ending) {
			ending.reached = true
			ending.ending = e
		}),
	)
	m.state = statePlaying
	return m.play(m.session.Start())
}

func (m *model) advance() tea.Cmd {
	return m.play(m.session.Advance())
}

// play hands a session step to the presentation layer.
func (m *model) play(step player.Step) tea.Cmd {
	switch step.Outcome {
	case player.Finished:
		m.state = stateEnded
	case player.Faulted:
		m.err = step.Err
		m.state = stateFaulted
	}
	return tea.Batch(m.stage.Apply(step.Effects), step.Cmd)
}

func (m model) inDialogue(y int) bool {
	return y >= m.height-(dialogueLines+dialogueChrome+helpLines)
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateLoading:
		if m.preload.total > 0 {
			s = fmt.Sprintf("\n  %s Loading assets %d/%d\n", m.spinner.View(), m.preload.done, m.preload.total)
		} else {
			s = fmt.Sprintf("\n  %s Loading story...\n", m.spinner.View())
		}

	case statePlaying:
		s = m.renderPlaying()

	case stateEnded:
		s = m.renderEnding()

	case stateError:
		s = fmt.Sprintf("\n  %s\n\n  %v\n\nPress q to quit.",
			errorStyle.Render("Failed to load the story. Fix the data and restart."), m.err)

	case stateFaulted:
		s = fmt.Sprintf("\n  %s\n\n  %v\n\nPress q to quit.",
			errorStyle.Render("Playback stopped: story data is inconsistent."), m.err)
	}

	return s
}

func (m model) renderPlaying() string {
	width := max(m.width-2, 20)
	sceneHeight := max(m.height-(dialogueLines+dialogueChrome+helpLines)-2, 5)

	scene := sceneStyle.Width(width).Height(sceneHeight).Render(m.renderScene(width, sceneHeight))

	name := ""
	if m.stage.name != "" {
		name = nameStyle.Render(m.stage.name)
	}

	vp := m.viewport
	vp.SetContent(lipgloss.NewStyle().Width(vp.Width).Render(m.session.Text()))
	vp.GotoBottom()
	text := vp.View()
	if m.session.State() == player.AwaitingAdvance {
		text += "\n" + lipgloss.PlaceHorizontal(vp.Width, lipgloss.Right, hintStyle.Render("▶"))
	}
	box := dialogueStyle.Width(width).Render(text)

	return lipgloss.JoinVertical(lipgloss.Left,
		scene,
		name,
		box,
		m.help.View(keys),
	)
}

func (m model) renderScene(width, height int) string {
	bg := ""
	if l := m.stage.background; l.phase != hidden {
		bg = m.fade(l, backgroundStyle.Render("scene: "+m.catalog.Resolve(assets.BackgroundRef(l.asset)).Label()))
	}

	if l := m.stage.overlay; l.phase != hidden {
		card := overlayStyle.Render(m.catalog.Resolve(assets.MiscRef(l.asset)).Label())
		return bg + "\n" + lipgloss.Place(width, height-1, lipgloss.Center, lipgloss.Center, m.fade(l, card))
	}

	if l := m.stage.speaker; l.phase != hidden {
		info := m.catalog.Resolve(assets.CharacterRef(l.asset, l.expression))
		card := spriteStyle.Render(l.asset + "\n" + backgroundStyle.Render(l.expression) + "\n" + backgroundStyle.Render(info.Label()))
		return bg + "\n" + lipgloss.Place(width, height-1, lipgloss.Center, lipgloss.Bottom, m.fade(l, card))
	}

	return bg
}

func (m model) fade(l layer, s string) string {
	if l.phase == fadingIn || l.phase == fadingOut {
		return fadingStyle.Render(s)
	}
	return s
}

func (m model) renderEnding() string {
	end := m.ending.ending
	var parts []string
	if end.Image != "" {
		parts = append(parts, overlayStyle.Render(m.catalog.Resolve(assets.MiscRef(end.Image)).Label()), "")
	}
	parts = append(parts,
		titleStyle.Render(end.Title),
		"",
		end.Text,
		"",
		m.help.ShortHelpView([]key.Binding{keys.Restart, keys.Quit}),
	)
	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m model) loadStory() tea.Cmd {
	return func() tea.Msg {
		log.Printf("[init] loading story from %s", m.cfg.StoryPath)
		story, err := models.LoadStory(m.cfg.StoryPath)
		if err != nil {
			return errMsg{err}
		}
		return storyParsedMsg{story: story, refs: assets.Refs(story)}
	}
}

// preloadAssets probes refs and streams progress into ch, ending with either
// storyLoadedMsg or errMsg. ch is closed when it returns.
func (m model) preloadAssets(story *models.Story, refs []assets.Ref, ch chan<- tea.Msg) tea.Cmd {
	return func() tea.Msg {
		defer close(ch)
		progress := func(done, total int) {
			ch <- preloadProgressMsg{done: done, total: total}
		}
		if err := m.catalog.Preload(context.Background(), refs, m.cfg.PreloadWorkers, progress); err != nil {
			ch <- errMsg{err}
			return nil
		}
		ch <- storyLoadedMsg{story: story, missing: len(m.catalog.Missing())}
		return nil
	}
}

// waitForPreload delivers the next message from a running preload.
func waitForPreload(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func Run(cfg *config.Config) error {
	p := tea.NewProgram(NewModel(cfg), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
