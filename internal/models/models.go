package models

// EventType names the variant of a story Event.
type EventType string

const (
	EventCharacterDialogue EventType = "character_dialogue"
	EventNarration         EventType = "narration"
	EventDisplayImage      EventType = "display_image"
	EventHideImage         EventType = "hide_image"
)

// DefaultExpression is used when a dialogue event does not name one.
const DefaultExpression = "normal"

// Choice is reserved for branching stories. It is decoded but never acted on.
type Choice struct {
	Text string `yaml:"text" json:"text"`
	Next string `yaml:"next,omitempty" json:"next,omitempty"`
}

// Event is the atomic narrative unit: a line of dialogue, a line of narration,
// or an overlay image change. Which fields matter depends on Type.
type Event struct {
	Type       EventType `yaml:"type" json:"type"`
	Character  string    `yaml:"character,omitempty" json:"character,omitempty"`
	Expression string    `yaml:"expression,omitempty" json:"expression,omitempty"`
	Text       string    `yaml:"text,omitempty" json:"text,omitempty"`
	Image      string    `yaml:"image,omitempty" json:"image,omitempty"`
	Choices    []Choice  `yaml:"choices,omitempty" json:"choices,omitempty"`
}

// SpriteExpression returns the expression to draw the speaker with.
func (e Event) SpriteExpression() string {
	if e.Expression == "" {
		return DefaultExpression
	}
	return e.Expression
}

// Scene is an ordered group of events sharing a background. An empty
// Background means "keep the previous scene's background".
type Scene struct {
	Background string   `yaml:"background,omitempty" json:"background,omitempty"`
	Events     []Event  `yaml:"events" json:"events"`
	Choices    []Choice `yaml:"choices,omitempty" json:"choices,omitempty"`
}

// Chapter is an ordered group of scenes. Chapters are addressed by index.
type Chapter struct {
	Title  string  `yaml:"title,omitempty" json:"title,omitempty"`
	Scenes []Scene `yaml:"scenes" json:"scenes"`
}

// Ending describes the screen shown once the last chapter is finished.
type Ending struct {
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	Text  string `yaml:"text,omitempty" json:"text,omitempty"`
	Image string `yaml:"image,omitempty" json:"image,omitempty"`
}

// Story is the whole read-only narrative tree.
type Story struct {
	Title    string    `yaml:"title,omitempty" json:"title,omitempty"`
	Ending   *Ending   `yaml:"ending,omitempty" json:"ending,omitempty"`
	Chapters []Chapter `yaml:"chapters" json:"chapters"`
}

// Scene returns the scene at (chapter, scene), if both indices are in range.
func (s *Story) Scene(chapter, scene int) (Scene, bool) {
	if chapter < 0 || chapter >= len(s.Chapters) {
		return Scene{}, false
	}
	scenes := s.Chapters[chapter].Scenes
	if scene < 0 || scene >= len(scenes) {
		return Scene{}, false
	}
	return scenes[scene], true
}

// Event returns the event at (chapter, scene, event), if all indices are in range.
func (s *Story) Event(chapter, scene, event int) (Event, bool) {
	sc, ok := s.Scene(chapter, scene)
	if !ok || event < 0 || event >= len(sc.Events) {
		return Event{}, false
	}
	return sc.Events[event], true
}

// EndingOrDefault returns the story's ending, falling back to a plain one.
func (s *Story) EndingOrDefault() Ending {
	end := Ending{
		Title: "The End",
		Text:  "Thank you for playing.",
	}
	if s.Ending == nil {
		return end
	}
	if s.Ending.Title != "" {
		end.Title = s.Ending.Title
	}
	if s.Ending.Text != "" {
		end.Text = s.Ending.Text
	}
	end.Image = s.Ending.Image
	return end
}
