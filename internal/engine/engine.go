package engine

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/tatianab/visual-novel/internal/models"
)

//go:embed prompts/generate_story.txt
var generateStoryPrompt string

//go:embed prompts/continue_story.txt
var continueStoryPrompt string

var (
	generateStoryTmpl = template.Must(template.New("generate_story").Parse(generateStoryPrompt))
	continueStoryTmpl = template.Must(template.New("continue_story").Parse(continueStoryPrompt))
)

// contentGenerator is the part of *genai.GenerativeModel the engine uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Engine drafts story files with Gemini.
type Engine struct {
	client *genai.Client
	model  contentGenerator
}

func NewEngine(ctx context.Context, apiKey, modelName string) (*Engine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.9)
	return &Engine{
		client: client,
		model:  model,
	}, nil
}

func (e *Engine) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

// GenerateStory asks for a complete story and validates it with the same
// loader the player uses.
func (e *Engine) GenerateStory(ctx context.Context, hint string, chapters int) (*models.Story, error) {
	if chapters < 1 {
		chapters = 1
	}

	var buf bytes.Buffer
	if err := generateStoryTmpl.Execute(&buf, struct {
		Hint     string
		Chapters int
	}{Hint: hint, Chapters: chapters}); err != nil {
		return nil, err
	}

	text, err := e.generate(ctx, buf.String())
	if err != nil {
		return nil, err
	}

	story, err := models.ParseStory([]byte(text), models.FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("generated story is invalid: %w\nOutput was: %s", err, text)
	}
	return story, nil
}

// ContinueStory appends one generated chapter to story. The story is only
// modified if the new chapter is valid.
func (e *Engine) ContinueStory(ctx context.Context, story *models.Story, hint string) error {
	var buf bytes.Buffer
	data := struct {
		Title      string
		Characters string
		Summary    string
		Hint       string
	}{
		Title:      story.Title,
		Characters: strings.Join(characters(story), ", "),
		Summary:    summarize(story, 12),
		Hint:       hint,
	}
	if err := continueStoryTmpl.Execute(&buf, data); err != nil {
		return err
	}

	text, err := e.generate(ctx, buf.String())
	if err != nil {
		return err
	}

	var chapter models.Chapter
	if err := yaml.Unmarshal([]byte(text), &chapter); err != nil {
		return fmt.Errorf("failed to parse chapter YAML: %v\nOutput was: %s", err, text)
	}

	extended := *story
	extended.Chapters = append(append([]models.Chapter(nil), story.Chapters...), chapter)
	if err := models.Validate(&extended); err != nil {
		return fmt.Errorf("generated chapter is invalid: %w", err)
	}
	story.Chapters = extended.Chapters
	return nil
}

func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := e.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}

	part := resp.Candidates[0].Content.Parts[0]
	text, ok := part.(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	return cleanYAML(string(text)), nil
}

func cleanYAML(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```yaml")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// characters lists speaker names in order of first appearance.
func characters(s *models.Story) []string {
	seen := make(map[string]bool)
	var names []string
	for _, ch := range s.Chapters {
		for _, sc := range ch.Scenes {
			for _, ev := range sc.Events {
				if ev.Type == models.EventCharacterDialogue && !seen[ev.Character] {
					seen[ev.Character] = true
					names = append(names, ev.Character)
				}
			}
		}
	}
	return names
}

// summarize keeps the last maxLines lines of text so the prompt stays short.
func summarize(s *models.Story, maxLines int) string {
	var lines []string
	for _, ch := range s.Chapters {
		for _, sc := range ch.Scenes {
			for _, ev := range sc.Events {
				switch {
				case ev.Text == "":
				case ev.Type == models.EventCharacterDialogue:
					lines = append(lines, fmt.Sprintf("%s: %s", ev.Character, ev.Text))
				default:
					lines = append(lines, ev.Text)
				}
			}
		}
	}
	if len(lines) > maxLines {
		lines = append([]string{"..."}, lines[len(lines)-maxLines:]...)
	}
	return strings.Join(lines, "\n")
}
