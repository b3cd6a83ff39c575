package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the decoder used for a story file.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatFor picks a format from the file extension. Anything that is not
// .json is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// LoadStory reads, decodes and validates a story file.
func LoadStory(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story %s: %w", path, err)
	}
	s, err := ParseStory(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("load story %s: %w", path, err)
	}
	return s, nil
}

// ParseStory decodes a story and validates it. Two shapes are accepted: a
// bare list of chapters, or a mapping with title, ending and chapters.
func ParseStory(data []byte, format Format) (*Story, error) {
	var (
		s   *Story
		err error
	)
	switch format {
	case FormatJSON:
		s, err = parseJSON(data)
	default:
		s, err = parseYAML(data)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func parseYAML(data []byte) (*Story, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, ErrEmptyStory
	}

	root := doc.Content[0]
	var s Story
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&s.Chapters); err != nil {
			return nil, fmt.Errorf("decode chapters: %w", err)
		}
	case yaml.MappingNode:
		if err := root.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode story: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: top level must be a list of chapters or a mapping", ErrInvalidStory)
	}
	return &s, nil
}

func parseJSON(data []byte) (*Story, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyStory
	}

	var s Story
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &s.Chapters); err != nil {
			return nil, fmt.Errorf("decode chapters: %w", err)
		}
	case '{':
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("decode story: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: top level must be an array of chapters or an object", ErrInvalidStory)
	}
	return &s, nil
}

// Save writes the story as YAML, creating the parent directory if needed.
func (s *Story) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
