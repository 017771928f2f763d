package app

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultProsePrompt is used when the library has no prose prompts
// configured.
const DefaultProsePrompt = "You are collaborating with the author to write a scene. " +
	"Write the scene in {pov} point of view, from the perspective of {pov_character}, and in {tense}."

// PromptConfig is one named template plus its generation settings.
type PromptConfig struct {
	Name        string  `yaml:"name"`
	Text        string  `yaml:"text"`
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// Overrides fills in the generation defaults for anything the template
// leaves unset. Prose prompts default to short completions; workshop
// prompts to longer, hotter ones. Provider and model stay zero when the
// template names none, so the transport's configured model applies.
func (c PromptConfig) Overrides(defaultMaxTokens int, defaultTemperature float64) Overrides {
	o := Overrides{
		Provider:    c.Provider,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.Temperature <= 0 {
		o.Temperature = defaultTemperature
	}
	return o
}

// PromptLibrary holds the named prose (scene drafting) and workshop
// (open-ended chat) templates for a project.
type PromptLibrary struct {
	Prose    []PromptConfig `yaml:"prose"`
	Workshop []PromptConfig `yaml:"workshop"`
}

// LoadPromptLibrary reads the library from a YAML file. A missing file
// is an empty library; a corrupt one is an error the caller reports.
func LoadPromptLibrary(path string) (PromptLibrary, error) {
	var lib PromptLibrary
	if path == "" {
		return lib, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lib, nil
		}
		return lib, fmt.Errorf("read prompt library: %w", err)
	}
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return lib, fmt.Errorf("parse prompt library: %w", err)
	}
	return lib, nil
}

func findPrompt(prompts []PromptConfig, name string) (PromptConfig, bool) {
	for _, p := range prompts {
		if p.Name == name {
			return p, true
		}
	}
	return PromptConfig{}, false
}

func (l PromptLibrary) ProsePrompt(name string) (PromptConfig, bool) {
	return findPrompt(l.Prose, name)
}

func (l PromptLibrary) WorkshopPrompt(name string) (PromptConfig, bool) {
	return findPrompt(l.Workshop, name)
}

// DefaultProse returns the first configured prose prompt, or the
// built-in default when none exist.
func (l PromptLibrary) DefaultProse() PromptConfig {
	if len(l.Prose) > 0 {
		return l.Prose[0]
	}
	return PromptConfig{Name: "Default", Text: DefaultProsePrompt}
}
