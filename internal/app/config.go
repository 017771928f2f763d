package app

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`

	// TokenBudget is the conversation estimate above which the workshop
	// chat is summarized.
	TokenBudget int `yaml:"token_budget"`

	Project        string `yaml:"project"`
	OutlinePath    string `yaml:"outline_path"`
	CompendiumPath string `yaml:"compendium_path"`
	PromptsPath    string `yaml:"prompts_path"`
	StorageRoot    string `yaml:"storage_root"`
	LogPath        string `yaml:"log_path"`

	POV          string `yaml:"pov"`
	POVCharacter string `yaml:"pov_character"`
	Tense        string `yaml:"tense"`

	// SpeechCommand, when set, is the program (plus arguments) that
	// reads responses aloud from stdin.
	SpeechCommand []string `yaml:"speech_command"`
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:      4096,
		TokenBudget:    DefaultTokenBudget,
		Project:        "default",
		OutlinePath:    "outline.json",
		CompendiumPath: "compendium.json",
		PromptsPath:    "prompts.yml",
		POV:            "Third Person",
		POVCharacter:   "Character",
		Tense:          "Present Tense",
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = DefaultTokenBudget
	}
	if cfg.Project == "" {
		cfg.Project = "default"
	}
	if cfg.POV == "" {
		cfg.POV = "Third Person"
	}
	if cfg.POVCharacter == "" {
		cfg.POVCharacter = "Character"
	}
	if cfg.Tense == "" {
		cfg.Tense = "Present Tense"
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "inkwell", "config.yml")
}

// DefaultStorageRoot is where session history lands when the config
// does not say otherwise.
func DefaultStorageRoot() string {
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, "inkwell")
	}
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".local", "share", "inkwell")
	}
	return filepath.Join(os.TempDir(), "inkwell")
}
