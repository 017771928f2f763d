package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPromptLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yml")
	body := `prose:
  - name: Lyrical
    text: "Write lyrically in {pov}."
    model: large-model
    max_tokens: 400
workshop:
  - name: Critic
    text: "Critique the draft honestly."
    temperature: 0.4
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write prompts: %v", err)
	}

	lib, err := LoadPromptLibrary(path)
	if err != nil {
		t.Fatalf("load library: %v", err)
	}
	p, ok := lib.ProsePrompt("Lyrical")
	if !ok || p.Model != "large-model" {
		t.Fatalf("ProsePrompt(Lyrical) = (%+v, %v)", p, ok)
	}
	if _, ok := lib.WorkshopPrompt("Critic"); !ok {
		t.Fatal("WorkshopPrompt(Critic) not found")
	}
	if _, ok := lib.WorkshopPrompt("Missing"); ok {
		t.Fatal("WorkshopPrompt(Missing) should not be found")
	}
}

func TestLoadPromptLibraryMissingFileIsEmpty(t *testing.T) {
	lib, err := LoadPromptLibrary(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("load missing library: %v", err)
	}
	if len(lib.Prose) != 0 || len(lib.Workshop) != 0 {
		t.Fatalf("missing file should load empty, got %+v", lib)
	}
}

func TestDefaultProseFallsBackToBuiltin(t *testing.T) {
	var lib PromptLibrary
	p := lib.DefaultProse()
	if p.Text != DefaultProsePrompt {
		t.Fatalf("DefaultProse().Text = %q, want builtin", p.Text)
	}
}

func TestOverridesFillDefaults(t *testing.T) {
	p := PromptConfig{Name: "Bare"}
	o := p.Overrides(200, 0.7)
	if o.Provider != "" || o.Model != "" {
		t.Fatalf("overrides = %+v, want empty provider and model so the configured model wins", o)
	}
	if o.MaxTokens != 200 || o.Temperature != 0.7 {
		t.Fatalf("overrides = %+v, want supplied defaults", o)
	}

	p = PromptConfig{Provider: "remote", Model: "big", MaxTokens: 900, Temperature: 1.2}
	o = p.Overrides(200, 0.7)
	if o.Provider != "remote" || o.Model != "big" || o.MaxTokens != 900 || o.Temperature != 1.2 {
		t.Fatalf("explicit settings lost: %+v", o)
	}
}
