package app

import (
	"fmt"
	"regexp"
	"strings"
)

var templatePlaceholder = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// FormatTemplate substitutes {name} placeholders from values. Unknown
// placeholders are left verbatim and reported in the returned error so
// the caller can warn the user; the partially formatted string is still
// usable.
func FormatTemplate(template string, values map[string]string) (string, error) {
	var missing []string
	out := templatePlaceholder.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		if v, ok := values[key]; ok {
			return v
		}
		missing = append(missing, key)
		return match
	})
	if len(missing) > 0 {
		return out, fmt.Errorf("template has unknown placeholders: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// ProseRequest is everything that goes into one scene-drafting prompt.
type ProseRequest struct {
	ActionBeats  string
	Template     string
	POV          string
	POVCharacter string
	Tense        string
	SceneText    string
	ExtraContext string
}

// PromptAssembler merges a prose template, the current scene, assembled
// context, and the author's action beats into a single request payload.
type PromptAssembler struct {
	logger *Logger
}

func NewPromptAssembler(logger *Logger) *PromptAssembler {
	return &PromptAssembler{logger: logger}
}

// Assemble builds the final prompt in fixed order: formatted template,
// scene continuation, extra context, action beats. The action beats go
// last because the backend weights the tail of the prompt as the
// immediate instruction. A template formatting failure is logged and
// the partially formatted text is used as-is.
func (a *PromptAssembler) Assemble(req ProseRequest) string {
	body, err := FormatTemplate(req.Template, map[string]string{
		"pov":           req.POV,
		"pov_character": req.POVCharacter,
		"tense":         req.Tense,
	})
	if err != nil && a.logger != nil {
		a.logger.Warn("prose template formatting incomplete", map[string]interface{}{
			"error": err.Error(),
		})
	}

	parts := []string{body}
	if scene := strings.TrimSpace(req.SceneText); scene != "" {
		parts = append(parts, "Current scene text (continue from here):\n"+scene)
	}
	if extra := strings.TrimSpace(req.ExtraContext); extra != "" {
		parts = append(parts, extra)
	}
	parts = append(parts, "User Action Beats:\n"+strings.TrimSpace(req.ActionBeats))
	return strings.Join(parts, "\n\n")
}
