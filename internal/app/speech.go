package app

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoSpeaker is returned when speech is requested without an engine
// configured.
var ErrNoSpeaker = errors.New("no speech engine configured")

// Speaker plays text aloud. The concrete engine is an external
// collaborator; the tool only needs something to hand text to.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// CommandSpeaker pipes text to an external program, e.g. "say" or
// "espeak". The command receives the text on stdin so arbitrary prose
// never hits the argument list.
type CommandSpeaker struct {
	Args []string
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if len(s.Args) == 0 {
		return ErrNoSpeaker
	}
	cmd := exec.CommandContext(ctx, s.Args[0], s.Args[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("speech command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
