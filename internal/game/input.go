package game

import (
	"fmt"
	"strings"

	"github.com/superspike/spike-server-go/internal/game/rules"
)

// Action is a discrete player input.
type Action string

const (
	ActionMove  Action = "MOVE"
	ActionJump  Action = "JUMP"
	ActionSpike Action = "SPIKE"
	ActionBump  Action = "BUMP"
	ActionSet   Action = "SET"
)

// ParseAction maps a wire name to an Action, ignoring case.
func ParseAction(name string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(name)))
	switch a {
	case ActionMove, ActionJump, ActionSpike, ActionBump, ActionSet:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", name)
}

// InputEvent is one input from a player. Pressed distinguishes press from
// release for button actions; X and Y carry the move axes.
type InputEvent struct {
	Team    rules.Team `json:"team" msgpack:"team"`
	Action  Action     `json:"action" msgpack:"action"`
	Pressed bool       `json:"pressed" msgpack:"pressed"`
	X       float64    `json:"x" msgpack:"x"`
	Y       float64    `json:"y" msgpack:"y"`
}

// Validate checks the team and action.
func (e InputEvent) Validate() error {
	if !e.Team.Valid() {
		return fmt.Errorf("invalid team %d", int(e.Team))
	}
	if _, err := ParseAction(string(e.Action)); err != nil {
		return err
	}
	return nil
}
