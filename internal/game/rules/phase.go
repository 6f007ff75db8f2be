package rules

import (
	"fmt"
	"strings"
)

// Phase represents the legal phases of a rally.
type Phase int

const (
	// PhasePreServe lets the server move inside their serve zone only.
	PhasePreServe Phase = iota
	// PhaseTossCharging is the server holding the serve input.
	PhaseTossCharging
	// PhaseTossed means the ball has left the hand and awaits a spike or first contact.
	PhaseTossed
	// PhaseInRally means the ball is in play after the spike.
	PhaseInRally
	// PhasePointOver means the ball touched the ground or went out.
	PhasePointOver
)

var phaseNames = map[Phase]string{
	PhasePreServe:     "PRE_SERVE",
	PhaseTossCharging: "TOSS_CHARGING",
	PhaseTossed:       "TOSSED",
	PhaseInRally:      "IN_RALLY",
	PhasePointOver:    "POINT_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// ParsePhase resolves a phase name such as "PRE_SERVE" or "InRally".
func ParsePhase(name string) (Phase, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	for p, n := range phaseNames {
		if strings.ReplaceAll(n, "_", "") == norm {
			return p, nil
		}
	}
	return PhasePreServe, fmt.Errorf("unknown rally phase %q", name)
}

// Team identifies one side of the net.
type Team int

const (
	Team1 Team = 1
	Team2 Team = 2
)

// Valid reports whether t is one of the two teams.
func (t Team) Valid() bool {
	return t == Team1 || t == Team2
}

// Opponent returns the team across the net.
func (t Team) Opponent() Team {
	if t == Team1 {
		return Team2
	}
	return Team1
}

func (t Team) String() string {
	if !t.Valid() {
		return fmt.Sprintf("TEAM_%d", int(t))
	}
	return fmt.Sprintf("TEAM%d", int(t))
}
