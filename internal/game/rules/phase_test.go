package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhase(t *testing.T) {
	cases := map[string]Phase{
		"PRE_SERVE":     PhasePreServe,
		"PreServe":      PhasePreServe,
		"toss_charging": PhaseTossCharging,
		"TOSSED":        PhaseTossed,
		"InRally":       PhaseInRally,
		" POINT_OVER ":  PhasePointOver,
	}
	for in, want := range cases {
		got, err := ParsePhase(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePhase("halftime")
	assert.Error(t, err)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "IN_RALLY", PhaseInRally.String())
	assert.Equal(t, "PHASE_42", Phase(42).String())
}

func TestTeam(t *testing.T) {
	assert.True(t, Team1.Valid())
	assert.True(t, Team2.Valid())
	assert.False(t, Team(0).Valid())
	assert.False(t, Team(3).Valid())
	assert.Equal(t, Team2, Team1.Opponent())
	assert.Equal(t, Team1, Team2.Opponent())
	assert.Equal(t, "TEAM2", Team2.String())
}
