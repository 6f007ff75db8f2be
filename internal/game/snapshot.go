package game

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/superspike/spike-server-go/internal/game/rules"
)

// Score is the running point tally of a match.
type Score struct {
	Team1 int `msgpack:"team1" json:"team1"`
	Team2 int `msgpack:"team2" json:"team2"`
}

// BallView is the observable ball state.
type BallView struct {
	Position     mgl64.Vec3 `msgpack:"position" json:"position"`
	Velocity     mgl64.Vec3 `msgpack:"velocity" json:"velocity"`
	GravityMode  string     `msgpack:"gravity_mode" json:"gravity_mode"`
	Held         bool       `msgpack:"held" json:"held"`
	FirstContact bool       `msgpack:"first_contact" json:"first_contact"`
	LastTeam     int        `msgpack:"last_team" json:"last_team"`
}

// PlayerView is the observable state of one player, including the
// cosmetic values a presentation layer animates from.
type PlayerView struct {
	Team           int        `msgpack:"team" json:"team"`
	Position       mgl64.Vec3 `msgpack:"position" json:"position"`
	Velocity       mgl64.Vec3 `msgpack:"velocity" json:"velocity"`
	Speed          float64    `msgpack:"speed" json:"speed"`
	BallInHand     bool       `msgpack:"ball_in_hand" json:"ball_in_hand"`
	Charging       bool       `msgpack:"charging" json:"charging"`
	ChargeFraction float64    `msgpack:"charge_fraction" json:"charge_fraction"`
	MovementLocked bool       `msgpack:"movement_locked" json:"movement_locked"`
	Accuracy       float64    `msgpack:"accuracy" json:"accuracy"`
}

// Snapshot is a point-in-time copy of a match. It shares no memory with the
// live simulation.
type Snapshot struct {
	MatchID     string           `msgpack:"match_id" json:"match_id"`
	RallyID     string           `msgpack:"rally_id" json:"rally_id"`
	Tick        uint64           `msgpack:"tick" json:"tick"`
	SimTimeMS   int64            `msgpack:"sim_time_ms" json:"sim_time_ms"`
	Phase       string           `msgpack:"phase" json:"phase"`
	ServingTeam int              `msgpack:"serving_team" json:"serving_team"`
	Blockers    [2]bool          `msgpack:"blockers" json:"blockers"`
	Ball        BallView         `msgpack:"ball" json:"ball"`
	Players     []PlayerView     `msgpack:"players" json:"players"`
	Score       Score            `msgpack:"score" json:"score"`
	Stats       rules.RallyStats `msgpack:"stats" json:"stats"`
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Players = append([]PlayerView(nil), s.Players...)
	return &c
}
