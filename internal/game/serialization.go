package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"
)

// checksumVersion is bumped whenever the canonical representation changes.
const checksumVersion = 1

// SerializationChecksum is a deterministic fingerprint of a snapshot. Two
// runs fed the same inputs with the same tick sizes produce equal hashes.
type SerializationChecksum struct {
	Hash    string
	Tick    uint64
	Version int
}

// ComputeChecksum hashes the canonical representation of the snapshot.
// Match and rally IDs are random per run and are left out.
func (s *Snapshot) ComputeChecksum() (*SerializationChecksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(s.canonical())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SerializationChecksum{
		Hash:    hex.EncodeToString(hash.Sum(nil)),
		Tick:    s.Tick,
		Version: checksumVersion,
	}, nil
}

// VerifyChecksum reports whether the snapshot matches expected.
func (s *Snapshot) VerifyChecksum(expected *SerializationChecksum) (bool, error) {
	if expected == nil {
		return false, fmt.Errorf("no checksum to verify against")
	}
	if expected.Version != checksumVersion {
		return false, fmt.Errorf("unsupported checksum version: %d", expected.Version)
	}
	actual, err := s.ComputeChecksum()
	if err != nil {
		return false, err
	}
	return actual.Hash == expected.Hash, nil
}

func (s *Snapshot) canonical() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "RALLY:%d|%d|%s|%d|%t|%t\n",
		s.Tick, s.SimTimeMS, s.Phase, s.ServingTeam, s.Blockers[0], s.Blockers[1])
	fmt.Fprintf(&buf, "BALL:%s|%s|%s|%t|%t|%d\n",
		vec(s.Ball.Position), vec(s.Ball.Velocity), s.Ball.GravityMode,
		s.Ball.Held, s.Ball.FirstContact, s.Ball.LastTeam)
	for _, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%d|%s|%s|%t|%t|%t|%.9f\n",
			p.Team, vec(p.Position), vec(p.Velocity),
			p.BallInHand, p.Charging, p.MovementLocked, p.Accuracy)
	}
	fmt.Fprintf(&buf, "SCORE:%d|%d\n", s.Score.Team1, s.Score.Team2)
	fmt.Fprintf(&buf, "STATS:%d|%d|%d|%d|%.9f|%.9f\n",
		s.Stats.Launches, s.Stats.Spikes, s.Stats.NetTouches, s.Stats.Jumps,
		s.Stats.BestAccuracy, s.Stats.MaxSpeed)
	return buf.String()
}

func vec(v mgl64.Vec3) string {
	return fmt.Sprintf("%.9f,%.9f,%.9f", v[0], v[1], v[2])
}

// EncodeFrame encodes the snapshot as a msgpack frame. Snapshot must not
// implement encoding.BinaryMarshaler: msgpack and gob would both call it
// back instead of encoding the fields.
func (s *Snapshot) EncodeFrame() ([]byte, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot decodes a msgpack frame produced by EncodeFrame.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}
