package game

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeChecksum(t *testing.T) {
	checksum, err := testSnapshot(7).ComputeChecksum()
	require.NoError(t, err)
	assert.Len(t, checksum.Hash, 64)
	assert.Equal(t, uint64(7), checksum.Tick)
	assert.Equal(t, 1, checksum.Version)
}

func TestChecksumIgnoresIdentifiers(t *testing.T) {
	a := testSnapshot(7)
	b := testSnapshot(7)
	b.MatchID = "other-match"
	b.RallyID = "other-rally"

	ca, err := a.ComputeChecksum()
	require.NoError(t, err)
	cb, err := b.ComputeChecksum()
	require.NoError(t, err)
	assert.Equal(t, ca.Hash, cb.Hash)
}

func TestChecksumDetectsChanges(t *testing.T) {
	base, err := testSnapshot(7).ComputeChecksum()
	require.NoError(t, err)

	mutations := map[string]func(*Snapshot){
		"phase":    func(s *Snapshot) { s.Phase = "IN_RALLY" },
		"ball":     func(s *Snapshot) { s.Ball.Position = s.Ball.Position.Add(mgl64.Vec3{0, 1e-6, 0}) },
		"player":   func(s *Snapshot) { s.Players[1].BallInHand = true },
		"score":    func(s *Snapshot) { s.Score.Team2++ },
		"blockers": func(s *Snapshot) { s.Blockers[0] = true },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			s := testSnapshot(7)
			mutate(s)
			ok, err := s.VerifyChecksum(base)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	ok, err := testSnapshot(7).VerifyChecksum(base)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyChecksumErrors(t *testing.T) {
	s := testSnapshot(1)
	_, err := s.VerifyChecksum(nil)
	assert.Error(t, err)

	_, err = s.VerifyChecksum(&SerializationChecksum{Version: 99})
	assert.Error(t, err)
}

func TestSnapshotMsgpackFrame(t *testing.T) {
	s := testSnapshot(3)
	data, err := s.EncodeFrame()
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)

	_, err = DecodeSnapshot([]byte{0xc1})
	assert.Error(t, err)
}

func TestSnapshotClone(t *testing.T) {
	s := testSnapshot(1)
	c := s.Clone()
	c.Players[0].Team = 9
	c.Ball.Position[0] = 42

	assert.Equal(t, 1, s.Players[0].Team)
	assert.Equal(t, 0.5, s.Ball.Position[0])

	var nilSnap *Snapshot
	assert.Nil(t, nilSnap.Clone())
}
