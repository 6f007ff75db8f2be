package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// replayVersion is the on-disk format version.
const replayVersion = 1

// Replay is a recorded match: one snapshot per tick.
type Replay struct {
	MatchID      string
	States       []*Snapshot
	CurrentIndex int
	maxStates    int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(matchID string) *Replay {
	return &Replay{
		MatchID: matchID,
		States:  make([]*Snapshot, 0),
	}
}

// SetMaxStates bounds the replay to the newest n states. Zero or less
// removes the bound.
func (r *Replay) SetMaxStates(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.maxStates = n
	r.trim()
}

// RecordState appends a copy of snapshot, dropping the oldest state once the
// replay is full.
func (r *Replay) RecordState(snapshot *Snapshot) {
	if snapshot == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.States = append(r.States, snapshot.Clone())
	r.trim()
}

func (r *Replay) trim() {
	if r.maxStates <= 0 || len(r.States) <= r.maxStates {
		return
	}
	drop := len(r.States) - r.maxStates
	clear(r.States[:drop])
	r.States = r.States[drop:]
	r.CurrentIndex = max(r.CurrentIndex-drop, 0)
}

// Start rewinds playback.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the state at the cursor and advances it, or nil at the end.
func (r *Replay) Next() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.States) {
		state := r.States[r.CurrentIndex]
		r.CurrentIndex++
		return state
	}
	return nil
}

// Previous moves the cursor back and returns that state.
func (r *Replay) Previous() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.States[r.CurrentIndex]
	}
	return nil
}

// Size returns the number of recorded states.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.States)
}

// StateAt returns the state at index, or nil when out of range.
func (r *Replay) StateAt(index int) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.States) {
		return r.States[index]
	}
	return nil
}

// Path returns the file a replay for matchID is stored in.
func Path(directory, matchID string) string {
	return filepath.Join(directory, fmt.Sprintf("%s.replay", matchID))
}

// SaveToFile writes the replay as a gzipped gob stream.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(Path(directory, r.MatchID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		MatchID:    r.MatchID,
		Timestamp:  time.Now(),
		Version:    replayVersion,
		StateCount: len(r.States),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, state := range r.States {
		if err := encoder.Encode(state); err != nil {
			return fmt.Errorf("failed to encode state %d: %w", i, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, matchID string) (*Replay, error) {
	file, err := os.Open(Path(directory, matchID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.MatchID)
	for i := 0; i < metadata.StateCount; i++ {
		var state Snapshot
		if err := decoder.Decode(&state); err != nil {
			return nil, fmt.Errorf("failed to decode state %d: %w", i, err)
		}
		replay.States = append(replay.States, &state)
	}
	return replay, nil
}

type replayMetadata struct {
	MatchID    string
	Timestamp  time.Time
	Version    int
	StateCount int
}

// ReplayRecorder records the snapshots of one match and saves them on demand.
type ReplayRecorder struct {
	logger    *zap.Logger
	mu        sync.RWMutex
	replay    *Replay
	enabled   bool
	saveDir   string
	maxStates int
}

// NewReplayRecorder creates a recorder that saves into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		saveDir: saveDir,
	}
}

// SetMaxStates bounds replays started afterwards, and the current one.
func (rr *ReplayRecorder) SetMaxStates(n int) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.maxStates = n
	if rr.replay != nil {
		rr.replay.SetMaxStates(n)
	}
}

// StartRecording begins a fresh replay for matchID.
func (rr *ReplayRecorder) StartRecording(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replay = NewReplay(matchID)
	rr.replay.SetMaxStates(rr.maxStates)
	rr.enabled = true
	rr.logger.Info("started replay recording",
		zap.String("match_id", matchID),
		zap.Int("max_states", rr.maxStates),
	)
}

// StopRecording pauses recording; the replay stays in memory.
func (rr *ReplayRecorder) StopRecording() {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled = false
	rr.logger.Info("stopped replay recording")
}

// IsRecording reports whether snapshots are being captured.
func (rr *ReplayRecorder) IsRecording() bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled
}

// RecordState records snapshot when recording is enabled.
func (rr *ReplayRecorder) RecordState(snapshot *Snapshot) {
	rr.mu.RLock()
	enabled, replay := rr.enabled, rr.replay
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return
	}
	replay.RecordState(snapshot)
}

// Replay returns the replay being recorded.
func (rr *ReplayRecorder) Replay() (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.replay, rr.replay != nil
}

// Save writes the current replay to disk and drops it from memory.
func (rr *ReplayRecorder) Save() error {
	rr.mu.Lock()
	replay := rr.replay
	if replay == nil {
		rr.mu.Unlock()
		return fmt.Errorf("no replay recorded")
	}
	rr.replay = nil
	rr.enabled = false
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	rr.logger.Info("saved replay to disk",
		zap.String("match_id", replay.MatchID),
		zap.Int("state_count", replay.Size()),
		zap.String("directory", rr.saveDir),
	)
	return nil
}

// Load reads a saved replay from the recorder's directory.
func (rr *ReplayRecorder) Load(matchID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, matchID)
	if err != nil {
		return nil, err
	}
	rr.logger.Info("loaded replay from disk",
		zap.String("match_id", matchID),
		zap.Int("state_count", replay.Size()),
	)
	return replay, nil
}
