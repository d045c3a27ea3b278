package storage

import (
	"context"
	"errors"
	"time"

	"paretoevo/internal/model"
)

var (
	ErrNoCheckpoint      = errors.New("no checkpoint")
	ErrCheckpointCorrupt = errors.New("checkpoint corrupt")
	ErrVersionMismatch   = errors.New("record version mismatch")
	ErrNonFiniteScore    = errors.New("score is not finite")
)

// Snapshot is one persisted population frontier.
type Snapshot struct {
	model.VersionedRecord
	WriterID string        `json:"writer_id"`
	SavedAt  time.Time     `json:"saved_at"`
	Entries  []model.Entry `json:"entries"`
}

// CheckpointStore persists whole-population snapshots shared between engine
// processes. Save replaces the previous snapshot atomically; there is no
// locking, so concurrent writers may lose each other's updates.
type CheckpointStore interface {
	Init(ctx context.Context) error
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}

func NewSnapshot(writerID string, savedAt time.Time, entries []model.Entry) Snapshot {
	return Snapshot{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		WriterID:        writerID,
		SavedAt:         savedAt.UTC(),
		Entries:         entries,
	}
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := s
	out.Entries = make([]model.Entry, len(s.Entries))
	for i, entry := range s.Entries {
		out.Entries[i] = entry.Clone()
	}
	return out
}
