package storage

import (
	"context"
	"time"

	"paretoevo/internal/model"
)

// Checkpointer adapts a CheckpointStore to the engine's entry-level
// checkpoint contract and stamps every save with the writing run.
type Checkpointer struct {
	Store    CheckpointStore
	WriterID string
	Now      func() time.Time
}

func (c *Checkpointer) LoadEntries(ctx context.Context) ([]model.Entry, error) {
	snapshot, err := c.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Entries, nil
}

func (c *Checkpointer) SaveEntries(ctx context.Context, entries []model.Entry) error {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return c.Store.Save(ctx, NewSnapshot(c.WriterID, now(), entries))
}
