package evo

// SyncResult classifies one checkpoint synchronization.
type SyncResult string

const (
	SyncMerged     SyncResult = "merged"
	SyncLoadFailed SyncResult = "load_failed"
	SyncSaveFailed SyncResult = "save_failed"
)

// Observer receives engine events. Implementations must be cheap; they run
// inline with the evolution loop.
type Observer interface {
	AgentInvoked(agent string)
	Pruned(removed, size int)
	Synced(result SyncResult, merged int)
}

type noopObserver struct{}

func (noopObserver) AgentInvoked(string)    {}
func (noopObserver) Pruned(int, int)        {}
func (noopObserver) Synced(SyncResult, int) {}
