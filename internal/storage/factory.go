package storage

import "fmt"

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"

	DefaultCheckpointPath = "solutions.dat"
	DefaultSQLitePath     = "solutions.db"
)

func DefaultStoreKind() string {
	return KindFile
}

// DefaultPath returns the checkpoint location used when none is given. The
// file and sqlite backends use different names so one never opens the
// other's checkpoint.
func DefaultPath(kind string) string {
	switch kind {
	case KindSQLite:
		return DefaultSQLitePath
	case KindMemory:
		return ""
	default:
		return DefaultCheckpointPath
	}
}

func NewStore(kind, path string) (CheckpointStore, error) {
	if path == "" {
		path = DefaultPath(kind)
	}
	switch kind {
	case "", KindFile:
		return NewFileStore(path), nil
	case KindSQLite:
		return NewSQLiteStore(path), nil
	case KindMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store CheckpointStore) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
