package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"paretoevo/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

type envelope struct {
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

// EncodeSnapshot serializes a snapshot with a SHA-256 checksum over its
// payload so torn or hand-edited files are detected on load.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	for i, entry := range s.Entries {
		if err := checkEntry(entry); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return json.Marshal(envelope{Checksum: checksum(payload), Payload: payload})
}

func DecodeSnapshot(data []byte) (Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCheckpointCorrupt, err)
	}
	if env.Checksum == "" || env.Checksum != checksum(env.Payload) {
		return Snapshot{}, fmt.Errorf("%w: checksum mismatch", ErrCheckpointCorrupt)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(env.Payload, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCheckpointCorrupt, err)
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return Snapshot{}, err
	}
	for i, entry := range snapshot.Entries {
		if err := checkEntry(entry); err != nil {
			return Snapshot{}, fmt.Errorf("%w: entry %d: %v", ErrCheckpointCorrupt, i, err)
		}
	}
	return snapshot, nil
}

// EncodeEntry and DecodeEntry serialize a single row for table-backed stores.
func EncodeEntry(e model.Entry) ([]byte, error) {
	if err := checkEntry(e); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

func DecodeEntry(data []byte) (model.Entry, error) {
	var entry model.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return model.Entry{}, fmt.Errorf("%w: %v", ErrCheckpointCorrupt, err)
	}
	if err := checkEntry(entry); err != nil {
		return model.Entry{}, fmt.Errorf("%w: %v", ErrCheckpointCorrupt, err)
	}
	return entry, nil
}

func checkEntry(e model.Entry) error {
	if len(e.Evaluation) == 0 {
		return fmt.Errorf("empty evaluation")
	}
	for _, s := range e.Evaluation {
		if math.IsInf(s.Value, 0) || math.IsNaN(s.Value) {
			return fmt.Errorf("%w: objective %q scored %v", ErrNonFiniteScore, s.Name, s.Value)
		}
	}
	return e.Solution.Validate()
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}

func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
