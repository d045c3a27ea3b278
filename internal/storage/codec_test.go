package storage

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"paretoevo/internal/model"
)

func TestSnapshotRoundTrip(t *testing.T) {
	want := sampleSnapshot(t)
	data, err := EncodeSnapshot(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	for i := range want.Entries {
		if want.Entries[i].Evaluation.Key() != got.Entries[i].Evaluation.Key() {
			t.Fatalf("evaluation key changed for entry %d", i)
		}
	}
}

func TestDecodeSnapshotDetectsTampering(t *testing.T) {
	data, err := EncodeSnapshot(sampleSnapshot(t))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tampered := bytes.Replace(data, []byte(`"run-1"`), []byte(`"run-2"`), 1)
	if bytes.Equal(tampered, data) {
		t.Fatal("fixture did not change")
	}
	if _, err := DecodeSnapshot(tampered); !errors.Is(err, ErrCheckpointCorrupt) {
		t.Fatalf("expected ErrCheckpointCorrupt, got %v", err)
	}
	if _, err := DecodeSnapshot(data[:len(data)/2]); !errors.Is(err, ErrCheckpointCorrupt) {
		t.Fatalf("expected ErrCheckpointCorrupt for truncated data, got %v", err)
	}
}

func TestDecodeSnapshotVersionMismatch(t *testing.T) {
	snapshot := sampleSnapshot(t)
	snapshot.SchemaVersion = 99
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeSnapshot(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestDecodeSnapshotRejectsMalformedSolution(t *testing.T) {
	snapshot := sampleSnapshot(t)
	snapshot.Entries[0].Solution = model.Solution{Rows: 2, Cols: 2, Cells: []uint8{1}}
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeSnapshot(data); !errors.Is(err, ErrCheckpointCorrupt) {
		t.Fatalf("expected ErrCheckpointCorrupt, got %v", err)
	}
}

func TestEntryRoundTrip(t *testing.T) {
	want := sampleEntries(t)[0]
	data, err := EncodeEntry(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeEntry(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeRejectsNonFiniteScores(t *testing.T) {
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		snapshot := sampleSnapshot(t)
		snapshot.Entries[1].Evaluation[1].Value = v

		_, err := EncodeSnapshot(snapshot)
		if !errors.Is(err, ErrNonFiniteScore) {
			t.Fatalf("score %v: expected ErrNonFiniteScore, got %v", v, err)
		}
		if !strings.Contains(err.Error(), `"unwilling"`) {
			t.Fatalf("error does not name the objective: %v", err)
		}
		if _, err := EncodeEntry(snapshot.Entries[1]); !errors.Is(err, ErrNonFiniteScore) {
			t.Fatalf("score %v: expected ErrNonFiniteScore from entry encode, got %v", v, err)
		}
	}
}
