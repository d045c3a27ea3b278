package storage

import (
	"testing"
	"time"

	"paretoevo/internal/model"
)

func sampleEntries(t *testing.T) []model.Entry {
	t.Helper()
	a, err := model.FromRows([][]int{{1, 0, 1}, {0, 1, 0}})
	if err != nil {
		t.Fatalf("from rows: %v", err)
	}
	b := model.Ones(2, 3)
	return []model.Entry{
		{
			Evaluation: model.Evaluation{{Name: "overallocation", Value: 1}, {Name: "unwilling", Value: 0.1}},
			Solution:   a,
		},
		{
			Evaluation: model.Evaluation{{Name: "overallocation", Value: 0}, {Name: "unwilling", Value: 6}},
			Solution:   b,
		},
	}
}

func sampleSnapshot(t *testing.T) Snapshot {
	t.Helper()
	return NewSnapshot("run-1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), sampleEntries(t))
}
