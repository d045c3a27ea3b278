package model

// Entry pairs a solution with the evaluation it produced when it was scored.
type Entry struct {
	Evaluation Evaluation `json:"evaluation"`
	Solution   Solution   `json:"solution"`
}

func (e Entry) Clone() Entry {
	return Entry{Evaluation: e.Evaluation.Clone(), Solution: e.Solution.Clone()}
}
