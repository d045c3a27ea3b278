package model

import (
	"strconv"
	"strings"
)

// Score is one objective's value for a solution.
type Score struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Evaluation is the ordered list of objective scores for a solution, in
// objective registration order. Two evaluations with the same Key are the
// same population slot.
type Evaluation []Score

// Key returns a canonical string for use as a map key. Floats are formatted
// with the shortest representation that round-trips exactly.
func (e Evaluation) Key() string {
	var b strings.Builder
	for i, s := range e {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Quote(s.Name))
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(s.Value, 'g', -1, 64))
	}
	return b.String()
}

func (e Evaluation) Values() []float64 {
	out := make([]float64, len(e))
	for i, s := range e {
		out[i] = s.Value
	}
	return out
}

func (e Evaluation) Names() []string {
	out := make([]string, len(e))
	for i, s := range e {
		out[i] = s.Name
	}
	return out
}

func (e Evaluation) Lookup(name string) (float64, bool) {
	for _, s := range e {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

func (e Evaluation) Clone() Evaluation {
	return append(Evaluation(nil), e...)
}

// String renders the evaluation as {name: value, ...}.
func (e Evaluation) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, s := range e {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.Name)
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(s.Value, 'g', -1, 64))
	}
	b.WriteByte('}')
	return b.String()
}
