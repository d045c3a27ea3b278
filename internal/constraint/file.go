// Package constraint loads per-objective maximum scores.
package constraint

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"paretoevo/internal/evo"
)

// File reads constraints from a JSON or YAML document mapping objective
// names to maximum scores. The file is read in full on every Load so edits
// take effect at the next pruning pass.
type File struct {
	Path string
}

func (f File) Load() (evo.Constraints, error) {
	if f.Path == "" {
		return nil, errors.New("constraint file path is required")
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a constraint document. An empty document means no limits.
func Parse(data []byte) (evo.Constraints, error) {
	var raw map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse constraints: %w", err)
	}
	out := make(evo.Constraints, len(raw))
	for name, limit := range raw {
		out[name] = limit
	}
	return out, nil
}

// Validate reports constraint names that do not match any registered
// objective. Unknown names never affect feasibility but usually signal a typo.
func Validate(c evo.Constraints, objectives []string) []string {
	known := make(map[string]struct{}, len(objectives))
	for _, name := range objectives {
		known[name] = struct{}{}
	}
	var unknown []string
	for name := range c {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}
