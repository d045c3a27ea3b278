// Package assign scores and mutates TA-to-section assignments. Rows of a
// solution are TAs, columns are lab sections.
package assign

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrShape = errors.New("assignment shape mismatch")

// Preference is a TA's stated willingness to support a section.
type Preference byte

const (
	Unwilling Preference = 'U'
	Willing   Preference = 'W'
	Preferred Preference = 'P'
)

type TA struct {
	ID          int
	Name        string
	MaxAssigned int
	Prefs       []Preference
}

type Section struct {
	ID      int
	Daytime string
	MinTA   int
	MaxTA   int
}

const (
	TAsFile      = "tas.csv"
	SectionsFile = "sections.csv"
)

// LoadDir reads tas.csv and sections.csv from dir.
func LoadDir(dir string) (*Problem, error) {
	tas, err := loadFile(filepath.Join(dir, TAsFile), LoadTAs)
	if err != nil {
		return nil, err
	}
	sections, err := loadFile(filepath.Join(dir, SectionsFile), LoadSections)
	if err != nil {
		return nil, err
	}
	return NewProblem(tas, sections)
}

func loadFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()

	out, err := parse(f)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// LoadTAs parses rows of ta_id,name,max_assigned followed by one U/W/P
// column per section.
func LoadTAs(r io.Reader) ([]TA, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty TA table")
	}
	header := records[0]
	if len(header) < 4 {
		return nil, fmt.Errorf("TA table needs id, name, max_assigned and at least one section column, got %d columns", len(header))
	}
	maxCol := columnIndex(header, "max_assigned")
	if maxCol < 0 {
		maxCol = 2
	}

	tas := make([]TA, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: ta id: %w", line, err)
		}
		maxAssigned, err := strconv.Atoi(strings.TrimSpace(rec[maxCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: max_assigned: %w", line, err)
		}
		prefs := make([]Preference, 0, len(rec)-3)
		for j, raw := range rec[3:] {
			p, err := parsePreference(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: section column %d: %w", line, j, err)
			}
			prefs = append(prefs, p)
		}
		tas = append(tas, TA{ID: id, Name: strings.TrimSpace(rec[1]), MaxAssigned: maxAssigned, Prefs: prefs})
	}
	return tas, nil
}

// LoadSections parses the section table. Only section, daytime, min_ta and
// max_ta are used.
func LoadSections(r io.Reader) ([]Section, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty section table")
	}
	header := records[0]
	idCol := columnIndex(header, "section")
	dayCol := columnIndex(header, "daytime")
	minCol := columnIndex(header, "min_ta")
	maxCol := columnIndex(header, "max_ta")
	if idCol < 0 || dayCol < 0 || minCol < 0 {
		return nil, errors.New("section table requires section, daytime and min_ta columns")
	}

	sections := make([]Section, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		id, err := strconv.Atoi(strings.TrimSpace(rec[idCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: section: %w", line, err)
		}
		minTA, err := strconv.Atoi(strings.TrimSpace(rec[minCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: min_ta: %w", line, err)
		}
		s := Section{ID: id, Daytime: strings.TrimSpace(rec[dayCol]), MinTA: minTA}
		if maxCol >= 0 {
			if s.MaxTA, err = strconv.Atoi(strings.TrimSpace(rec[maxCol])); err != nil {
				return nil, fmt.Errorf("line %d: max_ta: %w", line, err)
			}
		}
		sections = append(sections, s)
	}
	return sections, nil
}

func parsePreference(raw string) (Preference, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if len(v) == 1 {
		switch p := Preference(v[0]); p {
		case Unwilling, Willing, Preferred:
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown preference %q", raw)
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
