package task

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Placement is one proposed sensor location, in raw coordinates, together
// with the placement iteration that proposed it.
type Placement struct {
	Iteration int     `yaml:"iteration"`
	X1        float64 `yaml:"x1"`
	X2        float64 `yaml:"x2"`
}

// Placements is the table of proposed sensor locations indexed by
// iteration.
type Placements struct {
	X1Name string      `yaml:"x1_name"`
	X2Name string      `yaml:"x2_name"`
	Rows   []Placement `yaml:"rows"`
}

// UpTo returns the rows proposed at or before iteration, in table order.
func (p *Placements) UpTo(iteration int) []Placement {
	if p == nil {
		return nil
	}
	out := make([]Placement, 0, len(p.Rows))
	for _, r := range p.Rows {
		if r.Iteration <= iteration {
			out = append(out, r)
		}
	}
	return out
}

// Iterations lists the distinct iteration labels in ascending order.
func (p *Placements) Iterations() []int {
	if p == nil {
		return nil
	}
	seen := make(map[int]bool)
	var out []int
	for _, r := range p.Rows {
		if !seen[r.Iteration] {
			seen[r.Iteration] = true
			out = append(out, r.Iteration)
		}
	}
	sort.Ints(out)
	return out
}

// LoadPlacementsCSV reads a placement table. The header must contain an
// "iteration" column and the two raw coordinate columns x1Name and x2Name
// (matched case-insensitively); other columns are ignored.
func LoadPlacementsCSV(path, x1Name, x2Name string) (*Placements, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open placements CSV %s: %w", path, err)
	}
	defer file.Close()
	return ReadPlacementsCSV(file, x1Name, x2Name)
}

// ReadPlacementsCSV is LoadPlacementsCSV on an open reader.
func ReadPlacementsCSV(r io.Reader, x1Name, x2Name string) (*Placements, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}
	required := []string{"iteration", strings.ToLower(x1Name), strings.ToLower(x2Name)}
	for _, col := range required {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("required column %q not found in CSV", col)
		}
	}
	iterCol, x1Col, x2Col := colIndex[required[0]], colIndex[required[1]], colIndex[required[2]]

	p := &Placements{X1Name: x1Name, X2Name: x2Name}
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		iter, err := strconv.Atoi(strings.TrimSpace(rec[iterCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: iteration: %w", line, err)
		}
		x1, err := parseFloat64(rec[x1Col])
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, x1Name, err)
		}
		x2, err := parseFloat64(rec[x2Col])
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, x2Name, err)
		}
		p.Rows = append(p.Rows, Placement{Iteration: iter, X1: x1, X2: x2})
	}
	return p, nil
}

func parseFloat64(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	return strconv.ParseFloat(s, 64)
}
