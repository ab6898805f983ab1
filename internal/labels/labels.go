// Package labels maps free-form label strings onto the binary fake/true
// categories and casts the label column to a class label.
package labels

import (
	"fmt"
	"strings"

	"github.com/pdevulapally/fakeverifier-data/internal/dataset"
)

// Column is the name of the label column
const Column = "label"

// Categories
const (
	Fake = 0
	True = 1
)

// DefaultNames are the category names, indexed by category
var DefaultNames = []string{"fake", "true"}

var positive = map[string]bool{
	"true":        true,
	"mostly-true": true,
}

// Map returns True for "true" and "mostly-true", ignoring case and
// surrounding whitespace, and Fake for anything else.
func Map(v any) int {
	if positive[strings.ToLower(strings.TrimSpace(dataset.String(v)))] {
		return True
	}
	return Fake
}

// Split is one split of the dataset being normalized
type Split struct {
	Name     string
	Features []dataset.Feature
	Rows     []dataset.Row
}

// Stats counts the outcome of normalizing one split
type Stats struct {
	Split   string
	Records int
	// Categories counts records per output category
	Categories [2]int
	// Raw counts records per trimmed, lower-cased input value
	Raw map[string]int
}

// Normalize maps every label of s in place and casts the label feature to
// a class label with the given names. Record order and count are kept.
func Normalize(s *Split, names []string) (Stats, error) {
	stats := Stats{Split: s.Name, Raw: make(map[string]int)}
	if len(names) != 2 {
		return stats, fmt.Errorf("cast %s: need exactly 2 category names, got %d", s.Name, len(names))
	}

	idx := -1
	for i, f := range s.Features {
		if f.Name == Column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return stats, fmt.Errorf("cast %s: column %q not found", s.Name, Column)
	}

	cast := append([]dataset.Feature(nil), s.Features...)
	cast[idx] = dataset.ClassLabel(Column, names)
	cast[idx].Index = s.Features[idx].Index
	for _, f := range cast {
		if _, err := f.Spec(); err != nil {
			return stats, fmt.Errorf("cast %s: %w", s.Name, err)
		}
	}

	for i, row := range s.Rows {
		v, _ := row.Get(Column)
		category := Map(v)
		s.Rows[i] = row.Set(Column, category)

		stats.Records++
		stats.Categories[category]++
		stats.Raw[strings.ToLower(strings.TrimSpace(dataset.String(v)))]++
	}
	s.Features = cast
	return stats, nil
}
