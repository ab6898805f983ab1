// Package liar converts the LIAR political-statement corpus into
// FakeVerifier training records.
package liar

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pdevulapally/fakeverifier-data/internal/model"
)

// maxLineBytes bounds a single TSV line
const maxLineBytes = 4 << 20

// Table is a headerless tab-separated table
type Table struct {
	Width   int
	Rows    [][]model.Field
	Skipped int // malformed lines dropped while parsing
}

// ParseTSV reads tab-separated values. Quote characters have no special
// meaning. Empty lines are skipped; a line of only tabs is a row of absent
// fields. The first non-empty line fixes the column count: longer lines are
// skipped as malformed, shorter lines are padded with absent fields. Empty
// cells are absent.
func ParseTSV(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	t := &Table{}
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		cells := strings.Split(line, "\t")
		if t.Width == 0 {
			t.Width = len(cells)
		}
		if len(cells) > t.Width {
			t.Skipped++
			continue
		}

		row := make([]model.Field, t.Width)
		for i, c := range cells {
			if c != "" {
				row[i] = model.PresentField(c)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tsv: %w", err)
	}
	return t, nil
}

// ParseTSVBytes parses an in-memory TSV payload
func ParseTSVBytes(b []byte) (*Table, error) {
	return ParseTSV(bytes.NewReader(b))
}
