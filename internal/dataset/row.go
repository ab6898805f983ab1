// Package dataset holds the on-disk and on-hub shapes shared by both
// pipelines: ordered rows, JSON Lines files and the dataset card.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// Cell is one named value of a row
type Cell struct {
	Name  string
	Value any
}

// Row is a record whose columns keep their feature order when encoded
type Row []Cell

// Get returns the value of the named column
func (r Row) Get(name string) (any, bool) {
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of the named column, appending it if absent
func (r Row) Set(name string, value any) Row {
	for i := range r {
		if r[i].Name == name {
			r[i].Value = value
			return r
		}
	}
	return append(r, Cell{Name: name, Value: value})
}

// MarshalJSON encodes the row as an object in column order
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", c.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalNoEscape(c.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", c.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders a cell value the way the source dataset tooling prints it:
// strings as-is, numbers in their decoded textual form, booleans as
// true/false and null as "".
func String(v any) string {
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	return cast.ToString(v)
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
