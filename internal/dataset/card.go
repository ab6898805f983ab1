package dataset

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Card is a dataset README: YAML front matter followed by a markdown body
type Card struct {
	meta *yaml.Node
	Body string
}

// DatasetInfo is the dataset_info block of the card. A card with several
// configs lists one DatasetInfo per config.
type DatasetInfo struct {
	ConfigName string        `yaml:"config_name,omitempty"`
	Features   []FeatureSpec `yaml:"features"`
	Splits     []SplitInfo   `yaml:"splits"`
}

// SplitInfo describes one split of a published config
type SplitInfo struct {
	Name        string `yaml:"name"`
	NumBytes    int64  `yaml:"num_bytes"`
	NumExamples int    `yaml:"num_examples"`
}

// ConfigSpec maps the splits of a config to data files
type ConfigSpec struct {
	ConfigName string    `yaml:"config_name"`
	DataFiles  DataFiles `yaml:"data_files"`
}

// DataFileSpec maps one split to paths or glob patterns in the repository
type DataFileSpec struct {
	Split string   `yaml:"split"`
	Path  Patterns `yaml:"path"`
}

// DataFiles is a config's data_files. Cards may write a single pattern, a
// list of patterns, a split to patterns mapping or a list of split entries.
// Bare patterns belong to the train split.
type DataFiles []DataFileSpec

// UnmarshalYAML accepts every data_files form
func (d *DataFiles) UnmarshalYAML(value *yaml.Node) error {
	var out DataFiles
	switch value.Kind {
	case yaml.ScalarNode:
		out = DataFiles{{Split: "train", Path: Patterns{value.Value}}}
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			var p Patterns
			if err := value.Content[i+1].Decode(&p); err != nil {
				return err
			}
			out = append(out, DataFileSpec{Split: value.Content[i].Value, Path: p})
		}
	case yaml.SequenceNode:
		for _, n := range value.Content {
			if n.Kind == yaml.ScalarNode {
				out = append(out, DataFileSpec{Split: "train", Path: Patterns{n.Value}})
				continue
			}
			var spec DataFileSpec
			if err := n.Decode(&spec); err != nil {
				return err
			}
			out = append(out, spec)
		}
	default:
		return fmt.Errorf("data_files: unsupported yaml node at line %d", value.Line)
	}
	*d = out
	return nil
}

// Patterns is a data_files path: a single pattern or a list of them
type Patterns []string

// UnmarshalYAML accepts a scalar or a sequence
func (p *Patterns) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*p = Patterns{value.Value}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*p = list
	return nil
}

// MarshalYAML writes a single pattern as a scalar
func (p Patterns) MarshalYAML() (any, error) {
	if len(p) == 1 {
		return p[0], nil
	}
	return []string(p), nil
}

// DefaultConfigName is the config a card entry without config_name belongs to
const DefaultConfigName = "default"

const frontMatterDelim = "---"

// ParseCard parses a README. Content without front matter becomes the body.
func ParseCard(content []byte) (*Card, error) {
	card := &Card{meta: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if !strings.HasPrefix(text, frontMatterDelim+"\n") {
		card.Body = text
		return card, nil
	}

	rest := text[len(frontMatterDelim)+1:]
	var header, body string
	switch {
	case strings.HasPrefix(rest, frontMatterDelim+"\n"):
		body = rest[len(frontMatterDelim)+1:]
	case rest == frontMatterDelim:
	default:
		end := strings.Index(rest, "\n"+frontMatterDelim+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+frontMatterDelim) {
				return nil, fmt.Errorf("parse card: unterminated front matter")
			}
			end = len(rest) - len(frontMatterDelim) - 1
			header = rest[:end]
		} else {
			header = rest[:end]
			body = rest[end+len(frontMatterDelim)+2:]
		}
	}
	card.Body = body

	if strings.TrimSpace(header) == "" {
		return card, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return nil, fmt.Errorf("parse card front matter: %w", err)
	}
	if len(doc.Content) == 0 {
		return card, nil
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse card front matter: expected a mapping")
	}
	card.meta = doc.Content[0]
	return card, nil
}

// Set replaces a top-level front matter key, keeping the position of
// existing keys.
func (c *Card) Set(key string, value any) error {
	var node yaml.Node
	if err := node.Encode(value); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.setNode(key, &node)
}

// SetConfigEntry stores value as the entry for config name under key.
// Entries of other configs are kept. A key holding a single mapping is
// treated as a one-entry list, so adding a second config turns it into one.
func (c *Card) SetConfigEntry(key, name string, value any) error {
	var entry yaml.Node
	if err := entry.Encode(value); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	var existing *yaml.Node
	for i := 0; i+1 < len(c.meta.Content); i += 2 {
		if c.meta.Content[i].Value == key {
			existing = c.meta.Content[i+1]
			break
		}
	}

	var entries []*yaml.Node
	switch {
	case existing == nil:
	case existing.Kind == yaml.SequenceNode:
		entries = existing.Content
	case existing.Kind == yaml.MappingNode:
		entries = []*yaml.Node{existing}
	}

	replaced := false
	for i, e := range entries {
		if entryConfigName(e) == name {
			entries[i] = &entry
			replaced = true
		}
	}
	if !replaced {
		entries = append(entries, &entry)
	}

	// A lone default entry keeps the single-config mapping form
	if existing != nil && existing.Kind == yaml.MappingNode && len(entries) == 1 {
		return c.setNode(key, &entry)
	}
	return c.setNode(key, &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: entries})
}

func entryConfigName(n *yaml.Node) string {
	if n.Kind != yaml.MappingNode {
		return ""
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == "config_name" {
			return n.Content[i+1].Value
		}
	}
	return DefaultConfigName
}

// ConfigDataFiles returns the data_files the card declares for a config
func (c *Card) ConfigDataFiles(name string) (DataFiles, bool, error) {
	var configs []ConfigSpec
	found, err := c.Get("configs", &configs)
	if err != nil || !found {
		return nil, false, err
	}
	for _, cfg := range configs {
		if cfg.ConfigName == name || (cfg.ConfigName == "" && name == DefaultConfigName) {
			return cfg.DataFiles, true, nil
		}
	}
	return nil, false, nil
}

func (c *Card) setNode(key string, node *yaml.Node) error {
	for i := 0; i+1 < len(c.meta.Content); i += 2 {
		if c.meta.Content[i].Value == key {
			c.meta.Content[i+1] = node
			return nil
		}
	}
	c.meta.Content = append(c.meta.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		node,
	)
	return nil
}

// Get decodes a top-level front matter key into out
func (c *Card) Get(key string, out any) (bool, error) {
	for i := 0; i+1 < len(c.meta.Content); i += 2 {
		if c.meta.Content[i].Value == key {
			return true, c.meta.Content[i+1].Decode(out)
		}
	}
	return false, nil
}

// Render serializes the card
func (c *Card) Render() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim + "\n")
	if len(c.meta.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c.meta); err != nil {
			return nil, fmt.Errorf("render card front matter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("render card front matter: %w", err)
		}
	}
	buf.WriteString(frontMatterDelim + "\n")
	buf.WriteString(c.Body)
	return buf.Bytes(), nil
}
