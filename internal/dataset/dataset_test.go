package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdevulapally/fakeverifier-data/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRow_MarshalKeepsOrder(t *testing.T) {
	row := Row{
		{Name: "text", Value: "Says <taxes> & fees rose"},
		{Name: "label", Value: 1},
		{Name: "id", Value: json.Number("42")},
	}

	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"text":"Says <taxes> & fees rose","label":1,"id":42}`, string(b))
}

func TestRow_GetSet(t *testing.T) {
	row := Row{{Name: "label", Value: "true"}}

	row = row.Set("label", 1)
	row = row.Set("extra", "x")

	v, ok := row.Get("label")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Len(t, row, 2)

	_, ok = row.Get("missing")
	assert.False(t, ok)
}

func TestString(t *testing.T) {
	assert.Equal(t, "Mostly-True", String("Mostly-True"))
	assert.Equal(t, "1", String(json.Number("1")))
	assert.Equal(t, "1.0", String(json.Number("1.0")))
	assert.Equal(t, "3", String(3))
	assert.Equal(t, "true", String(true))
	assert.Equal(t, "", String(nil))
}

func TestWriteJSONL_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "converted", "liar_train.jsonl")
	records := []model.TargetRecord{
		{Claim: "Says the budget doubled.", Label: "half-true", Source: "jane-doe", Context: "a speech"},
		{Claim: "Ünïcode & <tags>", Label: "false", Source: "", Context: ""},
	}

	require.NoError(t, WriteJSONL(path, records))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, WriteJSONL(path, records))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second, "rewriting must replace, not append")

	lines := strings.Split(strings.TrimSuffix(string(first), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"claim":"Says the budget doubled.","label":"half-true","source":"jane-doe","context":"a speech"}`, lines[0])
	assert.Equal(t, `{"claim":"Ünïcode & <tags>","label":"false","source":"","context":""}`, lines[1])

	n, err := CountLines(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWriteJSONL_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liar_validation.jsonl")
	require.NoError(t, WriteJSONL(path, []model.TargetRecord{}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestFeatureSpec(t *testing.T) {
	spec, err := Feature{Name: "text", Type: FeatureType{Kind: KindValue, Dtype: "string"}}.Spec()
	require.NoError(t, err)
	assert.Equal(t, "string", spec.Dtype)

	spec, err = ClassLabel("label", []string{"fake", "true"}).Spec()
	require.NoError(t, err)
	out, err := yaml.Marshal(spec)
	require.NoError(t, err)
	assert.Contains(t, string(out), "class_label:")
	assert.Contains(t, string(out), `"0": fake`)
	assert.Contains(t, string(out), `"1": "true"`)

	spec, err = Feature{Name: "tags", Type: FeatureType{Kind: KindSequence, Feature: &FeatureType{Kind: KindValue, Dtype: "string"}}}.Spec()
	require.NoError(t, err)
	assert.Equal(t, "string", spec.Sequence)

	_, err = Feature{Name: "img", Type: FeatureType{Kind: "Image"}}.Spec()
	assert.Error(t, err)
}

func TestCard_PreservesBodyAndKeys(t *testing.T) {
	readme := "---\nlicense: mit\ndataset_info:\n  features:\n  - name: label\n    dtype: string\ntags:\n- misinformation\n---\n# FakeVerifier\n\nClaims and verdicts.\n"

	card, err := ParseCard([]byte(readme))
	require.NoError(t, err)
	assert.Equal(t, "# FakeVerifier\n\nClaims and verdicts.\n", card.Body)

	spec, err := ClassLabel("label", []string{"fake", "true"}).Spec()
	require.NoError(t, err)
	require.NoError(t, card.Set("dataset_info", DatasetInfo{
		Features: []FeatureSpec{spec},
		Splits:   []SplitInfo{{Name: "train", NumBytes: 10, NumExamples: 2}},
	}))
	require.NoError(t, card.Set("configs", []ConfigSpec{{
		ConfigName: "default",
		DataFiles:  []DataFileSpec{{Split: "train", Path: Patterns{"data/train.jsonl"}}},
	}}))

	out, err := card.Render()
	require.NoError(t, err)
	text := string(out)

	assert.True(t, strings.HasPrefix(text, "---\nlicense: mit\ndataset_info:\n"), text)
	assert.Less(t, strings.Index(text, "dataset_info:"), strings.Index(text, "tags:"))
	assert.Contains(t, text, "class_label:")
	assert.Contains(t, text, "config_name: default")
	assert.True(t, strings.HasSuffix(text, "---\n# FakeVerifier\n\nClaims and verdicts.\n"))

	reparsed, err := ParseCard(out)
	require.NoError(t, err)
	var tags []string
	found, err := reparsed.Get("tags", &tags)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"misinformation"}, tags)
}

func TestParseCard_Variants(t *testing.T) {
	card, err := ParseCard([]byte("# Just markdown\n"))
	require.NoError(t, err)
	assert.Equal(t, "# Just markdown\n", card.Body)

	card, err = ParseCard([]byte("---\n---\nbody"))
	require.NoError(t, err)
	assert.Equal(t, "body", card.Body)

	card, err = ParseCard([]byte("---\npretty_name: x\n---"))
	require.NoError(t, err)
	var name string
	found, err := card.Get("pretty_name", &name)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "x", name)

	_, err = ParseCard([]byte("---\nlicense: mit\n"))
	assert.Error(t, err)

	_, err = ParseCard([]byte("---\n- a\n- b\n---\n"))
	assert.Error(t, err)
}

func TestCard_RenderEmpty(t *testing.T) {
	card, err := ParseCard(nil)
	require.NoError(t, err)
	require.NoError(t, card.Set("pretty_name", "FakeVerifier"))

	out, err := card.Render()
	require.NoError(t, err)
	assert.Equal(t, "---\npretty_name: FakeVerifier\n---\n", string(out))
}

func TestCard_ConfigDataFilesForms(t *testing.T) {
	readme := `---
configs:
- config_name: default
  data_files: data/*.csv
- config_name: mapped
  data_files:
    train: data/mapped/train-*
    test:
    - data/mapped/test-a-*
    - data/mapped/test-b-*
- config_name: listed
  data_files:
  - split: validation
    path: data/listed/valid.jsonl
---
`
	card, err := ParseCard([]byte(readme))
	require.NoError(t, err)

	files, found, err := card.ConfigDataFiles("default")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, DataFiles{{Split: "train", Path: Patterns{"data/*.csv"}}}, files)

	files, found, err = card.ConfigDataFiles("mapped")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, DataFiles{
		{Split: "train", Path: Patterns{"data/mapped/train-*"}},
		{Split: "test", Path: Patterns{"data/mapped/test-a-*", "data/mapped/test-b-*"}},
	}, files)

	files, found, err = card.ConfigDataFiles("listed")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "validation", files[0].Split)

	_, found, err = card.ConfigDataFiles("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCard_SetConfigEntry(t *testing.T) {
	card, err := ParseCard([]byte("---\nconfigs:\n- config_name: extra\n  data_files: extra/*\n---\n"))
	require.NoError(t, err)

	require.NoError(t, card.SetConfigEntry("configs", "default", ConfigSpec{
		ConfigName: "default",
		DataFiles:  DataFiles{{Split: "train", Path: Patterns{"data/train.jsonl"}}},
	}))
	require.NoError(t, card.SetConfigEntry("configs", "default", ConfigSpec{
		ConfigName: "default",
		DataFiles:  DataFiles{{Split: "train", Path: Patterns{"data/train-v2.jsonl"}}},
	}))

	var configs []ConfigSpec
	found, err := card.Get("configs", &configs)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, configs, 2)
	assert.Equal(t, "extra", configs[0].ConfigName)
	assert.Equal(t, Patterns{"data/train-v2.jsonl"}, configs[1].DataFiles[0].Path)
}
