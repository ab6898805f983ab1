package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pdevulapally/fakeverifier-data/internal/dataset"
	"github.com/pdevulapally/fakeverifier-data/internal/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimTable(labelValues ...string) *hub.Table {
	t := &hub.Table{Features: []dataset.Feature{
		{Index: 0, Name: "claim", Type: dataset.FeatureType{Kind: dataset.KindValue, Dtype: "string"}},
		{Index: 1, Name: "label", Type: dataset.FeatureType{Kind: dataset.KindValue, Dtype: "string"}},
		{Index: 2, Name: "score", Type: dataset.FeatureType{Kind: dataset.KindValue, Dtype: "float64"}},
	}}
	for i, v := range labelValues {
		t.Rows = append(t.Rows, dataset.Row{
			{Name: "claim", Value: "claim <" + string(rune('a'+i)) + ">"},
			{Name: "label", Value: v},
			{Name: "score", Value: json.Number("0.25")},
		})
	}
	return t
}

func TestNormalizer_Run(t *testing.T) {
	cfg := testConfig(t.TempDir())
	rows := &fakeRows{
		refs: []hub.SplitRef{
			{Dataset: cfg.Labels.DatasetRepo, Config: "default", Split: "train"},
			{Dataset: cfg.Labels.DatasetRepo, Config: "default", Split: "test"},
		},
		tables: map[string]*hub.Table{
			"train": claimTable("TRUE", "mostly-true", "pants-fire", "half-true"),
			"test":  claimTable(" false ", "true"),
		},
	}
	h := &fakeHub{
		readme: []byte("---\nlicense: mit\n---\n# FakeVerifier\n"),
		files: []hub.TreeEntry{
			{Type: "file", Path: "data/train.jsonl"},
			{Type: "file", Path: "data/train-00000-of-00001.parquet"},
		},
	}
	var out bytes.Buffer

	result, err := NewNormalizer(cfg, h, rows, NewProgress(&out)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Splits, 2)
	assert.Equal(t, [2]int{2, 2}, result.Splits[0].Categories)
	assert.Equal(t, [2]int{1, 1}, result.Splits[1].Categories)
	assert.Equal(t, "default", result.Config)

	require.Len(t, h.commits, 1)
	commit := h.commits[0]
	paths := make([]string, 0, len(commit.Files))
	for _, f := range commit.Files {
		paths = append(paths, f.PathInRepo)
	}
	assert.Equal(t, []string{"data/train.jsonl", "data/test.jsonl", "README.md"}, paths)
	assert.Equal(t, []string{"data/train-00000-of-00001.parquet"}, commit.Deletes)

	train := strings.Split(strings.TrimSpace(string(commit.Files[0].Content)), "\n")
	require.Len(t, train, 4)
	assert.Equal(t, `{"claim":"claim <a>","label":1,"score":0.25}`, train[0])
	assert.Equal(t, `{"claim":"claim <c>","label":0,"score":0.25}`, train[2])

	card := string(commit.Files[2].Content)
	assert.Contains(t, card, "license: mit")
	assert.Contains(t, card, "class_label:")
	assert.Contains(t, card, "# FakeVerifier")

	assert.Equal(t, []bool{false}, h.settings, "dataset must be made public after the commit")
	assert.Contains(t, out.String(), "train: 4 records (2 fake, 2 true)")
}

func TestNormalizer_CastFailurePublishesNothing(t *testing.T) {
	cfg := testConfig(t.TempDir())
	noLabel := &hub.Table{
		Features: []dataset.Feature{{Name: "claim", Type: dataset.FeatureType{Kind: dataset.KindValue, Dtype: "string"}}},
		Rows:     []dataset.Row{{{Name: "claim", Value: "x"}}},
	}
	rows := &fakeRows{
		refs: []hub.SplitRef{
			{Config: "default", Split: "train"},
			{Config: "default", Split: "test"},
		},
		tables: map[string]*hub.Table{"train": claimTable("true"), "test": noLabel},
	}
	h := &fakeHub{}
	var out bytes.Buffer

	_, err := NewNormalizer(cfg, h, rows, NewProgress(&out)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label")
	assert.Contains(t, out.String(), "✗ Label fix failed:")
	assert.Empty(t, h.commits)
	assert.Empty(t, h.settings)
}

func TestNormalizer_NoReadme(t *testing.T) {
	cfg := testConfig(t.TempDir())
	rows := &fakeRows{
		refs:   []hub.SplitRef{{Config: "default", Split: "train"}},
		tables: map[string]*hub.Table{"train": claimTable("true")},
	}
	h := &fakeHub{}

	_, err := NewNormalizer(cfg, h, rows, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, h.commits, 1)

	card, err := dataset.ParseCard(h.commits[0].Files[1].Content)
	require.NoError(t, err)
	var configs []dataset.ConfigSpec
	ok, err := card.Get("configs", &configs)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "default", configs[0].ConfigName)
}

func TestNormalizer_LeavesOtherConfigsAlone(t *testing.T) {
	cfg := testConfig(t.TempDir())
	rows := &fakeRows{
		refs: []hub.SplitRef{
			{Config: "default", Split: "train"},
			{Config: "extra", Split: "train"},
		},
		tables: map[string]*hub.Table{"train": claimTable("true", "false")},
	}
	h := &fakeHub{
		readme: []byte(`---
configs:
- config_name: default
  data_files:
  - split: train
    path: data/train-*
- config_name: extra
  data_files:
  - split: train
    path: data/extra/train-*
---
`),
		files: []hub.TreeEntry{
			{Type: "file", Path: "data/train-00000-of-00001.parquet"},
			{Type: "file", Path: "data/extra/train-00000-of-00001.parquet"},
			{Type: "file", Path: "data/NOTICE.txt"},
		},
	}

	_, err := NewNormalizer(cfg, h, rows, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, h.commits, 1)
	commit := h.commits[0]

	assert.Equal(t, []string{"data/train-00000-of-00001.parquet"}, commit.Deletes)

	card, err := dataset.ParseCard(commit.Files[len(commit.Files)-1].Content)
	require.NoError(t, err)
	var configs []dataset.ConfigSpec
	ok, err := card.Get("configs", &configs)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, configs, 2)
	assert.Equal(t, dataset.Patterns{"data/train.jsonl"}, configs[0].DataFiles[0].Path)
	assert.Equal(t, dataset.Patterns{"data/extra/train-*"}, configs[1].DataFiles[0].Path)
}
