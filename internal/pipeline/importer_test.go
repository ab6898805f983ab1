package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdevulapally/fakeverifier-data/internal/dataset"
	"github.com/pdevulapally/fakeverifier-data/internal/hub"
	"github.com/pdevulapally/fakeverifier-data/internal/liar"
	"github.com/pdevulapally/fakeverifier-data/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liarTSV(rows int) []byte {
	var b strings.Builder
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "half-true\tStatement %d\teconomy\tspeaker-%d\tSenator\tOhio\trepublican\ta debate\n", i, i)
	}
	return []byte(b.String())
}

func TestImporter_CountsPerSplit(t *testing.T) {
	outDir := t.TempDir()
	cfg := testConfig(outDir)
	getter := &fakeGetter{bodies: map[string][]byte{
		cfg.LIAR.TrainURL: liarTSV(10),
		cfg.LIAR.ValidURL: {},
		cfg.LIAR.TestURL:  liarTSV(5),
	}}
	h := &fakeHub{}
	var out bytes.Buffer

	artifacts, err := NewImporter(cfg, h, getter, nil, NewProgress(&out)).Run(context.Background())
	require.NoError(t, err)

	want := map[model.Split]int{model.SplitTrain: 10, model.SplitValidation: 0, model.SplitTest: 5}
	require.Len(t, artifacts, 3)
	for i, split := range model.LIARSplits {
		a := artifacts[i]
		assert.Equal(t, split, a.Split)
		assert.Equal(t, want[split], a.Count)
		assert.Equal(t, filepath.Join(outDir, "liar_"+split.String()+".jsonl"), a.Path)

		lines, err := dataset.CountLines(a.Path)
		require.NoError(t, err)
		assert.Equal(t, want[split], lines, "split %s", split)
	}

	require.Len(t, h.created, 1)
	assert.True(t, h.created[0].Private)

	require.Len(t, h.uploads, 3)
	assert.Equal(t, "data/liar_train.jsonl", h.uploads[0].PathInRepo)
	assert.Equal(t, "Auto-upload LIAR train split (10 records)", h.uploads[0].Message)
	assert.Equal(t, "Auto-upload LIAR validation split (0 records)", h.uploads[1].Message)
	assert.Empty(t, h.uploads[1].Content)
	assert.Equal(t, "Auto-upload LIAR test split (5 records)", h.uploads[2].Message)

	first := bytes.SplitN(h.uploads[0].Content, []byte("\n"), 2)[0]
	var rec map[string]any
	require.NoError(t, json.Unmarshal(first, &rec))
	assert.Equal(t, map[string]any{
		"claim":   "Statement 0",
		"label":   "half-true",
		"source":  "speaker-0",
		"context": "a debate",
	}, rec)

	assert.Contains(t, out.String(), "train saved as")
	assert.Contains(t, out.String(), "(10 samples)")
	assert.Contains(t, out.String(), "https://huggingface.co/datasets/alice/liar")
	assert.NotContains(t, getter.calls, cfg.LIAR.ArchiveURL)
}

func TestImporter_AbortsBeforeUploadWhenSplitFails(t *testing.T) {
	cfg := testConfig(t.TempDir())
	getter := &fakeGetter{bodies: map[string][]byte{
		cfg.LIAR.TrainURL: liarTSV(3),
		cfg.LIAR.ValidURL: liarTSV(2),
	}}
	h := &fakeHub{}
	var out bytes.Buffer

	_, err := NewImporter(cfg, h, getter, nil, NewProgress(&out)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, out.String(), "✗ Could not download the test split; nothing was uploaded.")

	var fetchErr *liar.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, model.SplitTest, fetchErr.Split)
	assert.Len(t, fetchErr.Attempts, 2)
	assert.Contains(t, err.Error(), "test")

	assert.Empty(t, h.created)
	assert.Empty(t, h.uploads)
	assert.Equal(t, []string{cfg.LIAR.TrainURL, cfg.LIAR.ValidURL, cfg.LIAR.TestURL, cfg.LIAR.ArchiveURL}, getter.calls)
}

func TestImporter_RepoCreationErrorIsNotFatal(t *testing.T) {
	cfg := testConfig(t.TempDir())
	getter := &fakeGetter{bodies: map[string][]byte{
		cfg.LIAR.TrainURL: liarTSV(1),
		cfg.LIAR.ValidURL: liarTSV(1),
		cfg.LIAR.TestURL:  liarTSV(1),
	}}
	h := &fakeHub{createErr: &hub.APIError{Method: "POST", URL: "/api/repos/create", StatusCode: 409, Message: "already exists"}}
	var out bytes.Buffer

	_, err := NewImporter(cfg, h, getter, nil, NewProgress(&out)).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.uploads, 3)
}

func TestImporter_UploadErrorIsFatal(t *testing.T) {
	cfg := testConfig(t.TempDir())
	getter := &fakeGetter{bodies: map[string][]byte{
		cfg.LIAR.TrainURL: liarTSV(1),
		cfg.LIAR.ValidURL: liarTSV(1),
		cfg.LIAR.TestURL:  liarTSV(1),
	}}
	h := &fakeHub{uploadErr: map[string]error{
		"data/liar_validation.jsonl": &hub.APIError{Method: "POST", URL: "/commit", StatusCode: 403},
	}}
	var out bytes.Buffer

	_, err := NewImporter(cfg, h, getter, nil, NewProgress(&out)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload validation split")
	assert.Contains(t, out.String(), "✗ Upload stopped: upload validation split")
	assert.Len(t, h.uploads, 1)
}

func TestImporter_SourcesOrder(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.LIAR.ValidURL = ""
	im := NewImporter(cfg, &fakeHub{}, &fakeGetter{}, nil, nil)

	train := im.Sources(model.SplitTrain)
	require.Len(t, train, 2)
	assert.Equal(t, cfg.LIAR.TrainURL, train[0].Name())
	assert.Contains(t, train[1].Name(), cfg.LIAR.ArchiveURL)

	assert.Len(t, im.Sources(model.SplitValidation), 1)
}
