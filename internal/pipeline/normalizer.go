package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/pdevulapally/fakeverifier-data/internal/dataset"
	"github.com/pdevulapally/fakeverifier-data/internal/hub"
	"github.com/pdevulapally/fakeverifier-data/internal/labels"
	"github.com/pdevulapally/fakeverifier-data/internal/logger"
	"github.com/pdevulapally/fakeverifier-data/internal/model"
)

const readmePath = "README.md"

// Normalizer rewrites a hub dataset's labels as fake/true class labels
// and publishes it publicly.
type Normalizer struct {
	config   *model.Config
	hub      Hub
	rows     Rows
	progress *Progress
}

// NormalizeResult summarizes a normalizer run
type NormalizeResult struct {
	Config string
	Splits []labels.Stats
	Commit *hub.CommitInfo
}

// NewNormalizer creates a normalizer
func NewNormalizer(cfg *model.Config, h Hub, rows Rows, progress *Progress) *Normalizer {
	if progress == nil {
		progress = NewProgress(nil)
	}
	return &Normalizer{config: cfg, hub: h, rows: rows, progress: progress}
}

// Run loads, maps, casts and publishes the dataset. Nothing is written to
// the hub unless every split maps and casts cleanly.
func (n *Normalizer) Run(ctx context.Context) (*NormalizeResult, error) {
	result, err := n.run(ctx)
	if err != nil {
		n.progress.Fail("Label fix failed: %v", err)
		return nil, err
	}
	return result, nil
}

func (n *Normalizer) run(ctx context.Context) (*NormalizeResult, error) {
	repo := n.config.Labels.DatasetRepo
	names := n.config.Labels.Names

	n.progress.Step("Loading dataset %s from the hub...", repo)
	configName, splits, err := n.load(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	n.progress.Step("Mapping labels and casting %q to ClassLabel %v...", labels.Column, names)
	result := &NormalizeResult{Config: configName}
	for _, s := range splits {
		stats, err := labels.Normalize(s, names)
		if err != nil {
			return nil, err
		}
		result.Splits = append(result.Splits, stats)
		n.progress.Done("%s: %d records (%d %s, %d %s)", s.Name, stats.Records,
			stats.Categories[labels.Fake], names[labels.Fake],
			stats.Categories[labels.True], names[labels.True])
	}
	for _, s := range splits[1:] {
		if !reflect.DeepEqual(s.Features, splits[0].Features) {
			return nil, fmt.Errorf("cast: split %s has different features than %s", s.Name, splits[0].Name)
		}
	}

	commit, err := n.buildCommit(ctx, repo, configName, splits)
	if err != nil {
		return nil, err
	}

	n.progress.Step("Pushing fixed dataset to the hub...")
	info, err := n.hub.Commit(ctx, repo, *commit)
	if err != nil {
		return nil, fmt.Errorf("push dataset: %w", err)
	}
	result.Commit = info

	if err := n.hub.UpdateSettings(ctx, repo, false); err != nil {
		return nil, fmt.Errorf("make dataset public: %w", err)
	}

	n.progress.Done("Dataset fixed and re-uploaded successfully!")
	n.progress.Line("View your dataset here: %s", n.config.DatasetURL(repo))
	return result, nil
}

// load reads every split of the dataset's first config
func (n *Normalizer) load(ctx context.Context, repo string) (string, []*labels.Split, error) {
	refs, err := n.rows.Splits(ctx, repo)
	if err != nil {
		return "", nil, err
	}
	if len(refs) == 0 {
		return "", nil, fmt.Errorf("dataset %s has no splits", repo)
	}

	configName := refs[0].Config
	var splits []*labels.Split
	for _, ref := range refs {
		if ref.Config != configName {
			logger.FromContext(ctx).Warn("ignoring split of another config", "config", ref.Config, "split", ref.Split)
			continue
		}
		table, err := n.rows.Rows(ctx, ref)
		if err != nil {
			return "", nil, err
		}
		for _, f := range table.Features {
			if f.Name == labels.Column && f.Type.Kind == dataset.KindClassLabel {
				logger.FromContext(ctx).Warn("label is already a class label; integer values map to the first category",
					"split", ref.Split)
			}
		}
		splits = append(splits, &labels.Split{Name: ref.Split, Features: table.Features, Rows: table.Rows})
		n.progress.Done("Loaded %s (%d records)", ref.Split, len(table.Rows))
	}
	return configName, splits, nil
}

// buildCommit serializes the splits, updates the dataset card and removes
// the files the config referenced before that the new layout drops.
func (n *Normalizer) buildCommit(ctx context.Context, repo, configName string, splits []*labels.Split) (*hub.Commit, error) {
	commit := &hub.Commit{
		Summary:     "Normalize labels to binary class labels",
		Description: fmt.Sprintf("Map label to %v (true and mostly-true are positive).", n.config.Labels.Names),
	}

	keep := map[string]bool{readmePath: true}
	files := make([]labels.SplitFile, 0, len(splits))
	for _, s := range splits {
		content, err := dataset.MarshalJSONL(s.Rows)
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", s.Name, err)
		}
		path := labels.DataPath(s.Name)
		keep[path] = true
		commit.Files = append(commit.Files, hub.CommitFile{PathInRepo: path, Content: content})
		files = append(files, labels.SplitFile{Split: s.Name, Path: path, Records: len(s.Rows), Bytes: int64(len(content))})
	}

	readme, err := n.hub.Download(ctx, repo, readmePath)
	if err != nil && !errors.Is(err, hub.ErrNotFound) {
		return nil, fmt.Errorf("read dataset card: %w", err)
	}
	card, err := labels.UpdateCard(readme, configName, splits[0].Features, files)
	if err != nil {
		return nil, err
	}
	commit.Files = append(commit.Files, hub.CommitFile{PathInRepo: readmePath, Content: card.Content})

	existing, err := n.hub.ListFiles(ctx, repo, labels.DataDir)
	if err != nil {
		return nil, fmt.Errorf("list data files: %w", err)
	}
	for _, f := range existing {
		if !keep[f.Path] && card.Stale(f.Path) {
			commit.Deletes = append(commit.Deletes, f.Path)
		}
	}
	logger.FromContext(ctx).Debug("commit prepared", "repo", repo, "files", len(commit.Files), "deletes", len(commit.Deletes))
	return commit, nil
}
