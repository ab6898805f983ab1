package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pdevulapally/fakeverifier-data/internal/cache"
	"github.com/pdevulapally/fakeverifier-data/internal/dataset"
	"github.com/pdevulapally/fakeverifier-data/internal/hub"
	"github.com/pdevulapally/fakeverifier-data/internal/liar"
	"github.com/pdevulapally/fakeverifier-data/internal/logger"
	"github.com/pdevulapally/fakeverifier-data/internal/model"
)

// Importer downloads the LIAR splits, converts them to claim records and
// uploads them to the configured dataset repository.
type Importer struct {
	config   *model.Config
	hub      Hub
	getter   liar.Getter
	cache    cache.Cache
	progress *Progress
}

// NewImporter creates an importer. A nil cache disables archive caching.
func NewImporter(cfg *model.Config, h Hub, getter liar.Getter, c cache.Cache, progress *Progress) *Importer {
	if c == nil {
		c = cache.Noop{}
	}
	if progress == nil {
		progress = NewProgress(nil)
	}
	return &Importer{config: cfg, hub: h, getter: getter, cache: c, progress: progress}
}

// Sources returns the ordered candidates for a split: the configured
// mirror URLs followed by the LIAR archive.
func (im *Importer) Sources(split model.Split) []liar.Source {
	var sources []liar.Source
	for _, u := range im.config.SplitURLs(split) {
		sources = append(sources, &liar.URLSource{URL: u, Getter: im.getter})
	}
	if im.config.LIAR.ArchiveURL != "" {
		sources = append(sources, &liar.ArchiveSource{
			URL:    im.config.LIAR.ArchiveURL,
			Getter: im.getter,
			Cache:  im.cache,
			TTL:    im.config.Cache.TTL,
		})
	}
	return sources
}

// Run converts every split and then uploads them
func (im *Importer) Run(ctx context.Context) ([]model.SplitArtifact, error) {
	im.progress.Step("Starting FakeVerifier LIAR dataset preparation...")

	artifacts, err := im.Convert(ctx)
	if err != nil {
		var fe *liar.FetchError
		if errors.As(err, &fe) {
			im.progress.Fail("Could not download the %s split; nothing was uploaded.", fe.Split)
		}
		return nil, err
	}
	if err := im.Publish(ctx, artifacts); err != nil {
		im.progress.Fail("Upload stopped: %v", err)
		return artifacts, err
	}

	im.progress.Blank()
	im.progress.Done("Done. %d splits ready for training.", len(artifacts))
	return artifacts, nil
}

// Convert fetches, projects and serializes each split in order. The first
// split whose sources are exhausted aborts the run.
func (im *Importer) Convert(ctx context.Context) ([]model.SplitArtifact, error) {
	log := logger.FromContext(ctx)
	artifacts := make([]model.SplitArtifact, 0, len(model.LIARSplits))

	for _, split := range model.LIARSplits {
		im.progress.Step("Downloading %s data...", split)

		fetched, err := liar.FetchSplit(ctx, split, im.Sources(split))
		if err != nil {
			return nil, err
		}
		if len(fetched.Failed) > 0 {
			im.progress.Warn("%s: %d source(s) failed, using %s", split, len(fetched.Failed), fetched.Source)
		}

		records := liar.Project(fetched.Records)
		path := filepath.Join(im.config.Output.Dir, "liar_"+split.String()+".jsonl")
		if err := dataset.WriteJSONL(path, records); err != nil {
			return nil, fmt.Errorf("write %s split: %w", split, err)
		}
		log.Debug("split converted", "split", split, "source", fetched.Source, "records", len(records), "path", path)

		artifacts = append(artifacts, model.SplitArtifact{Split: split, Path: path, Count: len(records)})
		im.progress.Done("%s saved as %s (%d samples)", split, path, len(records))
	}
	return artifacts, nil
}

// Publish creates the repository if needed and uploads each artifact as its
// own commit. Repository creation errors are reported and ignored; upload
// errors abort.
func (im *Importer) Publish(ctx context.Context, artifacts []model.SplitArtifact) error {
	log := logger.FromContext(ctx)
	repo := im.config.Hub.DatasetRepo

	im.progress.Blank()
	im.progress.Step("Uploading to dataset repo %s...", repo)

	err := im.hub.CreateRepo(ctx, repo, hub.RepoOptions{Private: true})
	switch {
	case err == nil:
		log.Info("created private dataset repo", "repo", repo)
	case hub.IsConflict(err):
		log.Debug("dataset repo exists", "repo", repo)
	default:
		log.Warn("create repo failed", "repo", repo, "err", err)
		im.progress.Warn("Repo already exists or cannot be created: %v", err)
	}

	for _, a := range artifacts {
		pathInRepo := "data/liar_" + a.Split.String() + ".jsonl"
		message := fmt.Sprintf("Auto-upload LIAR %s split (%d records)", a.Split, a.Count)

		info, err := im.hub.UploadFile(ctx, repo, a.Path, pathInRepo, message)
		if err != nil {
			return fmt.Errorf("upload %s split: %w", a.Split, err)
		}
		log.Debug("uploaded", "split", a.Split, "commit", info.OID)
		im.progress.Done("Uploaded %s → %s/%s", a.Split, repo, pathInRepo)
	}

	im.progress.Blank()
	im.progress.Done("All splits uploaded successfully!")
	im.progress.Line("View your dataset here: %s", im.config.DatasetURL(repo))
	return nil
}
