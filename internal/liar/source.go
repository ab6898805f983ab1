package liar

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/pdevulapally/fakeverifier-data/internal/cache"
	"github.com/pdevulapally/fakeverifier-data/internal/logger"
	"github.com/pdevulapally/fakeverifier-data/internal/model"
)

// Getter downloads the body of a URL
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Source yields the raw records of one split
type Source interface {
	Name() string
	Load(ctx context.Context, split model.Split) ([]model.RawRecord, error)
}

// URLSource is a mirror serving one split as a headerless TSV file
type URLSource struct {
	URL    string
	Getter Getter
}

// Name identifies the source in progress and error output
func (s *URLSource) Name() string {
	return s.URL
}

// Load downloads, parses and canonicalizes the mirror's table
func (s *URLSource) Load(ctx context.Context, split model.Split) ([]model.RawRecord, error) {
	body, err := s.Getter.Get(ctx, s.URL)
	if err != nil {
		return nil, err
	}

	table, err := ParseTSVBytes(body)
	if err != nil {
		return nil, err
	}
	if table.Skipped > 0 {
		logger.FromContext(ctx).Debug("skipped malformed lines", "split", split, "url", s.URL, "lines", table.Skipped)
	}

	return Canonicalize(table)
}

// archiveMembers maps splits to file names inside the LIAR archive
var archiveMembers = map[model.Split]string{
	model.SplitTrain:      "train.tsv",
	model.SplitValidation: "valid.tsv",
	model.SplitTest:       "test.tsv",
}

// ArchiveSource reads splits from the distributed LIAR zip archive. The
// archive is downloaded once and shared through the cache.
type ArchiveSource struct {
	URL    string
	Getter Getter
	Cache  cache.Cache
	TTL    time.Duration
}

// Name identifies the source in progress and error output
func (s *ArchiveSource) Name() string {
	return "liar archive " + s.URL
}

// Load extracts the split's member and re-projects it to the canonical fields
func (s *ArchiveSource) Load(ctx context.Context, split model.Split) ([]model.RawRecord, error) {
	member, ok := archiveMembers[split]
	if !ok {
		return nil, fmt.Errorf("archive has no %q split", split)
	}

	zr, err := s.archive(ctx)
	if err != nil {
		return nil, err
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || path.Base(f.Name) != member || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		table, err := readMember(f)
		if err != nil {
			return nil, err
		}
		if table.Skipped > 0 {
			logger.FromContext(ctx).Debug("skipped malformed lines", "split", split, "member", f.Name, "lines", table.Skipped)
		}
		return FromArchiveLayout(table)
	}

	return nil, fmt.Errorf("archive has no member %s", member)
}

// archive returns the opened zip. Only payloads that open as a zip are
// cached, and a cached payload that no longer opens is downloaded again.
func (s *ArchiveSource) archive(ctx context.Context) (*zip.Reader, error) {
	c := s.Cache
	if c == nil {
		c = cache.Noop{}
	}
	log := logger.FromContext(ctx)

	key := cache.Key(s.URL)
	if payload, ok := c.Get(key); ok {
		zr, err := openArchive(payload)
		if err == nil {
			log.Debug("archive cache hit", "url", s.URL)
			return zr, nil
		}
		log.Warn("discarding cached archive", "url", s.URL, "err", err)
	}

	payload, err := s.Getter.Get(ctx, s.URL)
	if err != nil {
		return nil, err
	}
	zr, err := openArchive(payload)
	if err != nil {
		return nil, err
	}
	if err := c.Set(key, payload, s.TTL); err != nil {
		log.Warn("could not cache archive", "url", s.URL, "err", err)
	}
	return zr, nil
}

func openArchive(payload []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return zr, nil
}

func readMember(f *zip.File) (*Table, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	table, err := ParseTSV(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return table, nil
}

// Attempt records one failed source
type Attempt struct {
	Source string
	Err    error
}

// FetchError is returned when every source of a split failed
type FetchError struct {
	Split    model.Split
	Attempts []Attempt
}

func (e *FetchError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("failed to download LIAR %s split: no sources configured", e.Split)
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("failed to download LIAR %s split from all %d sources. Last error: %s: %v",
		e.Split, len(e.Attempts), last.Source, last.Err)
}

// Unwrap exposes every attempt error
func (e *FetchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Fetched is the outcome of a successful FetchSplit
type Fetched struct {
	Records []model.RawRecord
	Source  string
	Failed  []Attempt // sources tried before the successful one
}

// FetchSplit tries sources strictly in order and returns the first success.
// There are no retries.
func FetchSplit(ctx context.Context, split model.Split, sources []Source) (*Fetched, error) {
	log := logger.FromContext(ctx)

	var attempts []Attempt
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Source: src.Name(), Err: err})
			break
		}

		records, err := src.Load(ctx, split)
		if err == nil {
			return &Fetched{Records: records, Source: src.Name(), Failed: attempts}, nil
		}
		log.Warn("source failed", "split", split, "source", src.Name(), "err", err)
		attempts = append(attempts, Attempt{Source: src.Name(), Err: err})
	}

	return nil, &FetchError{Split: split, Attempts: attempts}
}
