// Package pipeline runs the two dataset pipelines: the LIAR importer and
// the label normalizer.
package pipeline

import (
	"context"

	"github.com/pdevulapally/fakeverifier-data/internal/hub"
)

// Hub is the part of the hub API the pipelines call
type Hub interface {
	CreateRepo(ctx context.Context, repoID string, opts hub.RepoOptions) error
	UpdateSettings(ctx context.Context, repoID string, private bool) error
	ListFiles(ctx context.Context, repoID, dir string) ([]hub.TreeEntry, error)
	Download(ctx context.Context, repoID, path string) ([]byte, error)
	Commit(ctx context.Context, repoID string, commit hub.Commit) (*hub.CommitInfo, error)
	UploadFile(ctx context.Context, repoID, localPath, pathInRepo, message string) (*hub.CommitInfo, error)
}

// Rows reads dataset contents
type Rows interface {
	Splits(ctx context.Context, repoID string) ([]hub.SplitRef, error)
	Rows(ctx context.Context, ref hub.SplitRef) (*hub.Table, error)
}

var (
	_ Hub  = (*hub.Client)(nil)
	_ Rows = (*hub.RowsClient)(nil)
)
