package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/pdevulapally/fakeverifier-data/internal/hub"
	"github.com/pdevulapally/fakeverifier-data/internal/model"
)

type upload struct {
	Repo       string
	PathInRepo string
	Message    string
	Content    []byte
}

// fakeHub records hub calls in memory
type fakeHub struct {
	mu sync.Mutex

	createErr error
	uploadErr map[string]error
	readme    []byte
	files     []hub.TreeEntry

	created  []hub.RepoOptions
	uploads  []upload
	commits  []hub.Commit
	settings []bool
}

func (f *fakeHub) CreateRepo(_ context.Context, _ string, opts hub.RepoOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, opts)
	return f.createErr
}

func (f *fakeHub) UpdateSettings(_ context.Context, _ string, private bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = append(f.settings, private)
	return nil
}

func (f *fakeHub) ListFiles(context.Context, string, string) ([]hub.TreeEntry, error) {
	return f.files, nil
}

func (f *fakeHub) Download(_ context.Context, repo, path string) ([]byte, error) {
	if f.readme == nil {
		return nil, &hub.APIError{Method: "GET", URL: repo + "/" + path, StatusCode: 404}
	}
	return f.readme, nil
}

func (f *fakeHub) Commit(_ context.Context, _ string, commit hub.Commit) (*hub.CommitInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, commit)
	return &hub.CommitInfo{OID: fmt.Sprintf("commit-%d", len(f.commits))}, nil
}

func (f *fakeHub) UploadFile(_ context.Context, repo, localPath, pathInRepo, message string) (*hub.CommitInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.uploadErr[pathInRepo]; err != nil {
		return nil, err
	}
	content, err := os.ReadFile(localPath)
	if err != nil {
		return nil, err
	}
	f.uploads = append(f.uploads, upload{Repo: repo, PathInRepo: pathInRepo, Message: message, Content: content})
	return &hub.CommitInfo{OID: fmt.Sprintf("upload-%d", len(f.uploads))}, nil
}

// fakeGetter serves canned bodies by URL
type fakeGetter struct {
	mu     sync.Mutex
	bodies map[string][]byte
	calls  []string
}

func (g *fakeGetter) Get(_ context.Context, rawURL string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, rawURL)
	body, ok := g.bodies[rawURL]
	if !ok {
		return nil, fmt.Errorf("unexpected status: 404 404 Not Found")
	}
	return body, nil
}

// fakeRows serves in-memory splits
type fakeRows struct {
	refs   []hub.SplitRef
	tables map[string]*hub.Table
}

func (r *fakeRows) Splits(context.Context, string) ([]hub.SplitRef, error) {
	return r.refs, nil
}

func (r *fakeRows) Rows(_ context.Context, ref hub.SplitRef) (*hub.Table, error) {
	t, ok := r.tables[ref.Split]
	if !ok {
		return nil, fmt.Errorf("no split %s", ref.Split)
	}
	return t, nil
}

func testConfig(outDir string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Hub.Token = "hf_test"
	cfg.Hub.DatasetRepo = "alice/liar"
	cfg.Labels.DatasetRepo = "alice/fakeverifier-dataset"
	cfg.LIAR.TrainURL = "https://mirror.test/train.tsv"
	cfg.LIAR.ValidURL = "https://mirror.test/valid.tsv"
	cfg.LIAR.TestURL = "https://mirror.test/test.tsv"
	cfg.LIAR.ArchiveURL = "https://archive.test/liar_dataset.zip"
	cfg.Output.Dir = outDir
	cfg.Cache.Enabled = false
	return cfg
}
