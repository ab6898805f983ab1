package hub

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdevulapally/fakeverifier-data/internal/logger"
)

// Upload modes returned by the preupload endpoint
const (
	uploadModeRegular = "regular"
	uploadModeLFS     = "lfs"
)

const sampleSize = 512

// CommitFile is a file added or replaced by a commit
type CommitFile struct {
	PathInRepo string
	Content    []byte
}

// Commit is a set of file operations applied atomically to the main branch
type Commit struct {
	Summary     string
	Description string
	Files       []CommitFile
	Deletes     []string
}

// CommitInfo identifies a created commit
type CommitInfo struct {
	URL string `json:"commitUrl"`
	OID string `json:"commitOid"`
}

type preuploadFile struct {
	Path   string `json:"path"`
	Sample string `json:"sample"`
	Size   int    `json:"size"`
}

type preuploadResult struct {
	Files []struct {
		Path       string `json:"path"`
		UploadMode string `json:"uploadMode"`
	} `json:"files"`
}

type lfsObject struct {
	OID  string `json:"oid"`
	Size int64  `json:"size"`
}

type lfsAction struct {
	Href   string            `json:"href"`
	Header map[string]string `json:"header"`
}

type lfsBatchResult struct {
	Objects []struct {
		OID     string               `json:"oid"`
		Size    int64                `json:"size"`
		Actions map[string]lfsAction `json:"actions"`
		Error   *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"objects"`
}

type commitLine struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Commit applies c to a dataset in one commit. Nothing is visible on
// the hub unless the whole commit succeeds.
func (c *Client) Commit(ctx context.Context, repoID string, commit Commit) (*CommitInfo, error) {
	if len(commit.Files) == 0 && len(commit.Deletes) == 0 {
		return nil, fmt.Errorf("commit to %s: no operations", repoID)
	}

	modes, err := c.preupload(ctx, repoID, commit.Files)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	header := map[string]string{"summary": commit.Summary, "description": commit.Description}
	if err := enc.Encode(commitLine{Key: "header", Value: header}); err != nil {
		return nil, fmt.Errorf("encode commit header: %w", err)
	}

	for _, f := range commit.Files {
		var line commitLine
		if modes[f.PathInRepo] == uploadModeLFS {
			obj, err := c.uploadLFS(ctx, repoID, f)
			if err != nil {
				return nil, err
			}
			line = commitLine{Key: "lfsFile", Value: map[string]any{
				"path": f.PathInRepo, "algo": "sha256", "oid": obj.OID, "size": obj.Size,
			}}
		} else {
			line = commitLine{Key: "file", Value: map[string]string{
				"path":     f.PathInRepo,
				"content":  base64.StdEncoding.EncodeToString(f.Content),
				"encoding": "base64",
			}}
		}
		if err := enc.Encode(line); err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.PathInRepo, err)
		}
	}

	for _, path := range commit.Deletes {
		if err := enc.Encode(commitLine{Key: "deletedFile", Value: map[string]string{"path": path}}); err != nil {
			return nil, fmt.Errorf("encode delete of %s: %w", path, err)
		}
	}

	var info CommitInfo
	resp, err := c.rest.R().
		SetContext(ctx).
		SetRawPathParam("repo", repoPath(repoID)).
		SetHeader("Content-Type", "application/x-ndjson").
		SetBody(body.Bytes()).
		SetResult(&info).
		Post("/api/{repo}/commit/" + DefaultRevision)
	if err != nil {
		return nil, fmt.Errorf("commit to %s: %w", repoID, err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp)
	}

	logger.FromContext(ctx).Debug("committed", "repo", repoID, "files", len(commit.Files),
		"deleted", len(commit.Deletes), "oid", info.OID)
	return &info, nil
}

// UploadFile uploads one local file to pathInRepo with the given commit message
func (c *Client) UploadFile(ctx context.Context, repoID, localPath, pathInRepo, message string) (*CommitInfo, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", localPath, err)
	}
	return c.Commit(ctx, repoID, Commit{
		Summary: message,
		Files:   []CommitFile{{PathInRepo: pathInRepo, Content: content}},
	})
}

// preupload asks the hub which files must go through LFS
func (c *Client) preupload(ctx context.Context, repoID string, files []CommitFile) (map[string]string, error) {
	modes := make(map[string]string, len(files))
	if len(files) == 0 {
		return modes, nil
	}

	payload := struct {
		Files []preuploadFile `json:"files"`
	}{}
	for _, f := range files {
		sample := f.Content
		if len(sample) > sampleSize {
			sample = sample[:sampleSize]
		}
		payload.Files = append(payload.Files, preuploadFile{
			Path:   f.PathInRepo,
			Sample: base64.StdEncoding.EncodeToString(sample),
			Size:   len(f.Content),
		})
	}

	var result preuploadResult
	resp, err := c.rest.R().
		SetContext(ctx).
		SetRawPathParam("repo", repoPath(repoID)).
		SetBody(payload).
		SetResult(&result).
		Post("/api/{repo}/preupload/" + DefaultRevision)
	if err != nil {
		return nil, fmt.Errorf("preupload to %s: %w", repoID, err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp)
	}

	for _, f := range result.Files {
		modes[f.Path] = f.UploadMode
	}
	return modes, nil
}

// uploadLFS stores a file's content in LFS storage unless the hub already
// has it
func (c *Client) uploadLFS(ctx context.Context, repoID string, f CommitFile) (lfsObject, error) {
	sum := sha256.Sum256(f.Content)
	obj := lfsObject{OID: hex.EncodeToString(sum[:]), Size: int64(len(f.Content))}

	batch := map[string]any{
		"operation": "upload",
		"transfers": []string{"basic"},
		"objects":   []lfsObject{obj},
		"hash_algo": "sha256",
	}

	var result lfsBatchResult
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "application/vnd.git-lfs+json").
		SetHeader("Content-Type", "application/vnd.git-lfs+json").
		SetBody(batch).
		SetResult(&result).
		Post(c.endpoint + "/" + repoPath(repoID) + ".git/info/lfs/objects/batch")
	if err != nil {
		return obj, fmt.Errorf("lfs batch for %s: %w", f.PathInRepo, err)
	}
	if resp.IsError() {
		return obj, newAPIError(resp)
	}
	if len(result.Objects) != 1 {
		return obj, fmt.Errorf("lfs batch for %s: expected 1 object, got %d", f.PathInRepo, len(result.Objects))
	}

	item := result.Objects[0]
	if item.Error != nil {
		return obj, fmt.Errorf("lfs batch for %s: %d %s", f.PathInRepo, item.Error.Code, item.Error.Message)
	}

	upload, ok := item.Actions["upload"]
	if !ok {
		logger.FromContext(ctx).Debug("lfs object already stored", "path", f.PathInRepo, "oid", obj.OID)
		return obj, nil
	}

	resp, err = c.transfer.R().
		SetContext(ctx).
		SetHeaders(upload.Header).
		SetBody(f.Content).
		Put(upload.Href)
	if err != nil {
		return obj, fmt.Errorf("lfs upload of %s: %w", f.PathInRepo, err)
	}
	if resp.IsError() {
		return obj, newAPIError(resp)
	}

	if verify, ok := item.Actions["verify"]; ok {
		resp, err = c.rest.R().
			SetContext(ctx).
			SetHeaders(verify.Header).
			SetHeader("Content-Type", "application/vnd.git-lfs+json").
			SetBody(obj).
			Post(verify.Href)
		if err != nil {
			return obj, fmt.Errorf("lfs verify of %s: %w", f.PathInRepo, err)
		}
		if resp.IsError() {
			return obj, newAPIError(resp)
		}
	}
	return obj, nil
}
