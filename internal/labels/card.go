package labels

import (
	"fmt"
	"path"

	"github.com/pdevulapally/fakeverifier-data/internal/dataset"
)

// DataDir is the repository directory holding the published splits
const DataDir = "data"

// DataPath returns the repository path of a split's file
func DataPath(split string) string {
	return DataDir + "/" + split + ".jsonl"
}

// SplitFile describes a serialized split
type SplitFile struct {
	Split   string
	Path    string
	Records int
	Bytes   int64
}

// CardUpdate is a rewritten README together with the data file patterns
// the config declared before the rewrite.
type CardUpdate struct {
	Content  []byte
	Previous []string
}

// UpdateCard rewrites the dataset_info and configs entries of one config so
// the hub reads the published files with the given features. Entries of
// other configs, the body and all other front matter keys are kept.
func UpdateCard(readme []byte, configName string, features []dataset.Feature, files []SplitFile) (*CardUpdate, error) {
	card, err := dataset.ParseCard(readme)
	if err != nil {
		return nil, err
	}

	previous, err := previousPatterns(card, configName, files)
	if err != nil {
		return nil, err
	}

	info := dataset.DatasetInfo{ConfigName: configName}
	for _, f := range features {
		spec, err := f.Spec()
		if err != nil {
			return nil, fmt.Errorf("update card: %w", err)
		}
		info.Features = append(info.Features, spec)
	}

	cfg := dataset.ConfigSpec{ConfigName: configName}
	for _, f := range files {
		info.Splits = append(info.Splits, dataset.SplitInfo{
			Name:        f.Split,
			NumBytes:    f.Bytes,
			NumExamples: f.Records,
		})
		cfg.DataFiles = append(cfg.DataFiles, dataset.DataFileSpec{Split: f.Split, Path: dataset.Patterns{f.Path}})
	}

	if err := card.SetConfigEntry("dataset_info", configName, info); err != nil {
		return nil, err
	}
	if err := card.SetConfigEntry("configs", configName, cfg); err != nil {
		return nil, err
	}
	content, err := card.Render()
	if err != nil {
		return nil, err
	}
	return &CardUpdate{Content: content, Previous: previous}, nil
}

// previousPatterns lists what the config pointed at. Without a configs
// entry the hub's default layout for each split is assumed.
func previousPatterns(card *dataset.Card, configName string, files []SplitFile) ([]string, error) {
	declared, found, err := card.ConfigDataFiles(configName)
	if err != nil {
		return nil, fmt.Errorf("read configs: %w", err)
	}
	var patterns []string
	if found {
		for _, d := range declared {
			patterns = append(patterns, d.Path...)
		}
		return patterns, nil
	}
	for _, f := range files {
		patterns = append(patterns, DataDir+"/"+f.Split+"-*", DataPath(f.Split))
	}
	return patterns, nil
}

// Stale reports whether a repository file matches one of the patterns
func (u *CardUpdate) Stale(repoPath string) bool {
	for _, p := range u.Previous {
		if ok, _ := path.Match(p, repoPath); ok {
			return true
		}
	}
	return false
}
