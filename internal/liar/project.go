package liar

import "github.com/pdevulapally/fakeverifier-data/internal/model"

// Project converts raw records to target records one-to-one, in order.
// The label keeps its original multi-class form. Absent values become "".
func Project(records []model.RawRecord) []model.TargetRecord {
	out := make([]model.TargetRecord, 0, len(records))
	for _, r := range records {
		out = append(out, ProjectRecord(r))
	}
	return out
}

// ProjectRecord converts a single raw record
func ProjectRecord(r model.RawRecord) model.TargetRecord {
	return model.TargetRecord{
		Claim:   r.Statement.Text(),
		Label:   r.Label.Text(),
		Source:  r.Speaker.Text(),
		Context: r.Context.Text(),
	}
}
