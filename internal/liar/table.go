package liar

import (
	"fmt"

	"github.com/pdevulapally/fakeverifier-data/internal/model"
)

// Canonicalize names a mirror table's columns. Tables with at least 8
// columns keep the first 8 as the canonical LIAR fields. Narrower tables
// name their first two columns label and statement; the remaining LIAR
// fields are synthesized as empty strings.
func Canonicalize(t *Table) ([]model.RawRecord, error) {
	records := make([]model.RawRecord, 0, len(t.Rows))
	if len(t.Rows) == 0 {
		return records, nil
	}

	if t.Width < 2 {
		return nil, fmt.Errorf("table has %d column(s), need at least label and statement", t.Width)
	}

	for _, row := range t.Rows {
		if t.Width >= len(model.LIARColumns) {
			records = append(records, model.RawRecord{
				Label:            row[0],
				Statement:        row[1],
				Subject:          row[2],
				Speaker:          row[3],
				JobTitle:         row[4],
				StateInfo:        row[5],
				PartyAffiliation: row[6],
				Context:          row[7],
			})
			continue
		}

		empty := model.PresentField("")
		records = append(records, model.RawRecord{
			Label:            row[0],
			Statement:        row[1],
			Subject:          empty,
			Speaker:          empty,
			JobTitle:         empty,
			StateInfo:        empty,
			PartyAffiliation: empty,
			Context:          empty,
		})
	}
	return records, nil
}

// Column positions in the distributed LIAR archive (train.tsv et al.).
// Column 0 is the statement id and 8 to 12 are the speaker credit counts.
const (
	archiveLabel            = 1
	archiveStatement        = 2
	archiveSubject          = 3
	archiveSpeaker          = 4
	archiveJobTitle         = 5
	archiveStateInfo        = 6
	archivePartyAffiliation = 7
	archiveContext          = 13
)

// FromArchiveLayout re-projects a table in the archive's 14-column layout
// to the canonical fields.
func FromArchiveLayout(t *Table) ([]model.RawRecord, error) {
	records := make([]model.RawRecord, 0, len(t.Rows))
	if len(t.Rows) == 0 {
		return records, nil
	}
	if t.Width <= archivePartyAffiliation {
		return nil, fmt.Errorf("archive table has %d columns, expected 14", t.Width)
	}

	at := func(row []model.Field, i int) model.Field {
		if i < len(row) {
			return row[i]
		}
		return model.Field{}
	}

	for _, row := range t.Rows {
		records = append(records, model.RawRecord{
			Label:            at(row, archiveLabel),
			Statement:        at(row, archiveStatement),
			Subject:          at(row, archiveSubject),
			Speaker:          at(row, archiveSpeaker),
			JobTitle:         at(row, archiveJobTitle),
			StateInfo:        at(row, archiveStateInfo),
			PartyAffiliation: at(row, archivePartyAffiliation),
			Context:          at(row, archiveContext),
		})
	}
	return records, nil
}
