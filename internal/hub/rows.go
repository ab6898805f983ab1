package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pdevulapally/fakeverifier-data/internal/dataset"
	"github.com/pdevulapally/fakeverifier-data/internal/logger"
)

// PageSize is the largest page the rows endpoint serves
const PageSize = 100

// RowsClient reads dataset contents from the datasets server
type RowsClient struct {
	rest *resty.Client
}

// NewRowsClient creates a client for the datasets server at opts.Endpoint
func NewRowsClient(opts Options) *RowsClient {
	return &RowsClient{rest: newRestClient(strings.TrimSuffix(opts.Endpoint, "/"), opts, true)}
}

// SplitRef names one split of one config
type SplitRef struct {
	Dataset string `json:"dataset"`
	Config  string `json:"config"`
	Split   string `json:"split"`
}

// Table is the full content of one split
type Table struct {
	Features []dataset.Feature
	Rows     []dataset.Row
}

type rowsPage struct {
	Features []dataset.Feature `json:"features"`
	Rows     []struct {
		Index          int                        `json:"row_idx"`
		Row            map[string]json.RawMessage `json:"row"`
		TruncatedCells []string                   `json:"truncated_cells"`
	} `json:"rows"`
	Total   int  `json:"num_rows_total"`
	Partial bool `json:"partial"`
}

// Splits lists the configs and splits of a dataset
func (c *RowsClient) Splits(ctx context.Context, repoID string) ([]SplitRef, error) {
	var result struct {
		Splits []SplitRef `json:"splits"`
	}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("dataset", repoID).
		SetResult(&result).
		Get("/splits")
	if err != nil {
		return nil, fmt.Errorf("list splits of %s: %w", repoID, err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp)
	}
	if len(result.Splits) == 0 {
		return nil, fmt.Errorf("dataset %s has no splits", repoID)
	}
	return result.Splits, nil
}

// Rows reads every row of a split, page by page
func (c *RowsClient) Rows(ctx context.Context, ref SplitRef) (*Table, error) {
	table := &Table{}
	for offset := 0; ; {
		page, err := c.page(ctx, ref, offset)
		if err != nil {
			return nil, err
		}
		if page.Partial {
			return nil, fmt.Errorf("split %s of %s is only partially available", ref.Split, ref.Dataset)
		}
		if table.Features == nil {
			table.Features = page.Features
		}

		for _, r := range page.Rows {
			if len(r.TruncatedCells) > 0 {
				return nil, fmt.Errorf("row %d of %s/%s has truncated cells %v",
					r.Index, ref.Dataset, ref.Split, r.TruncatedCells)
			}
			row, err := decodeRow(table.Features, r.Row)
			if err != nil {
				return nil, fmt.Errorf("row %d of %s/%s: %w", r.Index, ref.Dataset, ref.Split, err)
			}
			table.Rows = append(table.Rows, row)
		}

		offset += len(page.Rows)
		logger.FromContext(ctx).Debug("read rows", "dataset", ref.Dataset, "split", ref.Split,
			"read", offset, "total", page.Total)
		if len(page.Rows) == 0 || offset >= page.Total {
			break
		}
	}
	return table, nil
}

func (c *RowsClient) page(ctx context.Context, ref SplitRef, offset int) (*rowsPage, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"dataset": ref.Dataset,
			"config":  ref.Config,
			"split":   ref.Split,
			"offset":  strconv.Itoa(offset),
			"length":  strconv.Itoa(PageSize),
		}).
		Get("/rows")
	if err != nil {
		return nil, fmt.Errorf("read rows of %s/%s: %w", ref.Dataset, ref.Split, err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("read rows of %s/%s: status %d", ref.Dataset, ref.Split, resp.StatusCode())
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	var page rowsPage
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("decode rows of %s/%s: %w", ref.Dataset, ref.Split, err)
	}
	return &page, nil
}

// decodeRow orders a row's cells by feature
func decodeRow(features []dataset.Feature, raw map[string]json.RawMessage) (dataset.Row, error) {
	row := make(dataset.Row, 0, len(features))
	for _, f := range features {
		msg, ok := raw[f.Name]
		if !ok {
			row = append(row, dataset.Cell{Name: f.Name})
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %q: %w", f.Name, err)
		}
		row = append(row, dataset.Cell{Name: f.Name, Value: v})
	}
	return row, nil
}
