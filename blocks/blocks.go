// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package blocks

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/models"
	"github.com/danielhkuo/publicpulse/repository"
)

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// RowReader is the slice of the raw row store the aggregator reads.
type RowReader interface {
	CountKeys(ctx context.Context, f repository.Filter) (int, error)
	PageKeys(ctx context.Context, f repository.Filter, limit, offset int) ([]repository.BlockKey, int, error)
	RowsForKeys(ctx context.Context, f repository.Filter, keys []repository.BlockKey) ([]models.StoredRow, error)
	Scan(ctx context.Context, f repository.Filter, fn func(models.StoredRow) error) error
}

// Query selects blocks. Empty DatasetID spans every dataset; empty Search
// matches every row.
type Query struct {
	DatasetID string
	Search    string
	Limit     int
	Offset    int
}

// Normalized returns q with Limit defaulted and clamped to [1, MaxLimit]
// and a negative Offset raised to zero.
func (q Query) Normalized() Query {
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

func (q Query) filter() repository.Filter {
	return repository.Filter{DatasetID: q.DatasetID, Search: q.Search}
}

// Page is one window over the ordered block list.
type Page struct {
	Total  int
	Items  []models.Block
	Limit  int
	Offset int
}

// Aggregator rebuilds question blocks from raw rows on every read.
type Aggregator struct {
	rows   RowReader
	logger *zap.Logger
}

func NewAggregator(rows RowReader, logger *zap.Logger) *Aggregator {
	return &Aggregator{rows: rows, logger: logger}
}

// GetBlocks returns the blocks at [Offset, Offset+Limit) of the ordered
// block list for q, plus the number of blocks matching q. Pagination is over
// blocks; each returned block carries every matching row.
func (a *Aggregator) GetBlocks(ctx context.Context, q Query) (Page, error) {
	q = q.Normalized()
	f := q.filter()
	page := Page{Items: []models.Block{}, Limit: q.Limit, Offset: q.Offset}

	keys, total, err := a.rows.PageKeys(ctx, f, q.Limit, q.Offset)
	if err != nil {
		return Page{}, err
	}
	if len(keys) == 0 {
		// past the end, the page query has no row to carry the total
		if q.Offset > 0 {
			if total, err = a.rows.CountKeys(ctx, f); err != nil {
				return Page{}, err
			}
		}
		page.Total = total
		return page, nil
	}
	page.Total = total

	rows, err := a.rows.RowsForKeys(ctx, f, keys)
	if err != nil {
		return Page{}, err
	}

	folded := Fold(rows)
	byKey := make(map[repository.BlockKey]models.Block, len(folded))
	for _, b := range folded {
		byKey[repository.BlockKey{DatasetID: b.DatasetID, QuestionID: b.QuestionID}] = b
	}
	for _, k := range keys {
		if b, ok := byKey[k]; ok {
			page.Items = append(page.Items, b)
		}
	}

	a.logger.Debug("Blocks served",
		zap.String("dataset_id", q.DatasetID),
		zap.String("search", q.Search),
		zap.Int("total", total),
		zap.Int("items", len(page.Items)),
		zap.Int("rows", len(rows)),
	)
	return page, nil
}

// Fold groups rows into blocks keyed by (dataset_id, question_id).
//
// Rows are first ordered by dataset_id, question_id, then arrival_seq, so
// the result does not depend on input order. The first row of each key
// fixes the block's question text, metadata, and notes; every row of the
// key, the first included, adds one response in arrival order.
func Fold(rows []models.StoredRow) []models.Block {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, compareRows)

	type key struct{ dataset, question string }
	var (
		blocks = []models.Block{}
		index  = make(map[key]int)
	)
	for _, r := range sorted {
		k := key{r.DatasetID, r.QuestionID}
		i, ok := index[k]
		if !ok {
			i = len(blocks)
			index[k] = i
			blocks = append(blocks, models.Block{
				DatasetID:    r.DatasetID,
				QuestionID:   r.QuestionID,
				QuestionText: r.QuestionTxt,
				Metadata:     models.MetadataOf(r.CanonicalRow),
				Notes:        models.NotesOf(r.CanonicalRow),
				Responses:    []models.Response{},
			})
		}
		blocks[i].Responses = append(blocks[i].Responses, models.Response{
			Label: r.RespTxt,
			Value: r.RespPct,
		})
	}
	return blocks
}

func compareRows(a, b models.StoredRow) int {
	return cmp.Or(
		strings.Compare(a.DatasetID, b.DatasetID),
		strings.Compare(a.QuestionID, b.QuestionID),
		cmp.Compare(a.ArrivalSeq, b.ArrivalSeq),
	)
}
