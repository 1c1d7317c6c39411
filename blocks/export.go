// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package blocks

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/models"
	"github.com/danielhkuo/publicpulse/schema"
)

// ExportDatasetColumn is prepended to the canonical columns in exports.
// Ingest ignores it, so an export can be uploaded again.
const ExportDatasetColumn = "DatasetID"

// Export writes every row matching q as CSV, one line per response, in
// block order. Limit and Offset are ignored.
func (a *Aggregator) Export(ctx context.Context, q Query, w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{ExportDatasetColumn}, schema.CanonicalColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	n := 0
	err := a.rows.Scan(ctx, q.filter(), func(r models.StoredRow) error {
		n++
		return cw.Write(append([]string{r.DatasetID}, r.Values()...))
	})
	if err != nil {
		return fmt.Errorf("export rows: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	a.logger.Debug("Blocks exported", zap.String("dataset_id", q.DatasetID), zap.Int("rows", n))
	return nil
}
