// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package blocks rebuilds question blocks from raw rows at read time.

# Blocks

A block is every row sharing (dataset_id, question_id). Its question text,
metadata, and notes come from the block's first row by arrival; each row
adds one {label, value} response, in arrival order. Blocks are never stored.

# Reading

	agg := blocks.NewAggregator(rowRepo, logger)
	page, err := agg.GetBlocks(ctx, blocks.Query{DatasetID: id, Search: "economy", Limit: 20})

Blocks are ordered by dataset_id, then question_id. Limit and Offset page
over blocks, not rows, so a block's responses are never cut short. Total is
the number of matching blocks and is the same on every page.

Search matches question text row by row before grouping. A block whose
rows carry different question texts may therefore come back with only the
matching responses.

# Folding

Fold is the pure grouping step. It sorts its input on
(dataset_id, question_id, arrival_seq) before grouping, so callers need not
pre-order rows.

# Export

Export streams the same filtered rows as CSV with a DatasetID column
followed by the canonical columns. The file can be uploaded again.
*/
package blocks
