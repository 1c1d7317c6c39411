// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package normalizer turns uploaded survey files into canonical rows.

# Formats

The file extension picks the reader, case-insensitively:

	.csv .txt    delimited text; comma, semicolon, or tab sniffed from the header line
	.tsv         delimited text; always tab
	.xlsx .xlsm  spreadsheet; active sheet, stored cell values

Anything else is ErrUnsupportedFormat. Delimited input may start with a
UTF-8 byte order mark or be UTF-16 with a BOM.

# Header Gate

Open reads the first row and checks it against schema.Required before any
data row is read. A failing header returns *SchemaValidationError naming the
missing columns, and no RowSource:

	src, err := normalizer.Open(fs, path, ".csv")
	var sve *normalizer.SchemaValidationError
	if errors.As(err, &sve) {
		// sve.Missing == []string{"Link"}
	}

# Rows

Normalize drives a RowSource and emits one models.CanonicalRow per data
record. Every row has the same 21 fields. Columns missing from the source
and empty cells become "", columns outside the canonical set are dropped,
and records whose cells are all blank are skipped.

Decoding errors after the header surface as *ParseFault with the source
line when known.
*/
package normalizer
