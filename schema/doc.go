// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package schema defines the column contract for survey response files.

# Required Columns

A file is rejected before any data row is read unless its header carries:

	QuestionID, RespTxt, RespPct, QuestionTxt, ReleaseDate,
	SurveyOrg, Country, SampleSize, SampleDesc, Link

# Canonical Columns

Every stored row has exactly the 21 CanonicalColumns. Optional columns a
file does not provide are stored as empty strings.

Blocks split the non-question columns into two groups:

  - MetadataColumns: 14 survey-level fields (dates, organization, sample)
  - NoteColumns: StudyNote, QuestionNote, SubPopulation
*/
package schema
