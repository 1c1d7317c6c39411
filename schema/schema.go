// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package schema

import "strings"

// Source column names
const (
	QuestionID    = "QuestionID"
	RespTxt       = "RespTxt"
	RespPct       = "RespPct"
	QuestionTxt   = "QuestionTxt"
	ReleaseDate   = "ReleaseDate"
	SurveyOrg     = "SurveyOrg"
	SurveySponsor = "SurveySponsor"
	SourceDoc     = "SourceDoc"
	BegDate       = "BegDate"
	EndDate       = "EndDate"
	Country       = "Country"
	SampleDesc    = "SampleDesc"
	SampleSize    = "SampleSize"
	IntMethod     = "IntMethod"
	StudyNote     = "StudyNote"
	Topics        = "Topics"
	SampleTypes   = "SampleTypes"
	DatePublished = "DatePublished"
	Link          = "Link"
	QuestionNote  = "QuestionNote"
	SubPopulation = "SubPopulation"
)

// Required lists the columns a source file must carry before any row is accepted.
var Required = []string{
	QuestionID, RespTxt, RespPct, QuestionTxt, ReleaseDate,
	SurveyOrg, Country, SampleSize, SampleDesc, Link,
}

// CanonicalColumns is the storage layout of a normalized row, in order.
var CanonicalColumns = []string{
	QuestionID, RespTxt, RespPct, QuestionTxt,
	ReleaseDate, SurveyOrg, SurveySponsor, SourceDoc, BegDate, EndDate,
	Country, SampleDesc, SampleSize, IntMethod, StudyNote, Topics,
	SampleTypes, DatePublished, Link, QuestionNote, SubPopulation,
}

// MetadataColumns are the survey-level fields reported on every question block.
var MetadataColumns = []string{
	ReleaseDate, SurveyOrg, SurveySponsor, SourceDoc, BegDate, EndDate,
	Country, SampleDesc, SampleSize, IntMethod, Topics, SampleTypes,
	DatePublished, Link,
}

// NoteColumns are free-text annotations reported separately from metadata.
var NoteColumns = []string{StudyNote, QuestionNote, SubPopulation}

// CleanHeader trims whitespace and a leading byte order mark from a header cell.
func CleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

// Missing returns the required columns absent from headers, in Required order.
// It returns nil when the header satisfies the contract.
func Missing(headers []string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[CleanHeader(h)] = struct{}{}
	}

	var missing []string
	for _, col := range Required {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// IsCanonical reports whether name is one of CanonicalColumns.
func IsCanonical(name string) bool {
	for _, col := range CanonicalColumns {
		if col == name {
			return true
		}
	}
	return false
}
