package models

import "github.com/danielhkuo/publicpulse/schema"

// Dataset ingest status constants
const (
	StatusPending     = "pending"
	StatusIngested    = "ingested"
	StatusFailed      = "failed"
	StatusUnsupported = "unsupported"
)

// Error codes returned in ErrorResponse.Error
const (
	ErrCodeSchemaValidation = "schema_validation"
	ErrCodeParse            = "parse_error"
	ErrCodeStore            = "store_error"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
)

// Domain types

type Dataset struct {
	ID           string `json:"id" db:"id"`
	Filename     string `json:"filename" db:"filename"`
	StoredPath   string `json:"stored_path" db:"stored_path"`
	UploadedAt   string `json:"uploaded_at" db:"uploaded_at"` // UTC, RFC3339 seconds
	RowsIngested int    `json:"rows_ingested" db:"rows_ingested"`
	IngestStatus string `json:"ingest_status" db:"ingest_status"`
	IngestError  string `json:"ingest_error,omitempty" db:"ingest_error"`
}

// CanonicalRow is one normalized response option. Every field is a plain
// string; columns absent from the source file are empty.
type CanonicalRow struct {
	QuestionID    string `json:"QuestionID" db:"question_id"`
	RespTxt       string `json:"RespTxt" db:"resp_txt"`
	RespPct       string `json:"RespPct" db:"resp_pct"`
	QuestionTxt   string `json:"QuestionTxt" db:"question_txt"`
	ReleaseDate   string `json:"ReleaseDate" db:"release_date"`
	SurveyOrg     string `json:"SurveyOrg" db:"survey_org"`
	SurveySponsor string `json:"SurveySponsor" db:"survey_sponsor"`
	SourceDoc     string `json:"SourceDoc" db:"source_doc"`
	BegDate       string `json:"BegDate" db:"beg_date"`
	EndDate       string `json:"EndDate" db:"end_date"`
	Country       string `json:"Country" db:"country"`
	SampleDesc    string `json:"SampleDesc" db:"sample_desc"`
	SampleSize    string `json:"SampleSize" db:"sample_size"`
	IntMethod     string `json:"IntMethod" db:"int_method"`
	StudyNote     string `json:"StudyNote" db:"study_note"`
	Topics        string `json:"Topics" db:"topics"`
	SampleTypes   string `json:"SampleTypes" db:"sample_types"`
	DatePublished string `json:"DatePublished" db:"date_published"`
	Link          string `json:"Link" db:"link"`
	QuestionNote  string `json:"QuestionNote" db:"question_note"`
	SubPopulation string `json:"SubPopulation" db:"sub_population"`
}

// StoredRow is a CanonicalRow as read back from the raw row store.
type StoredRow struct {
	ArrivalSeq int64  `json:"arrival_seq" db:"arrival_seq"`
	DatasetID  string `json:"dataset_id" db:"dataset_id"`
	CanonicalRow
}

// Block is the read-time aggregate of every row sharing (dataset, question).
type Block struct {
	DatasetID    string        `json:"dataset_id"`
	QuestionID   string        `json:"question_id"`
	QuestionText string        `json:"question_text"`
	Metadata     BlockMetadata `json:"metadata"`
	Notes        BlockNotes    `json:"notes"`
	Responses    []Response    `json:"responses"`
}

type BlockMetadata struct {
	ReleaseDate   string `json:"ReleaseDate"`
	SurveyOrg     string `json:"SurveyOrg"`
	SurveySponsor string `json:"SurveySponsor"`
	SourceDoc     string `json:"SourceDoc"`
	BegDate       string `json:"BegDate"`
	EndDate       string `json:"EndDate"`
	Country       string `json:"Country"`
	SampleDesc    string `json:"SampleDesc"`
	SampleSize    string `json:"SampleSize"`
	IntMethod     string `json:"IntMethod"`
	Topics        string `json:"Topics"`
	SampleTypes   string `json:"SampleTypes"`
	DatePublished string `json:"DatePublished"`
	Link          string `json:"Link"`
}

type BlockNotes struct {
	StudyNote     string `json:"StudyNote"`
	QuestionNote  string `json:"QuestionNote"`
	SubPopulation string `json:"SubPopulation"`
}

type Response struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Selection struct {
	ID         int64  `json:"-" db:"id"`
	UserID     string `json:"user_id,omitempty" db:"user_id"`
	DatasetID  string `json:"dataset_id,omitempty" db:"dataset_id"`
	QuestionID string `json:"question_id" db:"question_id"`
	CreatedAt  string `json:"created_at" db:"created_at"`
}

// Request types

type SelectionRequest struct {
	UserID     string `json:"user_id"`
	DatasetID  string `json:"dataset_id" binding:"required"`
	QuestionID string `json:"question_id"`
}

// Response types

// UnsupportedNote accompanies uploads whose format cannot be ingested.
const UnsupportedNote = "file stored; format not supported for ingestion"

type UploadResponse struct {
	OK           bool   `json:"ok"`
	DatasetID    string `json:"dataset_id"`
	Filename     string `json:"filename"`
	StoredPath   string `json:"stored_path"`
	RowsIngested int    `json:"rows_ingested"`
	Note         string `json:"note,omitempty"`
}

type DatasetListResponse struct {
	Total  int       `json:"total"`
	Items  []Dataset `json:"items"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

type BlocksResponse struct {
	Total  int     `json:"total"`
	Items  []Block `json:"items"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type SelectionListResponse struct {
	Items []Selection `json:"items"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

// Error response

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// NewCanonicalRow builds a row from one source record. index maps a source
// header name to its cell position; cells past the end of a short record
// and columns the source lacks are left empty.
func NewCanonicalRow(index map[string]int, cells []string) CanonicalRow {
	var row CanonicalRow
	for _, col := range schema.CanonicalColumns {
		i, ok := index[col]
		if !ok || i >= len(cells) {
			continue
		}
		row.Set(col, cells[i])
	}
	return row
}

// Get returns the value stored under a canonical column name.
func (r *CanonicalRow) Get(col string) string {
	if p := r.field(col); p != nil {
		return *p
	}
	return ""
}

// Set assigns a canonical column; unknown names are ignored.
func (r *CanonicalRow) Set(col, value string) {
	if p := r.field(col); p != nil {
		*p = value
	}
}

// Values returns the row in CanonicalColumns order.
func (r *CanonicalRow) Values() []string {
	out := make([]string, len(schema.CanonicalColumns))
	for i, col := range schema.CanonicalColumns {
		out[i] = r.Get(col)
	}
	return out
}

func (r *CanonicalRow) field(col string) *string {
	switch col {
	case schema.QuestionID:
		return &r.QuestionID
	case schema.RespTxt:
		return &r.RespTxt
	case schema.RespPct:
		return &r.RespPct
	case schema.QuestionTxt:
		return &r.QuestionTxt
	case schema.ReleaseDate:
		return &r.ReleaseDate
	case schema.SurveyOrg:
		return &r.SurveyOrg
	case schema.SurveySponsor:
		return &r.SurveySponsor
	case schema.SourceDoc:
		return &r.SourceDoc
	case schema.BegDate:
		return &r.BegDate
	case schema.EndDate:
		return &r.EndDate
	case schema.Country:
		return &r.Country
	case schema.SampleDesc:
		return &r.SampleDesc
	case schema.SampleSize:
		return &r.SampleSize
	case schema.IntMethod:
		return &r.IntMethod
	case schema.StudyNote:
		return &r.StudyNote
	case schema.Topics:
		return &r.Topics
	case schema.SampleTypes:
		return &r.SampleTypes
	case schema.DatePublished:
		return &r.DatePublished
	case schema.Link:
		return &r.Link
	case schema.QuestionNote:
		return &r.QuestionNote
	case schema.SubPopulation:
		return &r.SubPopulation
	}
	return nil
}

// MetadataOf copies the survey-level fields of a row.
func MetadataOf(r CanonicalRow) BlockMetadata {
	return BlockMetadata{
		ReleaseDate:   r.ReleaseDate,
		SurveyOrg:     r.SurveyOrg,
		SurveySponsor: r.SurveySponsor,
		SourceDoc:     r.SourceDoc,
		BegDate:       r.BegDate,
		EndDate:       r.EndDate,
		Country:       r.Country,
		SampleDesc:    r.SampleDesc,
		SampleSize:    r.SampleSize,
		IntMethod:     r.IntMethod,
		Topics:        r.Topics,
		SampleTypes:   r.SampleTypes,
		DatePublished: r.DatePublished,
		Link:          r.Link,
	}
}

// NotesOf copies the note fields of a row.
func NotesOf(r CanonicalRow) BlockNotes {
	return BlockNotes{
		StudyNote:     r.StudyNote,
		QuestionNote:  r.QuestionNote,
		SubPopulation: r.SubPopulation,
	}
}
