package domain

import "io"

// UploadFile is one document to submit, read from any source
type UploadFile struct {
	Filename string
	Content  io.Reader
}

// StudentFile pairs a document with the student it belongs to.
// StudentID must be safe to embed in a filename; the coordinator
// validates it before any network call.
type StudentFile struct {
	StudentID string `validate:"required,max=100"`
	File      UploadFile
}

// KeyMetadataInput is the caller-supplied scoring configuration for a key sheet
type KeyMetadataInput struct {
	SubjectName    string  `json:"subject_name" validate:"required,max=200"`
	TotalQuestions int     `json:"total_questions" validate:"gt=0"`
	TotalScore     float64 `json:"total_score" validate:"gt=0"`
	// GradeSystem defaults to "A/B/C" when empty
	GradeSystem string `json:"grade_system" validate:"max=100"`
}

// KeySheetCreation pairs the key sheet with its metadata after the
// two-phase creation completes. Both carry RecordStateProvisional until
// the backend's own records are read back.
type KeySheetCreation struct {
	KeySheet KeySheet    `json:"key_sheet"`
	Metadata KeyMetadata `json:"metadata"`
}

// StudentUploadOutcome reports a single-student upload without raising an
// error, so callers iterating many students continue past individual failures
type StudentUploadOutcome struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Script  *StudentScript `json:"script,omitempty"`
}

// SummaryStats are the aggregate statistics over one batch's results
type SummaryStats struct {
	TotalStudents  int     `json:"totalStudents"`
	AverageScore   float64 `json:"averageScore"`
	HighPerformers int     `json:"highPerformers"`
	EvaluatedCount int     `json:"evaluatedCount"`
}

// EvaluationSummary is the normalized result set plus derived statistics.
// It is computed on demand and never stored.
type EvaluationSummary struct {
	Results    []EvaluationResult `json:"results"`
	Summary    SummaryStats       `json:"summary"`
	TotalScore float64            `json:"totalScore"`
}
