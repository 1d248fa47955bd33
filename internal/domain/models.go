package domain

import (
	"time"
)

// DefaultGradeSystem is applied when metadata omits a grade system label
const DefaultGradeSystem = "A/B/C"

// RecordState tags an entity projection as locally synthesized or
// confirmed by the backend. Provisional records carry authoritative
// identity fields only; descriptive fields must not be treated as durable.
type RecordState string

const (
	RecordStateProvisional RecordState = "provisional"
	RecordStatePersisted   RecordState = "persisted"
)

// KeySheet is the uploaded answer-key document defining one grading batch
type KeySheet struct {
	ID         string      `json:"id"`
	Filename   string      `json:"filename,omitempty"`
	PDFURL     string      `json:"pdf_url,omitempty"`
	UploadedAt time.Time   `json:"uploaded_at,omitempty"`
	State      RecordState `json:"state"`
}

// KeyMetadata is the scoring configuration attached to a key sheet
type KeyMetadata struct {
	ID             string      `json:"id"`
	KeySheetID     string      `json:"key_sheet_id"`
	SubjectName    string      `json:"subject_name"`
	TotalQuestions int         `json:"total_questions"`
	TotalScore     float64     `json:"total_score"`
	GradeSystem    string      `json:"grade_system"`
	CreatedAt      time.Time   `json:"created_at,omitempty"`
	State          RecordState `json:"state"`
}

// StudentScript is one student's submitted answer document
type StudentScript struct {
	ID         string      `json:"id"`
	KeySheetID string      `json:"key_sheet_id"`
	StudentID  string      `json:"student_id"`
	Filename   string      `json:"filename"`
	PDFURL     string      `json:"pdf_url,omitempty"`
	UploadedAt time.Time   `json:"uploaded_at,omitempty"`
	State      RecordState `json:"state"`
}

// EvaluationResult is the graded outcome for one student script,
// produced asynchronously by the backend
type EvaluationResult struct {
	ID              string    `json:"id,omitempty"`
	StudentScriptID string    `json:"student_script_id,omitempty"`
	StudentID       string    `json:"student_id,omitempty"`
	Score           float64   `json:"score"`
	Grade           string    `json:"grade,omitempty"`
	Feedback        string    `json:"feedback,omitempty"`
	EvaluatedAt     time.Time `json:"evaluated_at,omitempty"`
}

// StudentSheet is the stored copy of a student's uploaded document
type StudentSheet struct {
	StudentID  string    `json:"student_id"`
	Filename   string    `json:"filename"`
	PDFURL     string    `json:"pdf_url"`
	PDFBase64  string    `json:"pdf_base64,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
	FileSize   int64     `json:"file_size"`
}

// KeySheetRecord is a key sheet row in the auxiliary relational store.
// The store's own cascade configuration removes dependents on delete.
type KeySheetRecord struct {
	ID         string             `gorm:"type:varchar(64);primaryKey" json:"id"`
	Filename   string             `gorm:"type:varchar(255);not null" json:"filename"`
	PDFURL     string             `gorm:"type:varchar(500);column:pdf_url" json:"pdf_url"`
	UploadedAt time.Time          `gorm:"not null;index;column:uploaded_at" json:"uploaded_at"`
	Metadata   *KeyMetadataRecord `gorm:"foreignKey:KeySheetID;constraint:OnDelete:CASCADE" json:"metadata,omitempty"`
}

func (KeySheetRecord) TableName() string {
	return "key_sheets"
}

// KeyMetadataRecord is a key metadata row in the auxiliary relational store
type KeyMetadataRecord struct {
	ID             string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	KeySheetID     string    `gorm:"type:varchar(64);not null;index;column:key_sheet_id" json:"key_sheet_id"`
	SubjectName    string    `gorm:"type:varchar(200);not null;column:subject_name" json:"subject_name"`
	TotalQuestions int       `gorm:"not null;column:total_questions" json:"total_questions"`
	TotalScore     float64   `gorm:"not null;column:total_score" json:"total_score"`
	GradeSystem    string    `gorm:"type:varchar(100);not null;default:'A/B/C';column:grade_system" json:"grade_system"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (KeyMetadataRecord) TableName() string {
	return "key_metadata"
}
