// Package service orchestrates the grading workflow: batch creation,
// student submissions, evaluation triggering and result summarization.
// It validates inputs before any network call and owns the sequencing of
// multi-step operations.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/examgrid/gradeflow/internal/domain"
	"github.com/examgrid/gradeflow/internal/repository"
	"github.com/examgrid/gradeflow/internal/results"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

// Gateway is the backend surface the grading workflow depends on. The
// concrete implementation is backend.Client; tests substitute a double.
type Gateway interface {
	UploadKeySheetFile(ctx context.Context, file domain.UploadFile) (string, error)
	SetKeySheetMetadata(ctx context.Context, keySheetID string, input domain.KeyMetadataInput) (*domain.KeySheetCreation, error)
	UploadStudentScripts(ctx context.Context, keySheetID string, files []domain.StudentFile) ([]domain.StudentScript, error)
	UploadStudentFile(ctx context.Context, keySheetID string, file domain.UploadFile, studentID string) domain.StudentUploadOutcome
	EvaluateStudentScripts(ctx context.Context, keySheetID string) ([]domain.EvaluationResult, error)
	GetEvaluationResults(ctx context.Context, keySheetID string) (json.RawMessage, error)
	GetStudentSheet(ctx context.Context, studentID string) (*domain.StudentSheet, error)
	CheckBackendHealth(ctx context.Context) bool
}

// GradingService drives one grading batch at a time against the backend
// gateway and the optional auxiliary store. It is stateless between calls.
type GradingService struct {
	gateway    Gateway
	aggregator *results.Aggregator
	keySheets  *repository.KeySheetRepository
	logger     *zap.Logger
}

// NewGradingService creates the workflow service. keySheets may be nil when
// the auxiliary store is not configured; list and delete then return an error.
func NewGradingService(gateway Gateway, keySheets *repository.KeySheetRepository, logger *zap.Logger) *GradingService {
	return &GradingService{
		gateway:    gateway,
		aggregator: results.NewAggregator(gateway, logger),
		keySheets:  keySheets,
		logger:     logger,
	}
}

// UploadKeySheet performs the two-phase batch creation: key sheet file
// upload, then metadata assignment, strictly in that order. If the first
// step succeeds and the second fails, the backend's key sheet record is left
// without metadata; no compensating delete is issued and the orphaned id is
// logged for manual follow-up.
func (s *GradingService) UploadKeySheet(ctx context.Context, file domain.UploadFile, input domain.KeyMetadataInput) (*domain.KeySheetCreation, error) {
	if err := validate.Struct(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	keySheetID, err := s.gateway.UploadKeySheetFile(ctx, file)
	if err != nil {
		return nil, err
	}

	creation, err := s.gateway.SetKeySheetMetadata(ctx, keySheetID, input)
	if err != nil {
		s.logger.Warn("key sheet created but metadata assignment failed, backend record left without metadata",
			zap.String("key_sheet_id", keySheetID),
			zap.Error(err),
		)
		return nil, err
	}
	return creation, nil
}

// SetKeySheetMetadata validates and attaches metadata to an existing key sheet
func (s *GradingService) SetKeySheetMetadata(ctx context.Context, keySheetID string, input domain.KeyMetadataInput) (*domain.KeySheetCreation, error) {
	if err := validate.Struct(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return s.gateway.SetKeySheetMetadata(ctx, keySheetID, input)
}

// UploadStudentScripts validates each student id and submits the whole batch
// in one request. It errors on any failure of the request; per-file backend
// failure is not observable at this layer.
func (s *GradingService) UploadStudentScripts(ctx context.Context, keySheetID string, files []domain.StudentFile) ([]domain.StudentScript, error) {
	for _, f := range files {
		if err := validateStudentID(f.StudentID); err != nil {
			return nil, err
		}
	}
	return s.gateway.UploadStudentScripts(ctx, keySheetID, files)
}

// UploadStudentFile submits one student's script and reports a structured
// outcome instead of an error, so iteration over many students continues
// past individual failures.
func (s *GradingService) UploadStudentFile(ctx context.Context, keySheetID string, file domain.UploadFile, studentID string) domain.StudentUploadOutcome {
	if err := validateStudentID(studentID); err != nil {
		return domain.StudentUploadOutcome{Success: false, Message: err.Error()}
	}
	return s.gateway.UploadStudentFile(ctx, keySheetID, file, studentID)
}

// EvaluateStudentScripts fires the asynchronous grading request for a batch.
// Completion is observed only by polling the results.
func (s *GradingService) EvaluateStudentScripts(ctx context.Context, keySheetID string) ([]domain.EvaluationResult, error) {
	return s.gateway.EvaluateStudentScripts(ctx, keySheetID)
}

// GetEvaluationResults returns the backend's raw results body untouched
func (s *GradingService) GetEvaluationResults(ctx context.Context, keySheetID string) (json.RawMessage, error) {
	return s.gateway.GetEvaluationResults(ctx, keySheetID)
}

// GetEvaluationSummary returns the normalized results with derived statistics
func (s *GradingService) GetEvaluationSummary(ctx context.Context, keySheetID string) (*domain.EvaluationSummary, error) {
	return s.aggregator.GetEvaluationSummary(ctx, keySheetID)
}

// GetStudentSheet fetches the stored copy of one student's document
func (s *GradingService) GetStudentSheet(ctx context.Context, studentID string) (*domain.StudentSheet, error) {
	if err := validateStudentID(studentID); err != nil {
		return nil, err
	}
	return s.gateway.GetStudentSheet(ctx, studentID)
}

// CheckBackendHealth reports backend liveness; never errors
func (s *GradingService) CheckBackendHealth(ctx context.Context) bool {
	return s.gateway.CheckBackendHealth(ctx)
}

// ListKeySheets lists key sheets with metadata from the auxiliary store,
// newest upload first
func (s *GradingService) ListKeySheets(ctx context.Context) ([]domain.KeySheetRecord, error) {
	if s.keySheets == nil {
		return nil, fmt.Errorf("auxiliary store not configured")
	}
	return s.keySheets.List(ctx)
}

// DeleteKeySheet removes a key sheet row from the auxiliary store. Cascading
// removal of dependents is the store's configuration.
func (s *GradingService) DeleteKeySheet(ctx context.Context, id string) error {
	if s.keySheets == nil {
		return fmt.Errorf("auxiliary store not configured")
	}
	if err := s.keySheets.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete key sheet",
			zap.String("key_sheet_id", id),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("key sheet deleted", zap.String("key_sheet_id", id))
	return nil
}

// validateStudentID rejects ids that cannot safely be embedded in a filename
func validateStudentID(studentID string) error {
	if studentID == "" {
		return fmt.Errorf("%w: student id is required", domain.ErrInvalidInput)
	}
	if len(studentID) > 100 {
		return fmt.Errorf("%w: student id exceeds 100 characters", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(studentID, `/\`) || strings.Contains(studentID, "..") {
		return fmt.Errorf("%w: student id %q contains path characters", domain.ErrInvalidInput, studentID)
	}
	return nil
}
