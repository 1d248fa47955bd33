package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/examgrid/gradeflow/internal/domain"
	"go.uber.org/zap"
)

// EvaluateStudentScripts asks the backend to start asynchronous grading for
// a batch. It returns an empty result set immediately on success; the actual
// results materialize later and are read through the results endpoint.
// Callers must poll, no completion notification exists at this layer.
func (c *Client) EvaluateStudentScripts(ctx context.Context, keySheetID string) ([]domain.EvaluationResult, error) {
	values := url.Values{}
	values.Set("key_sheet_id", keySheetID)

	if _, err := c.postForm(ctx, "trigger evaluation", "/start-evaluation", values); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEvaluationTrigger, err)
	}

	c.logger.Info("evaluation triggered", zap.String("key_sheet_id", keySheetID))
	return []domain.EvaluationResult{}, nil
}

// GetEvaluationResults returns the raw results body for a batch without any
// normalization
func (c *Client) GetEvaluationResults(ctx context.Context, keySheetID string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("key_sheet_id", keySheetID)

	body, err := c.get(ctx, "get evaluation results", "/get-results", query)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// GetStudentSheet fetches the stored copy of one student's uploaded document
func (c *Client) GetStudentSheet(ctx context.Context, studentID string) (*domain.StudentSheet, error) {
	body, err := c.get(ctx, "get student sheet", "/get-student-sheet/"+url.PathEscape(studentID), nil)
	if err != nil {
		return nil, err
	}

	var sheet domain.StudentSheet
	if err := json.Unmarshal(body, &sheet); err != nil {
		return nil, fmt.Errorf("decode student sheet response: %w", err)
	}
	return &sheet, nil
}
