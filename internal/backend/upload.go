package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/examgrid/gradeflow/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadKeySheetFile sends the answer-key document as a single-file
// multipart submission and returns the backend-assigned key sheet id.
// No retry is attempted on failure.
func (c *Client) UploadKeySheetFile(ctx context.Context, file domain.UploadFile) (string, error) {
	body, err := c.postMultipart(ctx, "upload key sheet", "/upload-key", func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("file", file.Filename)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, file.Content)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrKeySheetUpload, err)
	}

	var resp struct {
		KeyID string `json:"key_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", domain.ErrKeySheetUpload, err)
	}
	if resp.KeyID == "" {
		return "", fmt.Errorf("%w: response carried no key_id", domain.ErrKeySheetUpload)
	}

	c.logger.Info("key sheet uploaded",
		zap.String("key_sheet_id", resp.KeyID),
		zap.String("filename", file.Filename),
	)
	return resp.KeyID, nil
}

// SetKeySheetMetadata attaches scoring configuration to an existing key
// sheet. GradeSystem defaults to "A/B/C" when empty. The returned pair is
// authoritative only in its key sheet id; descriptive fields stay
// provisional until the backend's own records are read back.
func (c *Client) SetKeySheetMetadata(ctx context.Context, keySheetID string, input domain.KeyMetadataInput) (*domain.KeySheetCreation, error) {
	gradeSystem := input.GradeSystem
	if gradeSystem == "" {
		gradeSystem = domain.DefaultGradeSystem
	}

	values := url.Values{}
	values.Set("subject_name", input.SubjectName)
	values.Set("total_questions", strconv.Itoa(input.TotalQuestions))
	values.Set("total_score", strconv.FormatFloat(input.TotalScore, 'f', -1, 64))
	values.Set("grade_system", gradeSystem)
	values.Set("key_sheet_id", keySheetID)

	if _, err := c.postForm(ctx, "set key sheet metadata", "/set-metadata", values); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMetadataAssignment, err)
	}

	c.logger.Info("key sheet metadata assigned",
		zap.String("key_sheet_id", keySheetID),
		zap.String("subject", input.SubjectName),
	)

	return &domain.KeySheetCreation{
		KeySheet: domain.KeySheet{
			ID:    keySheetID,
			State: domain.RecordStateProvisional,
		},
		Metadata: domain.KeyMetadata{
			ID:             uuid.New().String(),
			KeySheetID:     keySheetID,
			SubjectName:    input.SubjectName,
			TotalQuestions: input.TotalQuestions,
			TotalScore:     input.TotalScore,
			GradeSystem:    gradeSystem,
			CreatedAt:      time.Now().UTC(),
			State:          domain.RecordStateProvisional,
		},
	}, nil
}

// UploadStudentScripts submits one or many student documents for a batch as
// a single multipart request. Each file part is renamed to the student id
// plus the original extension, and an explicit student_ids field accompanies
// each part so identity survives ambiguous filenames. The request is atomic
// at the transport layer; per-file backend failure is not observable here.
// On success it returns one locally-id-synthesized projection per file.
func (c *Client) UploadStudentScripts(ctx context.Context, keySheetID string, files []domain.StudentFile) ([]domain.StudentScript, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", domain.ErrStudentUpload)
	}

	_, err := c.postMultipart(ctx, "upload student scripts", "/upload-students", func(w *multipart.Writer) error {
		if err := w.WriteField("key_sheet_id", keySheetID); err != nil {
			return err
		}
		for _, f := range files {
			if err := w.WriteField("student_ids", f.StudentID); err != nil {
				return err
			}
			part, err := w.CreateFormFile("files", scriptFilename(f.StudentID, f.File.Filename))
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, f.File.Content); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStudentUpload, err)
	}

	now := time.Now().UTC()
	scripts := make([]domain.StudentScript, 0, len(files))
	for _, f := range files {
		scripts = append(scripts, domain.StudentScript{
			ID:         uuid.New().String(),
			KeySheetID: keySheetID,
			StudentID:  f.StudentID,
			Filename:   scriptFilename(f.StudentID, f.File.Filename),
			UploadedAt: now,
			State:      domain.RecordStateProvisional,
		})
	}

	c.logger.Info("student scripts uploaded",
		zap.String("key_sheet_id", keySheetID),
		zap.Int("count", len(scripts)),
	)
	return scripts, nil
}

// UploadStudentFile submits a single student document and reports the
// outcome as a structured value instead of an error, so callers iterating
// many students can continue past individual failures.
func (c *Client) UploadStudentFile(ctx context.Context, keySheetID string, file domain.UploadFile, studentID string) domain.StudentUploadOutcome {
	scripts, err := c.UploadStudentScripts(ctx, keySheetID, []domain.StudentFile{
		{StudentID: studentID, File: file},
	})
	if err != nil {
		c.logger.Warn("single student upload failed",
			zap.String("key_sheet_id", keySheetID),
			zap.String("student_id", studentID),
			zap.Error(err),
		)
		return domain.StudentUploadOutcome{
			Success: false,
			Message: err.Error(),
		}
	}

	return domain.StudentUploadOutcome{
		Success: true,
		Message: fmt.Sprintf("script for student %s uploaded", studentID),
		Script:  &scripts[0],
	}
}

// scriptFilename rewrites an uploaded filename to carry the student id,
// preserving the original extension
func scriptFilename(studentID, original string) string {
	return studentID + filepath.Ext(original)
}
