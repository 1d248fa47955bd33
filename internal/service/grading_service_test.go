package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/examgrid/gradeflow/internal/domain"
	"github.com/examgrid/gradeflow/internal/repository"
	"github.com/examgrid/gradeflow/internal/service"
	"github.com/examgrid/gradeflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGateway records calls and plays back configured responses
type fakeGateway struct {
	calls []string

	uploadKeyID string
	uploadErr   error
	metadataErr error
	scriptsErr  error
	triggerErr  error
	resultsBody json.RawMessage
	healthy     bool

	lastMetadataKeySheetID string
	lastMetadataInput      domain.KeyMetadataInput
}

func (f *fakeGateway) UploadKeySheetFile(ctx context.Context, file domain.UploadFile) (string, error) {
	f.calls = append(f.calls, "upload-key")
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return f.uploadKeyID, nil
}

func (f *fakeGateway) SetKeySheetMetadata(ctx context.Context, keySheetID string, input domain.KeyMetadataInput) (*domain.KeySheetCreation, error) {
	f.calls = append(f.calls, "set-metadata")
	f.lastMetadataKeySheetID = keySheetID
	f.lastMetadataInput = input
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	gradeSystem := input.GradeSystem
	if gradeSystem == "" {
		gradeSystem = domain.DefaultGradeSystem
	}
	return &domain.KeySheetCreation{
		KeySheet: domain.KeySheet{ID: keySheetID, State: domain.RecordStateProvisional},
		Metadata: domain.KeyMetadata{
			KeySheetID:  keySheetID,
			SubjectName: input.SubjectName,
			GradeSystem: gradeSystem,
			State:       domain.RecordStateProvisional,
		},
	}, nil
}

func (f *fakeGateway) UploadStudentScripts(ctx context.Context, keySheetID string, files []domain.StudentFile) ([]domain.StudentScript, error) {
	f.calls = append(f.calls, "upload-students")
	if f.scriptsErr != nil {
		return nil, f.scriptsErr
	}
	scripts := make([]domain.StudentScript, 0, len(files))
	for _, file := range files {
		scripts = append(scripts, domain.StudentScript{
			KeySheetID: keySheetID,
			StudentID:  file.StudentID,
			State:      domain.RecordStateProvisional,
		})
	}
	return scripts, nil
}

func (f *fakeGateway) UploadStudentFile(ctx context.Context, keySheetID string, file domain.UploadFile, studentID string) domain.StudentUploadOutcome {
	f.calls = append(f.calls, "upload-student")
	if f.scriptsErr != nil {
		return domain.StudentUploadOutcome{Success: false, Message: f.scriptsErr.Error()}
	}
	return domain.StudentUploadOutcome{Success: true, Script: &domain.StudentScript{StudentID: studentID}}
}

func (f *fakeGateway) EvaluateStudentScripts(ctx context.Context, keySheetID string) ([]domain.EvaluationResult, error) {
	f.calls = append(f.calls, "evaluate")
	if f.triggerErr != nil {
		return nil, f.triggerErr
	}
	return []domain.EvaluationResult{}, nil
}

func (f *fakeGateway) GetEvaluationResults(ctx context.Context, keySheetID string) (json.RawMessage, error) {
	f.calls = append(f.calls, "get-results")
	return f.resultsBody, nil
}

func (f *fakeGateway) GetStudentSheet(ctx context.Context, studentID string) (*domain.StudentSheet, error) {
	f.calls = append(f.calls, "get-student-sheet")
	return &domain.StudentSheet{StudentID: studentID}, nil
}

func (f *fakeGateway) CheckBackendHealth(ctx context.Context) bool {
	f.calls = append(f.calls, "health")
	return f.healthy
}

func newTestService(gw *fakeGateway) *service.GradingService {
	return service.NewGradingService(gw, nil, zap.NewNop())
}

func validInput() domain.KeyMetadataInput {
	return domain.KeyMetadataInput{
		SubjectName:    "Chemistry",
		TotalQuestions: 25,
		TotalScore:     50,
	}
}

func TestUploadKeySheet_Sequencing(t *testing.T) {
	gw := &fakeGateway{uploadKeyID: "ks-7"}
	svc := newTestService(gw)

	creation, err := svc.UploadKeySheet(context.Background(), domain.UploadFile{
		Filename: "key.pdf", Content: strings.NewReader("k"),
	}, validInput())
	require.NoError(t, err)

	// metadata assignment runs only after the upload resolves, with its id
	assert.Equal(t, []string{"upload-key", "set-metadata"}, gw.calls)
	assert.Equal(t, "ks-7", gw.lastMetadataKeySheetID)
	assert.Equal(t, "ks-7", creation.Metadata.KeySheetID)
}

func TestUploadKeySheet_UploadFailureStopsWorkflow(t *testing.T) {
	gw := &fakeGateway{uploadErr: domain.ErrKeySheetUpload}
	svc := newTestService(gw)

	_, err := svc.UploadKeySheet(context.Background(), domain.UploadFile{
		Filename: "key.pdf", Content: strings.NewReader("k"),
	}, validInput())

	assert.ErrorIs(t, err, domain.ErrKeySheetUpload)
	assert.Equal(t, []string{"upload-key"}, gw.calls, "metadata must not be attempted after a failed upload")
}

func TestUploadKeySheet_NoCompensationOnMetadataFailure(t *testing.T) {
	gw := &fakeGateway{uploadKeyID: "ks-7", metadataErr: domain.ErrMetadataAssignment}
	svc := newTestService(gw)

	_, err := svc.UploadKeySheet(context.Background(), domain.UploadFile{
		Filename: "key.pdf", Content: strings.NewReader("k"),
	}, validInput())

	assert.ErrorIs(t, err, domain.ErrMetadataAssignment)
	// the created key sheet is left as-is; no further calls are issued
	assert.Equal(t, []string{"upload-key", "set-metadata"}, gw.calls)
}

func TestUploadKeySheet_InvalidInput(t *testing.T) {
	gw := &fakeGateway{uploadKeyID: "ks-7"}
	svc := newTestService(gw)

	tests := []struct {
		name  string
		input domain.KeyMetadataInput
	}{
		{"missing subject", domain.KeyMetadataInput{TotalQuestions: 10, TotalScore: 50}},
		{"zero questions", domain.KeyMetadataInput{SubjectName: "X", TotalScore: 50}},
		{"zero total score", domain.KeyMetadataInput{SubjectName: "X", TotalQuestions: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadKeySheet(context.Background(), domain.UploadFile{
				Filename: "key.pdf", Content: strings.NewReader("k"),
			}, tt.input)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Empty(t, gw.calls, "no network call may happen on invalid input")
		})
	}
}

func TestUploadStudentScripts_RejectsUnsafeStudentIDs(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw)

	for _, id := range []string{"", "a/b", `a\b`, "../../etc"} {
		_, err := svc.UploadStudentScripts(context.Background(), "ks-7", []domain.StudentFile{
			{StudentID: id, File: domain.UploadFile{Filename: "a.pdf", Content: strings.NewReader("a")}},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "student id %q must be rejected", id)
	}
	assert.Empty(t, gw.calls)
}

func TestUploadStudentScripts_ProjectionPerFile(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw)

	files := []domain.StudentFile{
		{StudentID: "s-001", File: domain.UploadFile{Filename: "a.pdf", Content: strings.NewReader("a")}},
		{StudentID: "s-002", File: domain.UploadFile{Filename: "b.pdf", Content: strings.NewReader("b")}},
	}
	scripts, err := svc.UploadStudentScripts(context.Background(), "ks-7", files)
	require.NoError(t, err)
	require.Len(t, scripts, len(files))
	for i := range files {
		assert.Equal(t, files[i].StudentID, scripts[i].StudentID)
		assert.Equal(t, "ks-7", scripts[i].KeySheetID)
	}
}

func TestUploadStudentFile_InvalidIDBecomesOutcome(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw)

	outcome := svc.UploadStudentFile(context.Background(), "ks-7",
		domain.UploadFile{Filename: "a.pdf", Content: strings.NewReader("a")}, "bad/id")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "path characters")
	assert.Empty(t, gw.calls)
}

func TestGetEvaluationSummary_ThroughService(t *testing.T) {
	gw := &fakeGateway{resultsBody: json.RawMessage(
		`{"evaluations":[{"score":80},{"score":90},{"score":100}],"total_score":100}`,
	)}
	svc := newTestService(gw)

	summary, err := svc.GetEvaluationSummary(context.Background(), "ks-7")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Summary.TotalStudents)
	assert.Equal(t, 90.00, summary.Summary.AverageScore)
	assert.Equal(t, 2, summary.Summary.HighPerformers)
	assert.Equal(t, 100.0, summary.TotalScore)
}

func TestListAndDelete_WithoutAuxStore(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	_, err := svc.ListKeySheets(context.Background())
	assert.Error(t, err)
	assert.Error(t, svc.DeleteKeySheet(context.Background(), "ks-7"))
}

func TestListAndDelete_WithAuxStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	require.NoError(t, db.Create(&domain.KeySheetRecord{
		ID: "ks-7", Filename: "key.pdf",
	}).Error)

	svc := service.NewGradingService(&fakeGateway{}, repository.NewKeySheetRepository(db), zap.NewNop())

	sheets, err := svc.ListKeySheets(context.Background())
	require.NoError(t, err)
	require.Len(t, sheets, 1)

	require.NoError(t, svc.DeleteKeySheet(context.Background(), "ks-7"))
	sheets, err = svc.ListKeySheets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sheets)
}

func TestCheckBackendHealth_Passthrough(t *testing.T) {
	assert.True(t, newTestService(&fakeGateway{healthy: true}).CheckBackendHealth(context.Background()))
	assert.False(t, newTestService(&fakeGateway{}).CheckBackendHealth(context.Background()))
}
