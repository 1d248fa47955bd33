// Package results normalizes the grading backend's result payloads and
// derives summary statistics from them. The backend has returned several
// wire shapes over time; the aggregator flattens whichever one arrives
// into a canonical record list before computing anything.
package results

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/examgrid/gradeflow/internal/domain"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// HighPerformerRatio is the score fraction at or above which a student
// counts as a high performer
const HighPerformerRatio = 0.85

// DefaultTotalScore is the denominator used when the raw body carries no
// total-score field in any known spelling
const DefaultTotalScore = 100

// Shape classifies which of the known wire layouts a raw results body used
type Shape string

const (
	ShapeArray        Shape = "array"
	ShapeResults      Shape = "results"
	ShapeEvaluations  Shape = "evaluations"
	ShapeUnrecognized Shape = "unrecognized"
)

// Fetcher is the slice of the backend client the aggregator depends on
type Fetcher interface {
	GetEvaluationResults(ctx context.Context, keySheetID string) (json.RawMessage, error)
}

// Aggregator fetches raw results and turns them into a canonical summary
type Aggregator struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewAggregator creates an aggregator over the given results source
func NewAggregator(fetcher Fetcher, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// GetEvaluationSummary fetches the batch's results, normalizes them and
// computes the derived statistics. An unrecognized body shape degrades to
// an empty result set with a logged warning rather than an error.
func (a *Aggregator) GetEvaluationSummary(ctx context.Context, keySheetID string) (*domain.EvaluationSummary, error) {
	raw, err := a.fetcher.GetEvaluationResults(ctx, keySheetID)
	if err != nil {
		a.logger.Error("failed to fetch evaluation results",
			zap.String("key_sheet_id", keySheetID),
			zap.Error(err),
		)
		return nil, err
	}

	records, shape := Normalize(raw)
	if shape == ShapeUnrecognized {
		a.logger.Warn("evaluation results body matched no recognized shape, treating as empty",
			zap.String("key_sheet_id", keySheetID),
			zap.Int("body_bytes", len(raw)),
		)
	}

	totalScore := ResolveTotalScore(raw)
	stats := Summarize(records, totalScore)

	a.logger.Debug("evaluation summary computed",
		zap.String("key_sheet_id", keySheetID),
		zap.String("shape", string(shape)),
		zap.Int("total_students", stats.TotalStudents),
		zap.Float64("average_score", stats.AverageScore),
	)

	return &domain.EvaluationSummary{
		Results:    records,
		Summary:    stats,
		TotalScore: totalScore,
	}, nil
}

// Normalize flattens a raw results body into an ordered record list.
// Precedence: the body itself is an array, then a results array field,
// then an evaluations array field. Anything else classifies as
// unrecognized and yields an empty list.
func Normalize(raw []byte) ([]domain.EvaluationResult, Shape) {
	if !gjson.ValidBytes(raw) {
		return []domain.EvaluationResult{}, ShapeUnrecognized
	}

	body := gjson.ParseBytes(raw)

	if body.IsArray() {
		return decodeRecords(body), ShapeArray
	}
	if field := body.Get("results"); field.IsArray() {
		return decodeRecords(field), ShapeResults
	}
	if field := body.Get("evaluations"); field.IsArray() {
		return decodeRecords(field), ShapeEvaluations
	}
	return []domain.EvaluationResult{}, ShapeUnrecognized
}

// ResolveTotalScore picks the maximum attainable score from the raw body,
// trying the known field spellings in order and falling back to the default
func ResolveTotalScore(raw []byte) float64 {
	body := gjson.ParseBytes(raw)
	for _, field := range []string{"total_score", "totalScore", "max_score"} {
		if v := body.Get(field); v.Exists() {
			return v.Float()
		}
	}
	return DefaultTotalScore
}

// Summarize computes the batch statistics over normalized records. A
// missing score counts as 0; the average is rounded to two decimal places
// and defined as 0 for an empty batch.
func Summarize(records []domain.EvaluationResult, totalScore float64) domain.SummaryStats {
	stats := domain.SummaryStats{
		TotalStudents:  len(records),
		EvaluatedCount: len(records),
	}
	if len(records) == 0 {
		return stats
	}

	var sum float64
	for _, r := range records {
		sum += r.Score
		if totalScore > 0 && r.Score/totalScore >= HighPerformerRatio {
			stats.HighPerformers++
		}
	}
	stats.AverageScore = math.Round(sum/float64(len(records))*100) / 100
	return stats
}

// decodeRecords reads each array element field by field so one oddly typed
// field does not discard the whole record
func decodeRecords(list gjson.Result) []domain.EvaluationResult {
	records := make([]domain.EvaluationResult, 0, int(list.Get("#").Int()))
	list.ForEach(func(_, item gjson.Result) bool {
		rec := domain.EvaluationResult{
			ID:              item.Get("id").String(),
			StudentScriptID: item.Get("student_script_id").String(),
			StudentID:       item.Get("student_id").String(),
			Score:           item.Get("score").Float(),
			Grade:           item.Get("grade").String(),
			Feedback:        item.Get("feedback").String(),
		}
		if ts := item.Get("evaluated_at").String(); ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				rec.EvaluatedAt = t
			}
		}
		records = append(records, rec)
		return true
	})
	return records
}
