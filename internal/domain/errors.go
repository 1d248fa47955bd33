package domain

import (
	"errors"
	"fmt"
)

// Failure categories for the grading workflow. Backend call sites wrap
// these over the underlying transport or HTTP error.
var (
	// ErrKeySheetUpload is returned when the answer-key upload fails
	ErrKeySheetUpload = errors.New("key sheet upload failed")

	// ErrMetadataAssignment is returned when attaching metadata to a key sheet fails
	ErrMetadataAssignment = errors.New("key sheet metadata assignment failed")

	// ErrStudentUpload is returned when a batch student-script upload fails
	ErrStudentUpload = errors.New("student script upload failed")

	// ErrEvaluationTrigger is returned when the evaluation start request fails
	ErrEvaluationTrigger = errors.New("evaluation trigger failed")

	// ErrMalformedResponse marks a parsed response that matches no recognized shape
	ErrMalformedResponse = errors.New("malformed backend response")

	// ErrInvalidInput is returned when input validation fails before any network call
	ErrInvalidInput = errors.New("invalid input")
)

// HTTPError is a response received with a non-success status. The message
// carries the status and, where obtainable, the response body text.
type HTTPError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: backend returned status %d: %s", e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: backend returned status %d", e.Operation, e.StatusCode)
}
