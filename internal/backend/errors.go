package backend

import (
	"io"
	"net/http"
	"strings"

	"github.com/examgrid/gradeflow/internal/domain"
)

// newHTTPError builds an HTTPError from a non-success response, reading a
// bounded amount of the body for the error text
func newHTTPError(operation string, resp *http.Response) *domain.HTTPError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &domain.HTTPError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
