package datagrid

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrMalformedResponse = errors.New("datagrid: unexpected response shape")
	ErrActionInFlight    = errors.New("datagrid: action already in flight for target")
	ErrForbidden         = errors.New("datagrid: session role cannot modify records")
	ErrInvalidPerPage    = errors.New("datagrid: per page must be one of 25, 50, 100")
	ErrExportFailed      = errors.New("datagrid: export failed")
	ErrStaleResponse     = errors.New("datagrid: response superseded by a newer request")
	errMissingClient     = errors.New("datagrid: client not configured")
	errMissingCollection = errors.New("datagrid: entity collection is required")
	errMissingID         = errors.New("datagrid: record id is required")
)

const genericFetchError = "Failed to fetch data"

// ValidationError lists the fields that failed client-side validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "datagrid: validation failed (" + strings.Join(parts, "; ") + ")"
}

// RemoteError is a server-rejected request carrying the server's message.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("datagrid: remote error %d", e.StatusCode)
	}
	return fmt.Sprintf("datagrid: remote error %d: %s", e.StatusCode, e.Message)
}

// ErrorClass buckets failures by how they are surfaced.
type ErrorClass string

const (
	ClassNone       ErrorClass = ""
	ClassValidation ErrorClass = "validation"
	ClassTransient  ErrorClass = "transient"
	ClassRejected   ErrorClass = "rejected"
	ClassShape      ErrorClass = "shape"
	ClassStale      ErrorClass = "stale"
)

// Classify maps an error onto the grid's error taxonomy.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return ClassValidation
	}
	if errors.Is(err, ErrStaleResponse) {
		return ClassStale
	}
	var rerr *RemoteError
	if errors.As(err, &rerr) {
		return ClassRejected
	}
	if errors.Is(err, ErrMalformedResponse) {
		return ClassShape
	}
	return ClassTransient
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error, fallback string) string {
	var rerr *RemoteError
	if errors.As(err, &rerr) && strings.TrimSpace(rerr.Message) != "" {
		return rerr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out"
	}
	return fallback
}
