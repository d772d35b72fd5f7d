package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrEmptyDataset     = errors.New("dataset contains no records")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrTimeout          = errors.New("request timed out")
	ErrMaxRetries       = errors.New("max retries exceeded")
	ErrInvalidURL       = errors.New("invalid URL")
	ErrBodyTooLarge     = errors.New("response body exceeds size limit")
	ErrBodyTooShort     = errors.New("extracted text below minimum length")
	ErrAPIFailure       = errors.New("news api request failed")
)

// MalformedRecordError marks a dataset row that failed type parsing. The row
// is skipped and counted by the loader; loading continues.
type MalformedRecordError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at line %d (%s=%q): %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ExtractError wraps errors that occur while extracting article text.
type ExtractError struct {
	URL  string
	Rule string
	Err  error
}

func (e *ExtractError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("extract error for %s (rule=%q): %v", e.URL, e.Rule, e.Err)
	}
	return fmt.Sprintf("extract error for %s: %v", e.URL, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// APIError reports a non-success response code from the news API.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("news api error (code %d): %s", e.Code, e.Msg)
}

func (e *APIError) Unwrap() error { return ErrAPIFailure }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the article processing pipeline.
type PipelineError struct {
	Stage string
	URL   string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
