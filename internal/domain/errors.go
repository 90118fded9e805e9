package domain

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so a value produced by
// WithError still satisfies errors.Is against its sentinel.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrUsage = &AppError{
		Code:       "INVALID_ARGUMENTS",
		Message:    "invalid arguments",
		StatusCode: 400,
	}

	ErrAcquisition = &AppError{
		Code:       "ACQUISITION_FAILED",
		Message:    "query image could not be downloaded",
		StatusCode: 502,
	}

	ErrExtraction = &AppError{
		Code:       "EXTRACTION_FAILED",
		Message:    "face extraction failed",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "no face detected",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "MULTIPLE_FACES",
		Message:    "multiple faces detected",
		StatusCode: 422,
	}

	ErrCorpusScan = &AppError{
		Code:       "CORPUS_SCAN_FAILED",
		Message:    "corpus could not be listed",
		StatusCode: 502,
	}

	ErrDimensionMismatch = &AppError{
		Code:       "DIMENSION_MISMATCH",
		Message:    "embedding dimensions differ",
		StatusCode: 500,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}
)

// ExtractionError reports that faces could not be extracted from one image.
// Ref identifies the image (URL, corpus key or staged path).
type ExtractionError struct {
	Ref string
	Err error
}

func NewExtractionError(ref string, err error) *ExtractionError {
	return &ExtractionError{Ref: ref, Err: err}
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract faces from %s: %v", e.Ref, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// AsAppError resolves err to the AppError that should be reported at a
// process or HTTP boundary. Unknown errors map to ErrInternal.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return ErrExtraction.WithError(extErr)
	}
	return ErrInternal.WithError(err)
}
