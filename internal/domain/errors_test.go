package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrNoFaceDetected,
			expected: "no face detected",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{
		Code:       "TEST",
		Message:    "test",
		StatusCode: 500,
		Err:        underlying,
	}

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	if got := ErrUsage.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("bucket listing denied")
	newErr := ErrCorpusScan.WithError(underlying)

	if newErr.Code != ErrCorpusScan.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrCorpusScan.Code)
	}

	if newErr.Err != underlying {
		t.Errorf("Err = %v, want %v", newErr.Err, underlying)
	}

	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}

	// A derived error still matches its sentinel, even behind fmt wrapping.
	wrapped := fmt.Errorf("scan corpus photos: %w", newErr)
	if !errors.Is(wrapped, ErrCorpusScan) {
		t.Errorf("errors.Is should match the sentinel")
	}
	if errors.Is(wrapped, ErrAcquisition) {
		t.Errorf("errors.Is should not match a different code")
	}
}

func TestExtractionError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := fmt.Errorf("scan entry: %w", NewExtractionError("photos/a.jpg", cause))

	if !errors.Is(err, ErrExtraction) {
		t.Errorf("ExtractionError should match ErrExtraction")
	}
	if !errors.Is(err, cause) {
		t.Errorf("ExtractionError should unwrap to its cause")
	}

	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("errors.As should find the ExtractionError")
	}
	if extErr.Ref != "photos/a.jpg" {
		t.Errorf("Ref = %v, want photos/a.jpg", extErr.Ref)
	}
}

func TestAsAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"nil", nil, ""},
		{"sentinel", ErrNoFaceDetected, "NO_FACE_DETECTED"},
		{"wrapped sentinel", fmt.Errorf("run: %w", ErrAcquisition.WithError(errors.New("404"))), "ACQUISITION_FAILED"},
		{"extraction", NewExtractionError("q.jpg", errors.New("bad")), "EXTRACTION_FAILED"},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AsAppError(tt.err)
			if tt.code == "" {
				if got != nil {
					t.Errorf("AsAppError() = %v, want nil", got)
				}
				return
			}
			if got.Code != tt.code {
				t.Errorf("Code = %v, want %v", got.Code, tt.code)
			}
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *AppError
		code       string
		statusCode int
	}{
		{ErrInternal, "INTERNAL_ERROR", 500},
		{ErrUsage, "INVALID_ARGUMENTS", 400},
		{ErrAcquisition, "ACQUISITION_FAILED", 502},
		{ErrExtraction, "EXTRACTION_FAILED", 422},
		{ErrNoFaceDetected, "NO_FACE_DETECTED", 422},
		{ErrMultipleFaces, "MULTIPLE_FACES", 422},
		{ErrCorpusScan, "CORPUS_SCAN_FAILED", 502},
		{ErrDimensionMismatch, "DIMENSION_MISMATCH", 500},
		{ErrRateLimitExceeded, "RATE_LIMIT_EXCEEDED", 429},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %v, want %v", tt.err.StatusCode, tt.statusCode)
			}
		})
	}
}
