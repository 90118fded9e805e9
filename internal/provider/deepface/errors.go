package deepface

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
	ErrEmptyEmbedding      = errors.New("deepface returned an empty embedding")
)

// StatusError is a non-2xx answer from the DeepFace service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.Code, e.Body)
}

// Client errors are not retried.
func (e *StatusError) clientError() bool {
	return e.Code >= 400 && e.Code < 500
}

// noFace reports whether the service rejected the image because the
// detector found nothing. DeepFace signals this with a 400 and a
// "could not be detected" message when enforce_detection is on.
func (e *StatusError) noFace() bool {
	return e.Code == 400 && strings.Contains(strings.ToLower(e.Body), "could not be detected")
}

func isClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.clientError()
}

func isNoFace(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.noFace()
}
