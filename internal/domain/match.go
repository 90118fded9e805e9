package domain

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CorpusEntry is one addressable object in a remote corpus.
type CorpusEntry struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
}

// imageContentTypes is the extension allowlist for corpus entries.
var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// NewCorpusEntry infers the content type from the extension of name.
// ok is false when the extension is not an allowed image type.
func NewCorpusEntry(name string) (entry CorpusEntry, ok bool) {
	ct, ok := imageContentTypes[strings.ToLower(path.Ext(name))]
	if !ok {
		return CorpusEntry{Name: name}, false
	}
	return CorpusEntry{Name: name, ContentType: ct}, true
}

// ScanStats summarises one corpus scan.
type ScanStats struct {
	Listed     int `json:"listed"`
	Filtered   int `json:"filtered"`
	Excluded   int `json:"excluded"`
	Candidates int `json:"candidates"`
	Matched    int `json:"matched"`
	Skipped    int `json:"skipped"`
}

// MatchResult is the outcome of one pipeline run. MatchingEntries follows
// scan order but callers should treat it as a set.
type MatchResult struct {
	RunID           uuid.UUID     `json:"run_id"`
	Query           string        `json:"query"`
	Corpus          string        `json:"corpus"`
	Threshold       float64       `json:"threshold"`
	MatchingEntries []string      `json:"matchingEntries"`
	Stats           ScanStats     `json:"stats"`
	Duration        time.Duration `json:"-"`
}

// ScanAudit is the persisted summary of a run. It never carries embeddings.
type ScanAudit struct {
	ID           uuid.UUID `json:"id"`
	QueryName    string    `json:"query_name"`
	Corpus       string    `json:"corpus"`
	Threshold    float64   `json:"threshold"`
	MatchesCount int       `json:"matches_count"`
	Candidates   int       `json:"candidates"`
	Skipped      int       `json:"skipped"`
	ErrorCode    *string   `json:"error_code,omitempty"`
	LatencyMs    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResultPayload is the structured success output of a run.
type ResultPayload struct {
	MatchingEntries []string `json:"matchingEntries"`
}

// ErrorPayload is the structured failure output of a run.
type ErrorPayload struct {
	Error string `json:"error"`
}

// NewResultPayload never returns a nil slice so an empty match set encodes
// as [] rather than null.
func NewResultPayload(r *MatchResult) ResultPayload {
	entries := r.MatchingEntries
	if entries == nil {
		entries = []string{}
	}
	return ResultPayload{MatchingEntries: entries}
}

// NewErrorPayload maps err to the message reported to callers. Usage and
// no-face outcomes use their fixed messages.
func NewErrorPayload(err error) ErrorPayload {
	appErr := AsAppError(err)
	switch appErr.Code {
	case ErrUsage.Code, ErrNoFaceDetected.Code, ErrMultipleFaces.Code:
		return ErrorPayload{Error: appErr.Message}
	}
	return ErrorPayload{Error: appErr.Error()}
}
