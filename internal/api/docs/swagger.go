package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// MatchRequest is the body of POST /v1/matches
type MatchRequest struct {
	ImageURL  string  `json:"image_url" example:"https://cdn.example.com/uploads/me.jpg"`
	Corpus    string  `json:"corpus" example:"event-photos"`
	Threshold float64 `json:"threshold,omitempty" example:"0.91"`
}

// ScanStats summarises one corpus scan
type ScanStats struct {
	Listed     int `json:"listed" example:"120"`
	Filtered   int `json:"filtered" example:"3"`
	Excluded   int `json:"excluded" example:"1"`
	Candidates int `json:"candidates" example:"116"`
	Matched    int `json:"matched" example:"4"`
	Skipped    int `json:"skipped" example:"0"`
}

// MatchResponse lists the corpus entries that show the query's face
type MatchResponse struct {
	RunID           string    `json:"run_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	MatchingEntries []string  `json:"matchingEntries" example:"[\"img_0012.jpg\"]"`
	MatchingURLs    []string  `json:"matchingUrls,omitempty" example:"[\"https://storage.googleapis.com/event-photos/img_0012.jpg\"]"`
	Threshold       float64   `json:"threshold" example:"0.91"`
	Stats           ScanStats `json:"stats"`
	LatencyMs       int64     `json:"latency_ms" example:"5400"`
}

// UploadResponse is a MatchResponse plus the temporary corpus name of the upload
type UploadResponse struct {
	MatchResponse
	UploadedName string `json:"uploaded_name" example:"upload_550e8400-e29b-41d4-a716-446655440000.jpg"`
}

// ImageEntry is one corpus object
type ImageEntry struct {
	Name string `json:"name" example:"img_0012.jpg"`
	URL  string `json:"url,omitempty" example:"https://storage.googleapis.com/event-photos/img_0012.jpg"`
}

// ImageListResponse lists a corpus
type ImageListResponse struct {
	Corpus string       `json:"corpus" example:"event-photos"`
	Images []ImageEntry `json:"images"`
	Total  int          `json:"total" example:"1"`
}

// CaptureRequest is a diagnostic event sent by a client
type CaptureRequest struct {
	Level   string         `json:"level" example:"error"`
	Message string         `json:"message" example:"Error processing img_0012.jpg"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// CaptureResponse acknowledges a captured event
type CaptureResponse struct {
	Message string `json:"message" example:"Log received successfully"`
}

// ScanAudit is the stored summary of one run
type ScanAudit struct {
	ID           string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	QueryName    string  `json:"query_name" example:"me.jpg"`
	Corpus       string  `json:"corpus" example:"event-photos"`
	Threshold    float64 `json:"threshold" example:"0.91"`
	MatchesCount int     `json:"matches_count" example:"4"`
	Candidates   int     `json:"candidates" example:"116"`
	Skipped      int     `json:"skipped" example:"0"`
	ErrorCode    string  `json:"error_code,omitempty" example:"NO_FACE_DETECTED"`
	LatencyMs    int64   `json:"latency_ms" example:"5400"`
	CreatedAt    string  `json:"created_at" example:"2024-01-01T00:00:00Z"`
}

// ScanListResponse lists recent runs
type ScanListResponse struct {
	Scans []ScanAudit `json:"scans"`
	Count int         `json:"count" example:"1"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"INVALID_ARGUMENTS"`
	Message string `json:"message" example:"invalid arguments"`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "facefinder API",
		Version:     "v1.0.0",
		Description: "Finds the images of a corpus that show the same person as a query photo",
		Host:        "localhost:3000",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/matches - Match a face against a corpus
		endpoint.New(
			endpoint.POST,
			"/v1/matches",
			endpoint.WithTags("Matches"),
			endpoint.WithSummary("Find corpus images showing the query face"),
			endpoint.WithDescription("Downloads image_url, extracts its first face and scans every png/jpg/jpeg entry of corpus. The query's own file name is excluded from the results."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(MatchRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MatchResponse{}, "200", "Scan completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_ARGUMENTS", Message: "invalid arguments"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "no face detected"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "ACQUISITION_FAILED", Message: "query image could not be downloaded"}, "502", "Bad Gateway"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/uploads - Match an uploaded photo
		endpoint.New(
			endpoint.POST,
			"/v1/uploads",
			endpoint.WithTags("Matches"),
			endpoint.WithSummary("Find corpus images showing the face in an uploaded photo"),
			endpoint.WithDescription("Stores the multipart field image in corpus under a temporary name, scans the corpus with that entry excluded, then deletes it. Form fields: image (file), corpus, threshold (optional). Only available when the blob backend accepts writes."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UploadResponse{}, "200", "Scan completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_ARGUMENTS", Message: "invalid arguments"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "no face detected"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "multiple faces detected"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/images - Corpus listing
		endpoint.New(
			endpoint.GET,
			"/v1/images",
			endpoint.WithTags("Corpora"),
			endpoint.WithSummary("List the objects of a corpus"),
			endpoint.WithDescription("Returns every object name in corpus, with a public URL when PUBLIC_BASE_URL is configured."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("corpus", parameter.Query, parameter.WithDescription("Bucket or directory to list (required)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ImageListResponse{}, "200", "Corpus listed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_ARGUMENTS", Message: "invalid arguments"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "CORPUS_SCAN_FAILED", Message: "corpus could not be listed"}, "502", "Bad Gateway"),
			}),
		),

		// GET /v1/scans - Recent runs
		endpoint.New(
			endpoint.GET,
			"/v1/scans",
			endpoint.WithTags("Scans"),
			endpoint.WithSummary("List recent runs"),
			endpoint.WithDescription("Lists stored run summaries, newest first. Only available when a database is configured."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("corpus", parameter.Query, parameter.WithDescription("Only runs against this corpus")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of runs (default 50, max 500)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ScanListResponse{}, "200", "Runs retrieved"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_ARGUMENTS", Message: "invalid arguments"}, "400", "Bad Request"),
			}),
		),

		// GET /v1/scans/{id} - One run
		endpoint.New(
			endpoint.GET,
			"/v1/scans/{id}",
			endpoint.WithTags("Scans"),
			endpoint.WithSummary("Get one run"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Run ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ScanAudit{}, "200", "Run retrieved"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SCAN_NOT_FOUND", Message: "scan not found"}, "404", "Not Found"),
			}),
		),

		// POST /capture-logs - Diagnostic events
		endpoint.New(
			endpoint.POST,
			"/capture-logs",
			endpoint.WithTags("Diagnostics"),
			endpoint.WithSummary("Capture a diagnostic event"),
			endpoint.WithDescription("Receives events emitted by LOG_ENDPOINT sinks and writes them to the service log."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(CaptureRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CaptureResponse{}, "200", "Event recorded"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_ARGUMENTS", Message: "invalid arguments"}, "400", "Bad Request"),
			}),
		),

		// GET /health, /ready
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
		),
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe, checks the database when configured"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
