package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/similarity"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database (optional, enables scan audits and rate limiting)
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Provider
	FaceProvider     string        `envconfig:"FACE_PROVIDER" default:"deepface"`
	DeepFaceURL      string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string        `envconfig:"DEEPFACE_MODEL" default:"Facenet512"`
	DeepFaceDetector string        `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`
	DeepFaceTimeout  time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	DeepFaceRetries  int           `envconfig:"DEEPFACE_RETRIES" default:"3"`
	DlibModelsDir    string        `envconfig:"DLIB_MODELS_DIR" default:"models"`

	// Preflight
	RequireSingleFace bool   `envconfig:"REQUIRE_SINGLE_FACE" default:"false"`
	PreflightProvider string `envconfig:"PREFLIGHT_PROVIDER" default:"rekognition"`

	// Corpus storage
	BlobBackend        string `envconfig:"BLOB_BACKEND" default:"gcs"`
	GCSCredentialsFile string `envconfig:"GCS_CREDENTIALS_FILE"`
	AWSRegion          string `envconfig:"AWS_REGION" default:"us-east-1"`
	S3Endpoint         string `envconfig:"S3_ENDPOINT"`
	S3UsePathStyle     bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
	PublicBaseURL      string `envconfig:"PUBLIC_BASE_URL"`

	// Matching
	MatchThreshold  float64       `envconfig:"MATCH_THRESHOLD" default:"0.91"`
	CanonicalPolicy string        `envconfig:"CANONICAL_POLICY" default:"first"`
	ExcludeMatch    string        `envconfig:"EXCLUDE_MATCH" default:"exact"`
	ScanWorkers     int           `envconfig:"SCAN_WORKERS" default:"1"`
	EntryTimeout    time.Duration `envconfig:"ENTRY_TIMEOUT" default:"60s"`
	StagingDir      string        `envconfig:"STAGING_DIR"`

	// Query acquisition
	AcquireTimeout  time.Duration `envconfig:"ACQUIRE_TIMEOUT" default:"30s"`
	AcquireRetries  int           `envconfig:"ACQUIRE_RETRIES" default:"2"`
	AcquireMaxBytes int64         `envconfig:"ACQUIRE_MAX_BYTES" default:"20971520"`

	// Diagnostics
	LogEndpoint string `envconfig:"LOG_ENDPOINT"`

	// Rate limiting for POST /v1/matches, requests per minute per client IP. 0 disables.
	MatchRateLimit int `envconfig:"MATCH_RATE_LIMIT" default:"0"`
}

var (
	ErrInvalidThreshold = errors.New("MATCH_THRESHOLD must be within [-1, 1]")
	ErrInvalidWorkers   = errors.New("SCAN_WORKERS must be at least 1")
	ErrInvalidTimeout   = errors.New("timeouts must not be negative")
)

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations that envconfig cannot express.
func (c *Config) Validate() error {
	if !similarity.ValidThreshold(c.MatchThreshold) {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, c.MatchThreshold)
	}
	if c.ScanWorkers < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.ScanWorkers)
	}
	if c.EntryTimeout < 0 || c.AcquireTimeout < 0 || c.DeepFaceTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.AcquireRetries < 0 || c.DeepFaceRetries < 0 || c.MatchRateLimit < 0 {
		return errors.New("retry counts and rate limits must not be negative")
	}

	enums := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"FACE_PROVIDER", c.FaceProvider, []string{"deepface", "dlib", "mock"}},
		{"PREFLIGHT_PROVIDER", c.PreflightProvider, []string{"rekognition", "extractor"}},
		{"BLOB_BACKEND", c.BlobBackend, []string{"gcs", "s3", "fs"}},
		{"CANONICAL_POLICY", c.CanonicalPolicy, []string{"first", "largest"}},
		{"EXCLUDE_MATCH", c.ExcludeMatch, []string{"exact", "fold"}},
	}
	for _, e := range enums {
		if !slices.Contains(e.allowed, e.value) {
			return fmt.Errorf("%s must be one of %v, got %q", e.name, e.allowed, e.value)
		}
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasDatabase reports whether audit persistence and rate limiting are enabled.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
