// Package acquire downloads the query image.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

var (
	ErrInvalidURL = errors.New("image url must be an absolute http or https url")
	ErrTooLarge   = errors.New("image exceeds maximum size")
)

type Config struct {
	Timeout        time.Duration
	Retries        int
	MaxBytes       int64
	InitialBackoff time.Duration
	UserAgent      string
}

func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		Retries:        2,
		MaxBytes:       20 << 20,
		InitialBackoff: 500 * time.Millisecond,
		UserAgent:      "facefinder/1.0",
	}
}

// Fetcher downloads images over HTTP. Transport errors and 5xx answers are
// retried with exponential backoff; 4xx answers are not.
type Fetcher struct {
	client *http.Client
	config Config
}

func NewFetcher(config Config) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: config.Timeout},
		config: config,
	}
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// Fetch returns the body of rawURL. Every failure is a domain.ErrAcquisition.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domain.ErrAcquisition.WithError(fmt.Errorf("%w: %q", ErrInvalidURL, rawURL))
	}

	var body []byte
	op := func() error {
		data, err := f.get(ctx, u.String())
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && se.code < 500 {
				return backoff.Permanent(err)
			}
			if errors.Is(err, ErrTooLarge) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = data
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.config.InitialBackoff
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(max(f.config.Retries, 0))), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return nil, domain.ErrAcquisition.WithError(fmt.Errorf("download %s: %w", rawURL, err))
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}

	limit := f.config.MaxBytes
	if limit <= 0 {
		return io.ReadAll(resp.Body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}

// ExclusionName is the last path segment of rawURL, percent-decoded, with
// query and fragment ignored. It names the corpus entry that is the query
// itself. Unparseable URLs and URLs ending in "/" yield "".
func ExclusionName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := u.Path
	if p == "" || p[len(p)-1] == '/' {
		return ""
	}
	return path.Base(p)
}
