package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/banshee-data/humidity.report/internal/httputil"
	"github.com/banshee-data/humidity.report/internal/timeutil"
)

const (
	DefaultBaseURL    = "http://wttr.in"
	DefaultMaxRetries = 5
	DefaultBackoff    = 100 * time.Millisecond
)

var (
	// ErrConnection means the service could not be reached at all. The
	// scheduler rests before trying again.
	ErrConnection  = errors.New("weather service unreachable")
	ErrServerError = errors.New("weather service error")
	ErrCircuitOpen = errors.New("circuit breaker open")
	errUnexpected  = errors.New("unexpected status code")
)

// retryStatus are the responses retried with backoff.
var retryStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// FetcherConfig contains configuration for Fetcher.
type FetcherConfig struct {
	// Location is the wttr.in place name, e.g. "Charlottesville".
	Location string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// MaxRetries after the first attempt (default 5).
	MaxRetries int
	// Backoff is the first retry delay; it doubles per attempt (default 100ms).
	Backoff time.Duration

	Client httputil.HTTPClient
	Clock  timeutil.Clock
}

// Fetcher requests current conditions with retries inside a circuit breaker.
type Fetcher struct {
	cfg     FetcherConfig
	url     string
	circuit *gobreaker.CircuitBreaker
}

// NewFetcher applies defaults and builds the request URL.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if strings.TrimSpace(cfg.Location) == "" {
		return nil, errors.New("weather location is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("weather base url: %w", err)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Client == nil {
		cfg.Client = httputil.NewStandardClient(nil)
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "wttr.in",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
	})
	return &Fetcher{
		cfg:     cfg,
		url:     RequestURL(cfg.BaseURL, cfg.Location),
		circuit: cb,
	}, nil
}

// RequestURL is the wttr.in query for location. The format string is sent
// verbatim; wttr.in reads the '+' separators as spaces. "u" selects
// Fahrenheit.
func RequestURL(baseURL, location string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + url.PathEscape(location) + "?format=" + Format + "&u"
}

// URL returns the request URL.
func (f *Fetcher) URL() string { return f.url }

// State reports the circuit breaker state.
func (f *Fetcher) State() gobreaker.State { return f.circuit.State() }

// Fetch returns the current observation. Transport failures that survive
// every retry wrap ErrConnection.
func (f *Fetcher) Fetch(ctx context.Context) (Observation, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Observation{}, err
		}

		result, err := f.circuit.Execute(func() (interface{}, error) {
			return f.get(ctx)
		})
		if err == nil {
			return Clean(result.(string))
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Observation{}, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		if !errors.Is(err, ErrConnection) && !errors.Is(err, ErrServerError) {
			return Observation{}, err
		}

		lastErr = err
		if attempt >= f.cfg.MaxRetries {
			return Observation{}, lastErr
		}
		f.cfg.Clock.Sleep(f.cfg.Backoff << attempt)
	}
}

func (f *Fetcher) get(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", randomUserAgent())

	resp, err := f.cfg.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if retryStatus[resp.StatusCode] {
		return "", fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrConnection, err)
	}
	return string(body), nil
}
