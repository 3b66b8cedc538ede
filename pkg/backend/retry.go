package backend

import (
	"context"
	"math"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// RetryConfig defines retry behavior for backend calls.
type RetryConfig struct {
	MaxRetries    int           `json:"max_retries" yaml:"max_retries" mapstructure:"max-retries"`
	BackoffBase   time.Duration `json:"backoff_base" yaml:"backoff_base" mapstructure:"backoff-base"`
	BackoffFactor float64       `json:"backoff_factor" yaml:"backoff_factor" mapstructure:"backoff-factor"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    2,
		BackoffBase:   time.Second,
		BackoffFactor: 2.0,
	}
}

func (rc RetryConfig) backoff(attempt int) time.Duration {
	return time.Duration(float64(rc.BackoffBase) * math.Pow(rc.BackoffFactor, float64(attempt)))
}

// RetryableError is implemented by errors that know whether repeating the
// request can succeed.
type RetryableError interface {
	error
	Retryable() bool
}

// IsRetryable reports whether err is worth retrying: errors that say so,
// and network timeouts. Context cancellation never is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// RetryingClient wraps a Client with exponential backoff on retryable errors.
type RetryingClient struct {
	client Client
	config RetryConfig
}

var _ Client = (*RetryingClient)(nil)
var _ Describer = (*RetryingClient)(nil)

func NewRetryingClient(client Client, config RetryConfig) *RetryingClient {
	return &RetryingClient{client: client, config: config}
}

func (r *RetryingClient) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := r.config.backoff(attempt - 1)
			log.Debug().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Err(lastErr).
				Msg("backend: retrying request")
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "cancelled during retry backoff")
			case <-time.After(backoff):
			}
		}

		resp, err := r.client.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, errors.Wrapf(lastErr, "giving up after %d retries", r.config.MaxRetries)
}

func (r *RetryingClient) Name() string {
	if d, ok := r.client.(Describer); ok {
		return d.Name()
	}
	return "unknown"
}

func (r *RetryingClient) ContextWindow() int {
	if d, ok := r.client.(Describer); ok {
		return d.ContextWindow()
	}
	return 0
}
