package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// ClientConfig controls transport and resilience for an Open-Meteo client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration

	// MaxRetries is the number of transport-level retries on network errors,
	// 429 and 5xx. Zero disables retrying.
	MaxRetries   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoBaseURL    = errors.New("base url not configured")
	errBadResultTyp = errors.New("unexpected result type from circuit breaker")
)

func newRestyClient(cfg ClientConfig) (*resty.Client, error) {
	if cfg.BaseURL == "" {
		return nil, errNoBaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	if cfg.RetryMaxWait <= 0 {
		cfg.RetryMaxWait = 5 * time.Second
	}

	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	return c, nil
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// A request abandoned by its caller says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})
}

// doWithBreaker sends a request through the circuit breaker and turns
// non-2xx statuses into errors. A failure after ctx is done is reported as
// the context error so the breaker does not count it.
func doWithBreaker(ctx context.Context, cb *gobreaker.CircuitBreaker, send func() (*resty.Response, error)) (*resty.Response, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		resp, err := send()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %v", ctxErr, err)
			}
			return nil, err
		}

		code := resp.StatusCode()
		switch {
		case code == http.StatusTooManyRequests:
			return nil, errRateLimited
		case code >= 500:
			return nil, fmt.Errorf("%w: %d", errServerError, code)
		case code < 200 || code >= 300:
			return nil, fmt.Errorf("%w: %d", errUnexpected, code)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*resty.Response)
	if !ok {
		return nil, errBadResultTyp
	}
	return resp, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
