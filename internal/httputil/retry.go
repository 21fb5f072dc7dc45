// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across components: an
// explicit retry policy and error classification for transport failures.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pdiddy/glossary-engine/pkg/types"
)

// ErrorClass groups errors for retry decisions.
type ErrorClass string

const (
	ClassNone        ErrorClass = ""
	ClassConnection  ErrorClass = "connection"
	ClassRateLimited ErrorClass = "rate_limited"
	ClassServer      ErrorClass = "server"
)

// BackoffKind selects the delay schedule between attempts.
type BackoffKind string

const (
	BackoffConstant    BackoffKind = "constant"
	BackoffExponential BackoffKind = "exponential"
)

const (
	defaultMaxAttempts = 3
	defaultDelay       = 2 * time.Second
)

// RetryPolicy describes how many times an operation is attempted, how long to
// wait in between, and which error classes are worth another attempt.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffKind
	Delay       time.Duration
	RetryOn     []ErrorClass
}

// DefaultRetryPolicy retries connection failures three times in total with a
// fixed two-second delay and no jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultMaxAttempts,
		Backoff:     BackoffConstant,
		Delay:       defaultDelay,
		RetryOn:     []ErrorClass{ClassConnection},
	}
}

// PolicyFromConfig converts a RetryConfig, filling unset fields from
// DefaultRetryPolicy.
func PolicyFromConfig(cfg types.RetryConfig) (RetryPolicy, error) {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.Delay > 0 {
		p.Delay = cfg.Delay
	}
	switch BackoffKind(cfg.Backoff) {
	case "":
	case BackoffConstant, BackoffExponential:
		p.Backoff = BackoffKind(cfg.Backoff)
	default:
		return RetryPolicy{}, fmt.Errorf("unsupported backoff %q: use constant or exponential", cfg.Backoff)
	}
	if len(cfg.RetryOn) > 0 {
		p.RetryOn = nil
		for _, c := range cfg.RetryOn {
			switch ErrorClass(c) {
			case ClassConnection, ClassRateLimited, ClassServer:
				p.RetryOn = append(p.RetryOn, ErrorClass(c))
			default:
				return RetryPolicy{}, fmt.Errorf("unsupported retry class %q: use connection, rate_limited, or server", c)
			}
		}
	}
	return p, nil
}

// Retries reports whether errors of class c are retried.
func (p RetryPolicy) Retries(c ErrorClass) bool {
	return c != ClassNone && slices.Contains(p.RetryOn, c)
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	if p.Backoff == BackoffExponential {
		return backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(p.Delay),
			backoff.WithMultiplier(2),
			backoff.WithRandomizationFactor(0),
			backoff.WithMaxElapsedTime(0),
		)
	}
	return backoff.NewConstantBackOff(p.Delay)
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do runs op until it succeeds, returns an error the policy does not retry,
// the attempt budget runs out, or ctx ends. op receives the 1-based attempt
// number. Exhaustion is reported as *ExhaustedError wrapping the last error.
func (p RetryPolicy) Do(ctx context.Context, op func(attempt int) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}

	attempt := 0
	var last error
	b := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), uint64(p.MaxAttempts-1)), ctx)
	err := backoff.Retry(func() error {
		attempt++
		err := op(attempt)
		if err == nil {
			return nil
		}
		last = err
		if !p.Retries(Classify(err)) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && attempt >= p.MaxAttempts && p.Retries(Classify(last)) {
		return &ExhaustedError{Attempts: attempt, Err: last}
	}
	return err
}

// StatusError reports an HTTP response status that was retried.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// DoWithRetry executes an HTTP request under policy. Transport errors are
// retried when their class is in the policy; 429 and 5xx responses are
// retried when rate_limited or server are in the policy, and the last such
// response is returned as-is once attempts run out so the caller can
// inspect it. Retried response bodies are drained and closed.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = defaultMaxAttempts
	}

	var resp *http.Response
	err := policy.Do(ctx, func(attempt int) error {
		r, err := client.Do(req.Clone(ctx))
		if err != nil {
			return err
		}
		if attempt < policy.MaxAttempts && policy.Retries(StatusClass(r.StatusCode)) {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			return &StatusError{StatusCode: r.StatusCode}
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// StatusClass maps an HTTP status code to an error class.
func StatusClass(code int) ErrorClass {
	switch {
	case code == http.StatusTooManyRequests:
		return ClassRateLimited
	case code >= 500:
		return ClassServer
	default:
		return ClassNone
	}
}

// Classify maps an error to an error class. Context cancellation is never
// retryable.
func Classify(err error) ErrorClass {
	if err == nil || errors.Is(err, context.Canceled) {
		return ClassNone
	}
	var se *StatusError
	if errors.As(err, &se) {
		return StatusClass(se.StatusCode)
	}
	if IsConnectionError(err) {
		return ClassConnection
	}
	return ClassNone
}

// IsConnectionError reports whether err is a transport-level failure to
// reach or keep a connection to the server: dial and DNS errors, refused or
// reset connections, connections closed mid-response, and network timeouts.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
