package outcome

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// FailureKind classifies why an external call produced no value.
type FailureKind string

const (
	KindNone        FailureKind = ""
	KindTimeout     FailureKind = "timeout"
	KindNetwork     FailureKind = "network"
	KindMalformed   FailureKind = "malformed"
	KindUpstream    FailureKind = "upstream"
	KindUnavailable FailureKind = "unavailable"
)

// Result carries either a value or the kind of failure that prevented one.
// External calls return a Result and callers decide how to degrade.
type Result[T any] struct {
	value T
	kind  FailureKind
	err   error
}

// Success wraps a value.
func Success[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Failure wraps a failure kind and the underlying cause.
func Failure[T any](kind FailureKind, err error) Result[T] {
	if kind == KindNone {
		kind = KindUpstream
	}
	return Result[T]{kind: kind, err: err}
}

// FromError builds a failed Result, classifying err.
func FromError[T any](err error) Result[T] {
	return Failure[T](Classify(err), err)
}

func (r Result[T]) OK() bool { return r.kind == KindNone }

func (r Result[T]) Value() T { return r.value }

func (r Result[T]) Kind() FailureKind { return r.kind }

func (r Result[T]) Err() error { return r.err }

// ValueOr returns the value on success and fallback otherwise.
func (r Result[T]) ValueOr(fallback T) T {
	if r.OK() {
		return r.value
	}
	return fallback
}

// MalformedError marks a response that could not be interpreted.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string { return "malformed response: " + e.Reason }

// UpstreamError marks a non-success status from a collaborator.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return "upstream returned an error status"
	}
	return "upstream error: " + e.Body
}

// Classify maps an error from an outbound call to a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return KindNone
	}

	var malformed *MalformedError
	if errors.As(err, &malformed) {
		return KindMalformed
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		if upstream.StatusCode == 503 {
			return KindUnavailable
		}
		return KindUpstream
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindNetwork
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}

	return KindUpstream
}
