package signer

import (
	"context"
	"errors"
	"fmt"
	"net"

	"solana-copy-trader/internal/chain"
	"solana-copy-trader/internal/httpclient"
)

// ErrNoSigner is returned by FromContext when no signer was attached.
var ErrNoSigner = errors.New("no signer in context")

// SignError is a failure to produce a signature. It is never retried.
type SignError struct {
	Err error
}

func (e *SignError) Error() string { return fmt.Sprintf("sign transaction: %v", e.Err) }
func (e *SignError) Unwrap() error { return e.Err }

// SubmitError is a failure to submit a signed transaction.
type SubmitError struct {
	Err       error
	Transient bool
}

func (e *SubmitError) Error() string {
	if e.Transient {
		return fmt.Sprintf("submit transaction (transient): %v", e.Err)
	}
	return fmt.Sprintf("submit transaction: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a SubmitError worth retrying.
func IsTransient(err error) bool {
	var se *SubmitError
	return errors.As(err, &se) && se.Transient
}

// classifySubmit wraps a send failure, marking transport errors, throttling,
// server errors and expired blockhashes as transient.
func classifySubmit(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &SubmitError{Err: err}
	}

	var rpcErr *chain.RPCError
	if errors.As(err, &rpcErr) {
		return &SubmitError{Err: err, Transient: rpcErr.BlockhashExpired()}
	}

	var transportErr *chain.TransportError
	if errors.As(err, &transportErr) {
		return &SubmitError{Err: err, Transient: true}
	}

	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) {
		return &SubmitError{Err: err, Transient: apiErr.Temporary()}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &SubmitError{Err: err, Transient: true}
	}

	return &SubmitError{Err: err}
}

func blockhashExpired(err error) bool {
	var rpcErr *chain.RPCError
	return errors.As(err, &rpcErr) && rpcErr.BlockhashExpired()
}
