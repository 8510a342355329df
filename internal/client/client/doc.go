// Package client is the gRPC client of the ledger used by the admin CLI.
//
// # Overview
//
// GRPCClient wraps a connection to the ledger service. An interceptor mints
// a short-lived admin token from the shared secret and attaches it to
// privileged calls (IncreaseRate, TriggerReset); read-only calls go out
// without one.
//
// # Error Handling
//
// gRPC status codes are mapped to sentinel errors callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrRejected, ErrNotFound. The
// server's message is kept in the wrapped error text.
package client
