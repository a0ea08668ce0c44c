package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrInvalidParams = errors.New("invalid params")
	ErrRateLimited   = errors.New("rate limited")
	// ErrInvalidCode deliberately covers wrong, expired, consumed and never-issued
	// codes alike. Callers must not be able to tell those cases apart.
	ErrInvalidCode       = errors.New("invalid verification code")
	ErrAccountExists     = errors.New("account already exists")
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrSessionIssuance is fatal for the request but, unlike ErrTransactionFailed,
	// the account is already durable when it occurs.
	ErrSessionIssuance = errors.New("session issuance failed")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
)
