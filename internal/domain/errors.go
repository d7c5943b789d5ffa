package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Account-token failures. Both map to the same externally visible 400 class;
// handlers must never tell the caller whether the account exists.
var (
	// ErrInvalidLink covers an undecodable identifier or an unknown principal.
	ErrInvalidLink = errors.New("invalid link")
	// ErrInvalidToken covers a MAC mismatch or a token past its window.
	ErrInvalidToken = errors.New("invalid or expired token")
)
