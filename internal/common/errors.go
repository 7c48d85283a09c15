// Package common defines shared constants and sentinel errors used across
// fundwatch components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// Collaborator errors. A call failing with one of these has not been
	// applied and is safe to retry on the next pass.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrForumUnavailable  = errors.New("forum unavailable")
	ErrMalformedResponse = errors.New("malformed response")

	// Reconciliation errors.
	ErrUnreconciled = errors.New("unreconciled donation claim")
)
