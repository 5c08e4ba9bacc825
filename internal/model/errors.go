package model

import "errors"

// Error kinds shared by the store, the reconciliation engine and the API.
// Store errors wrap one of these so callers can branch with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)
