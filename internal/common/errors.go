// Package common defines shared constants and sentinel errors used across
// the client and server layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("storage failure")

	// Authentication / authorization errors.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrDenied             = errors.New("access denied")
	ErrInvalidToken       = errors.New("invalid token")

	// Dataset load errors.
	ErrMalformedDataset = errors.New("malformed dataset")
	ErrEmptyDataset     = errors.New("empty dataset")

	// Mutation errors.
	ErrRowNotFound    = errors.New("row not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrTypeMismatch   = errors.New("value does not match column type")
)
