// Package common defines shared constants and sentinel errors used across
// the cache and index layers of twosync. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("local storage error")

	// Precondition errors, returned before any I/O.
	ErrMissingCredentials = errors.New("twos user id and token are required")
	ErrIndexNotConfigured = errors.New("openai client not initialized")
	ErrNoVectorStore      = errors.New("vector store id not found, sync data first")

	// Index pipeline errors.
	ErrNoEntries = errors.New("no entries found in twos data")
	ErrNoChunks  = errors.New("no data available to sync")
)
