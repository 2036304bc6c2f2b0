package client

import "errors"

var (
	// ErrFetch marks every failed snapshot fetch.
	ErrFetch = errors.New("failed to fetch data from twos")

	// ErrUnavailable and ErrUnauthorized refine ErrFetch.
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)
