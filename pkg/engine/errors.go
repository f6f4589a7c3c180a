package engine

import "errors"

// Error kinds surfaced by the engine. Callers distinguish them with
// errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrDuplicateID is returned by Insert when the transaction id is
	// already present in the store.
	ErrDuplicateID = errors.New("transaction id already exists")

	// ErrNotFound is returned by Get, Update and Delete when no
	// transaction carries the requested id.
	ErrNotFound = errors.New("transaction not found")

	// ErrInvalidArgument is returned for malformed requests: an inverted
	// amount or timestamp range, or a non-positive top-N count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedTimestamp is returned when a supplied timestamp cannot
	// be parsed as an RFC 3339 instant.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
)
