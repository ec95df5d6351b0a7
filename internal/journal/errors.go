package journal

import "errors"

var (
	// ErrValidation is returned for blank or oversized dream text.
	// Rejected before any remote call.
	ErrValidation = errors.New("invalid dream text")

	// ErrRemoteService is returned when a terminal spreadsheet call
	// (create, header write, append) fails after resolution succeeded.
	ErrRemoteService = errors.New("spreadsheet service request failed")

	// ErrPersistence is returned when the reference upsert fails after
	// the append already succeeded. The entry is durable; the
	// reference is not, so the next request provisions a fresh
	// spreadsheet.
	ErrPersistence = errors.New("failed to persist spreadsheet reference")
)
