package models

import "errors"

// Server error messages travel the wire as plain strings. They are
// declared here so both sides of the protocol compare against the
// same values.
var (
	ErrInvalidID       = errors.New("invalid id")
	ErrMangaNotFound   = errors.New("manga does not exists")
	ErrChapterNotFound = errors.New("chapter does not exists")
	ErrHistoryNotFound = errors.New("history does not exists")
	ErrTagNotFound     = errors.New("tag does not exists")
)

var wireErrors = []error{
	ErrInvalidID,
	ErrMangaNotFound,
	ErrChapterNotFound,
	ErrHistoryNotFound,
	ErrTagNotFound,
}

// WireError maps a message received from the server back to its
// sentinel so callers can use errors.Is. Unknown messages come back
// as opaque errors.
func WireError(message string) error {
	for _, err := range wireErrors {
		if err.Error() == message {
			return err
		}
	}
	return errors.New(message)
}
