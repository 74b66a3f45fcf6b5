package errors

import "errors"

var (
	ErrNotFound = errors.New("user settings not found")

	ErrUnknownLanguage = errors.New("unsupported language")

	ErrUnknownTimezone = errors.New("unknown IANA timezone")
)
