package errors

import "errors"

var (
	ErrNotFound = errors.New("count submission not found")

	ErrInvalidID = errors.New("invalid submission ID format")

	ErrAssignmentClosed = errors.New("assignment no longer accepts counts")
)
