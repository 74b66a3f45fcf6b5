package errors

import "errors"

var (
	ErrNotFound = errors.New("assignment not found")

	ErrInvalidID = errors.New("invalid assignment ID format")

	ErrLocationLocked = errors.New("location is locked by another assignment")

	ErrAlreadyCompleted = errors.New("assignment is already completed")

	ErrUnknownCounter = errors.New("assigned_to is not on the counter roster")
)
