package domain

import "errors"

var (
	ErrNotFound              = errors.New("record not found")
	ErrAlreadyExists         = errors.New("record already exists")
	ErrNoCurrentRecord       = errors.New("no current record")
	ErrAmbiguousCurrentState = errors.New("ambiguous current state")
	ErrValidationFailed      = errors.New("validation failed")
)
