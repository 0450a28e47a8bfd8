package domain

import "errors"

var (
	ErrEntityNotFound = errors.New("test entity not found")
	ErrNoFields       = errors.New("at least one field must be provided")
	ErrNameRequired   = errors.New("name is required")
)
