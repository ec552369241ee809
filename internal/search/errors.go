package search

import "errors"

var (
	ErrInvalidKeyword   = errors.New("invalid keyword")
	ErrInvalidIncrement = errors.New("increment must be at least 1")
)
