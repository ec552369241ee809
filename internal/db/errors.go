package db

import "errors"

// Domain-level database error sentinels.
var (
	ErrKeywordNotFound = errors.New("keyword not found")
)
