package repository

import "errors"

// ErrNotFound is returned by mutations whose target row does not exist.
// Lookups report a missing row as (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert hits a unique key.
var ErrDuplicate = errors.New("duplicate record")
