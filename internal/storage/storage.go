package storage

import "errors"

// ErrNotFound is returned by any store when the referenced row does not
// exist.
var ErrNotFound = errors.New("not found")
