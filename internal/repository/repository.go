// Package repository holds the pgx-backed stores. Every repository built
// without a pool reports ErrUnavailable so callers can degrade reads and
// surface write failures.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrUnavailable signals that no relational store is configured.
var ErrUnavailable = errors.New("persistence unavailable")

// ErrStale is returned by conditional updates whose precondition no longer holds.
var ErrStale = errors.New("record changed concurrently")

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
