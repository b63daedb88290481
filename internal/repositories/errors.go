package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrStatusConflict is returned when a versioned user-status update
	// loses the compare-and-swap race to a concurrent writer
	ErrStatusConflict = errors.New("user status was modified concurrently")
)

// IsNotFoundError reports whether err represents a missing record,
// either our sentinel or the underlying GORM error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
