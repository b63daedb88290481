package repositories

import (
	"context"

	"github.com/annolab/assessment-service/internal/models"
	"gorm.io/gorm"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Query  string // Search query for name or email
	Limit  int    // Page size
	Offset int    // Offset for pagination
}

// UserRepository interface for user operations. Profile data is owned
// upstream; this service reads profiles and writes role statuses only.
type UserRepository interface {
	// Basic read operations
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)

	// List and search operations
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error)

	// Status writes. UpdateRoleStatuses performs a versioned
	// compare-and-swap and returns ErrStatusConflict when expectedVersion
	// no longer matches the stored row.
	UpdateRoleStatuses(ctx context.Context, tx *gorm.DB, id string, statuses models.RoleStatusPair, expectedVersion int) error
}
