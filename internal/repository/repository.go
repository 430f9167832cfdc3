package repository

import "github.com/tablero-dev/tablero/internal/models"

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// UpdateAvatar sets the avatar URL for a user
	UpdateAvatar(id uint64, avatarURL string) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project together with its owner set atomically
	Create(project *models.Project, ownerIDs []uint64) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// FindByIDAndOwner finds a project owned by the given user
	FindByIDAndOwner(id, ownerID uint64) (*models.Project, error)

	// ListByOwner lists all projects whose owner set contains the user
	ListByOwner(ownerID uint64) ([]models.Project, error)

	// UpdateTitle renames a project in a single owner-scoped update
	UpdateTitle(id, ownerID uint64, title string) (*models.Project, error)

	// DeleteCascade removes the project's cards, its owner rows and the
	// project itself in one transaction, scoped by owner
	DeleteCascade(id, ownerID uint64) (*models.Project, error)
}

// CardFilter holds filtering options for listing cards
type CardFilter struct {
	OwnerID   uint64
	ProjectID *uint64
}

// CardRepository defines the interface for card data access
type CardRepository interface {
	// Create creates a new card
	Create(card *models.Card) error

	// FindByID finds a card by ID
	FindByID(id uint64) (*models.Card, error)

	// List retrieves cards matching the filter
	List(filter CardFilter) ([]models.Card, error)

	// UpdateFields applies a sparse field update in a single statement
	// scoped by card ID and owner, returning the updated card
	UpdateFields(id, ownerID uint64, fields map[string]interface{}) (*models.Card, error)

	// DeleteByIDAndOwner removes a card scoped by ID and owner in one
	// transaction, returning the deleted card
	DeleteByIDAndOwner(id, ownerID uint64) (*models.Card, error)

	// AppendFile adds an attachment URL to a card; re-appending the same
	// URL is a no-op
	AppendFile(id uint64, fileURL string) (*models.Card, error)
}
