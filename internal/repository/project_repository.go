package repository

import (
	"time"

	"github.com/tablero-dev/tablero/internal/database"
	"github.com/tablero-dev/tablero/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a project together with its owner set atomically
func (r *GormProjectRepository) Create(project *models.Project, ownerIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}

		owners := make([]models.ProjectOwner, len(ownerIDs))
		for i, userID := range ownerIDs {
			owners[i] = models.ProjectOwner{
				ProjectID: project.ID,
				UserID:    userID,
				AddedAt:   time.Now(),
			}
		}

		if err := tx.Create(&owners).Error; err != nil {
			return err
		}

		project.Owners = owners
		return nil
	})
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.Preload("Owners").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByIDAndOwner finds a project owned by the given user
func (r *GormProjectRepository) FindByIDAndOwner(id, ownerID uint64) (*models.Project, error) {
	var project models.Project
	err := r.db.Preload("Owners").
		Scopes(database.OwnedProjects(ownerID)).
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByOwner lists all projects whose owner set contains the user
func (r *GormProjectRepository) ListByOwner(ownerID uint64) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.Preload("Owners").
		Scopes(database.OwnedProjects(ownerID)).
		Order("projects.created_at ASC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateTitle renames a project in a single owner-scoped update
func (r *GormProjectRepository) UpdateTitle(id, ownerID uint64, title string) (*models.Project, error) {
	var project models.Project
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Project{}).
			Where("id = ?", id).
			Scopes(database.OwnedProjects(ownerID)).
			Update("title", title)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Preload("Owners").First(&project, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteCascade removes the project's cards, its owner rows and the project
// itself in one transaction, scoped by owner. Cards go first so a failure
// can never leave orphans behind a deleted project.
func (r *GormProjectRepository) DeleteCascade(id, ownerID uint64) (*models.Project, error) {
	var project models.Project
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Owners").
			Scopes(database.OwnedProjects(ownerID)).
			First(&project, id).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.Card{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectOwner{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}
