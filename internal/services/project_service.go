package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tablero-dev/tablero/internal/apierrors"
	"github.com/tablero-dev/tablero/internal/models"
	"github.com/tablero-dev/tablero/internal/repository"
	"gorm.io/gorm"
)

var ErrProjectTitleRequired = errors.New("project title is required")

// ProjectService handles project business logic.
type ProjectService struct {
	projectRepo repository.ProjectRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
	}
}

// CreateProject creates a project whose owner set is exactly the caller.
// Supplied owner lists are never trusted; ownership of other users cannot
// be assigned through this operation.
func (s *ProjectService) CreateProject(title string, userID uint64) (*models.Project, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrProjectTitleRequired
	}

	project := &models.Project{Title: title}
	if err := s.projectRepo.Create(project, []uint64{userID}); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// ListProjects returns all projects whose owner set contains the caller.
func (s *ProjectService) ListProjects(userID uint64) ([]models.Project, error) {
	projects, err := s.projectRepo.ListByOwner(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// EditProject renames a project owned by the caller. An empty title leaves
// the current title unchanged.
func (s *ProjectService) EditProject(projectID, userID uint64, title string) (*models.Project, error) {
	if strings.TrimSpace(title) == "" {
		project, err := s.projectRepo.FindByIDAndOwner(projectID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierrors.ErrNotFoundOrUnauthorized
			}
			return nil, fmt.Errorf("failed to find project: %w", err)
		}
		return project, nil
	}

	project, err := s.projectRepo.UpdateTitle(projectID, userID, title)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("failed to edit project: %w", err)
	}

	return project, nil
}

// DeleteProject removes a project owned by the caller together with every
// card attached to it.
func (s *ProjectService) DeleteProject(projectID, userID uint64) (*models.Project, error) {
	project, err := s.projectRepo.DeleteCascade(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("failed to delete project: %w", err)
	}

	return project, nil
}
