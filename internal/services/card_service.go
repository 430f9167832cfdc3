package services

import (
	"errors"
	"fmt"

	"github.com/tablero-dev/tablero/internal/apierrors"
	"github.com/tablero-dev/tablero/internal/models"
	"github.com/tablero-dev/tablero/internal/pubsub"
	"github.com/tablero-dev/tablero/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCardTitleRequired = errors.New("title is required")
	ErrNoProjectTarget   = errors.New("no project supplied and no default project configured")
)

// CardService handles card business logic. Every mutation publishes a card
// change event after the write succeeds.
type CardService struct {
	cardRepo         repository.CardRepository
	projectRepo      repository.ProjectRepository
	broker           *pubsub.Broker
	defaultProjectID uint64
}

// NewCardService creates a new CardService.
func NewCardService(cardRepo repository.CardRepository, projectRepo repository.ProjectRepository, broker *pubsub.Broker, defaultProjectID uint64) *CardService {
	return &CardService{
		cardRepo:         cardRepo,
		projectRepo:      projectRepo,
		broker:           broker,
		defaultProjectID: defaultProjectID,
	}
}

// ListCardsInput represents filters for listing cards.
type ListCardsInput struct {
	UserID    uint64
	ProjectID *uint64
}

// ListCards returns the caller's cards, optionally restricted to a project.
func (s *CardService) ListCards(input ListCardsInput) ([]models.Card, error) {
	cards, err := s.cardRepo.List(repository.CardFilter{
		OwnerID:   input.UserID,
		ProjectID: input.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

// CreateCardInput represents input for creating a card.
type CreateCardInput struct {
	Title       string
	Description string
	DueDate     string
	Type        string
	Color       string
	ProjectID   *uint64
	UserID      uint64
}

// CreateCard creates a card owned by the caller. Without an explicit project
// the configured default project is used; either way the project must exist.
func (s *CardService) CreateCard(input CreateCardInput) (*models.Card, error) {
	if input.Title == "" {
		return nil, ErrCardTitleRequired
	}

	projectID := s.defaultProjectID
	if input.ProjectID != nil {
		projectID = *input.ProjectID
	}
	if projectID == 0 {
		return nil, ErrNoProjectTarget
	}

	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	card := &models.Card{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Type:        input.Type,
		Color:       input.Color,
		UserID:      input.UserID,
		ProjectID:   projectID,
	}

	if err := s.cardRepo.Create(card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	s.broker.Publish(pubsub.TopicCardCreated, *card)

	return card, nil
}

// EditCardInput represents a sparse field update; nil fields stay untouched.
type EditCardInput struct {
	Title       *string
	Description *string
	DueDate     *string
	Color       *string
}

// EditCard applies the supplied fields to a card owned by the caller. The
// lookup and the update are one owner-scoped statement; a miss means the
// card does not exist or belongs to someone else, and the two cases are
// deliberately indistinguishable.
func (s *CardService) EditCard(cardID, userID uint64, input EditCardInput) (*models.Card, error) {
	fields := make(map[string]interface{})
	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrCardTitleRequired
		}
		fields["title"] = *input.Title
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.DueDate != nil {
		fields["due_date"] = *input.DueDate
	}
	if input.Color != nil {
		fields["color"] = *input.Color
	}

	if len(fields) == 0 {
		card, err := s.cardRepo.FindByID(cardID)
		if err != nil || card.UserID != userID {
			return nil, apierrors.ErrNotFoundOrUnauthorized
		}
		return card, nil
	}

	card, err := s.cardRepo.UpdateFields(cardID, userID, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("failed to edit card: %w", err)
	}

	s.broker.Publish(pubsub.TopicCardUpdated, *card)

	return card, nil
}

// UpdateCardType changes only the status/type field, owner-scoped.
func (s *CardService) UpdateCardType(cardID, userID uint64, cardType string) (*models.Card, error) {
	card, err := s.cardRepo.UpdateFields(cardID, userID, map[string]interface{}{"type": cardType})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("failed to update card type: %w", err)
	}

	s.broker.Publish(pubsub.TopicCardUpdated, *card)

	return card, nil
}

// DeleteCard removes a card owned by the caller via a single atomic
// find-and-delete, returning the deleted card.
func (s *CardService) DeleteCard(cardID, userID uint64) (*models.Card, error) {
	card, err := s.cardRepo.DeleteByIDAndOwner(cardID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("failed to delete card: %w", err)
	}

	s.broker.Publish(pubsub.TopicCardDeleted, *card)

	return card, nil
}
