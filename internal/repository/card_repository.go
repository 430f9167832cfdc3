package repository

import (
	"github.com/tablero-dev/tablero/internal/database"
	"github.com/tablero-dev/tablero/internal/models"
	"gorm.io/gorm"
)

// GormCardRepository is a GORM implementation of CardRepository
type GormCardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a new CardRepository
func NewCardRepository(db *gorm.DB) CardRepository {
	return &GormCardRepository{db: db}
}

// Create creates a new card
func (r *GormCardRepository) Create(card *models.Card) error {
	return r.db.Create(card).Error
}

// FindByID finds a card by ID
func (r *GormCardRepository) FindByID(id uint64) (*models.Card, error) {
	var card models.Card
	if err := r.db.First(&card, id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// List retrieves cards matching the filter
func (r *GormCardRepository) List(filter CardFilter) ([]models.Card, error) {
	var cards []models.Card
	query := r.db.Scopes(database.OwnedCards(filter.OwnerID))

	if filter.ProjectID != nil {
		query = query.Where("cards.project_id = ?", *filter.ProjectID)
	}

	if err := query.Order("cards.created_at ASC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// UpdateFields applies a sparse field update in a single statement scoped by
// card ID and owner. The ownership predicate rides in the UPDATE itself, so
// concurrent edits cannot interleave a read-then-write.
func (r *GormCardRepository) UpdateFields(id, ownerID uint64, fields map[string]interface{}) (*models.Card, error) {
	var card models.Card
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Card{}).
			Where("id = ? AND user_id = ?", id, ownerID).
			Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.First(&card, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteByIDAndOwner removes a card scoped by ID and owner in one
// transaction, returning the deleted card.
func (r *GormCardRepository) DeleteByIDAndOwner(id, ownerID uint64) (*models.Card, error) {
	var card models.Card
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, ownerID).First(&card).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Card{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// AppendFile adds an attachment URL to a card. Re-appending the same URL is
// a no-op so upload retries stay idempotent.
func (r *GormCardRepository) AppendFile(id uint64, fileURL string) (*models.Card, error) {
	var card models.Card
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&card, id).Error; err != nil {
			return err
		}

		files := card.FileList()
		for _, existing := range files {
			if existing == fileURL {
				return nil
			}
		}

		files = append(files, fileURL)
		if err := card.SetFileList(files); err != nil {
			return err
		}

		return tx.Model(&card).Update("files", card.Files).Error
	})
	if err != nil {
		return nil, err
	}
	return &card, nil
}
