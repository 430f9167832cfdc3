package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tablero-dev/tablero/internal/apierrors"
	"github.com/tablero-dev/tablero/internal/constants"
	"github.com/tablero-dev/tablero/internal/models"
	"github.com/tablero-dev/tablero/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrFileNameRequired = errors.New("file name is required")
	ErrEntityIDRequired = errors.New("entity id is required")
	ErrFileTooLarge     = errors.New("file exceeds the upload size limit")
)

// UploadService persists base64 file payloads to disk and records the
// resulting public URL on the owning entity. Paths are keyed by entity id,
// so a redelivered upload overwrites the same file and stays idempotent.
type UploadService struct {
	userRepo repository.UserRepository
	cardRepo repository.CardRepository
	rootDir  string
}

// NewUploadService creates a new UploadService rooted at dir.
func NewUploadService(userRepo repository.UserRepository, cardRepo repository.CardRepository, dir string) *UploadService {
	return &UploadService{
		userRepo: userRepo,
		cardRepo: cardRepo,
		rootDir:  dir,
	}
}

// SaveAvatar stores a user's avatar and updates the user record. Returns the
// public avatar URL.
func (s *UploadService) SaveAvatar(userID uint64, fileName, fileContent string) (string, error) {
	name, err := safeFileName(userID, fileName)
	if err != nil {
		return "", err
	}

	if err := s.writeFile(filepath.Join(s.rootDir, "avatars"), name, fileContent); err != nil {
		return "", err
	}

	avatarURL := "/avatars/" + name
	if err := s.userRepo.UpdateAvatar(userID, avatarURL); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apierrors.ErrUserNotFound
		}
		return "", fmt.Errorf("failed to update avatar: %w", err)
	}

	return avatarURL, nil
}

// SaveCardFile stores a card attachment and appends its URL to the card's
// file list. Returns the card and the public file URL.
func (s *UploadService) SaveCardFile(cardID uint64, fileName, fileContent string) (*models.Card, string, error) {
	name, err := safeFileName(cardID, fileName)
	if err != nil {
		return nil, "", err
	}

	if err := s.writeFile(filepath.Join(s.rootDir, "tasks"), name, fileContent); err != nil {
		return nil, "", err
	}

	fileURL := "/uploads/tasks/" + name
	card, err := s.cardRepo.AppendFile(cardID, fileURL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apierrors.ErrCardNotFound
		}
		return nil, "", fmt.Errorf("failed to record attachment: %w", err)
	}

	return card, fileURL, nil
}

func (s *UploadService) writeFile(dir, name, fileContent string) error {
	data, err := base64.StdEncoding.DecodeString(fileContent)
	if err != nil {
		return fmt.Errorf("invalid base64 payload: %w", err)
	}
	if len(data) > constants.MaxUploadBytes {
		return ErrFileTooLarge
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// safeFileName builds the deterministic entity-keyed file name, stripping
// any path components from the client-supplied name.
func safeFileName(entityID uint64, fileName string) (string, error) {
	if entityID == 0 {
		return "", ErrEntityIDRequired
	}

	base := filepath.Base(fileName)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", ErrFileNameRequired
	}

	return fmt.Sprintf("%d_%s", entityID, base), nil
}
