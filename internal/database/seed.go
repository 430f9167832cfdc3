package database

import (
	"errors"
	"log"
	"time"

	"github.com/tablero-dev/tablero/internal/config"
	"github.com/tablero-dev/tablero/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	demoEmail    = "demo@tablero.dev"
	demoPassword = "demo-password"
)

// SeedDemo makes sure a demo user and a default project exist so a fresh
// install can create cards without a project id. The logged project id is
// meant to be set as DEFAULT_PROJECT_ID.
func SeedDemo(cfg *config.Config) error {
	var user models.User
	err := DB.Where("email = ?", demoEmail).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
		if hashErr != nil {
			return hashErr
		}
		user = models.User{Email: demoEmail, PasswordHash: string(hash)}
		if err := DB.Create(&user).Error; err != nil {
			return err
		}
		log.Printf("Seeded demo user %s", demoEmail)
	} else if err != nil {
		return err
	}

	if cfg.DefaultProjectID != 0 {
		var count int64
		if err := DB.Model(&models.Project{}).Where("id = ?", cfg.DefaultProjectID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
	}

	project := models.Project{Title: "General"}
	err = DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		owner := models.ProjectOwner{
			ProjectID: project.ID,
			UserID:    user.ID,
			AddedAt:   time.Now(),
		}
		return tx.Create(&owner).Error
	})
	if err != nil {
		return err
	}

	log.Printf("Seeded default project %d; set DEFAULT_PROJECT_ID=%d to use it as the card fallback", project.ID, project.ID)
	return nil
}
