package database

import "gorm.io/gorm"

// OwnedCards restricts a card query to cards owned by the given user.
func OwnedCards(userID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("cards.user_id = ?", userID)
	}
}

// OwnedProjects restricts a project query to projects whose owner set
// contains the given user.
func OwnedProjects(userID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"EXISTS (SELECT 1 FROM project_owners WHERE project_owners.project_id = projects.id AND project_owners.user_id = ?)",
			userID,
		)
	}
}
