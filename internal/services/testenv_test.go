package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tablero-dev/tablero/internal/models"
	"github.com/tablero-dev/tablero/internal/pubsub"
	"github.com/tablero-dev/tablero/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectOwner{},
		&models.Card{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{Email: email, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProject(t *testing.T, db *gorm.DB, title string, ownerID uint64) *models.Project {
	t.Helper()

	repo := repository.NewProjectRepository(db)
	project := &models.Project{Title: title}
	require.NoError(t, repo.Create(project, []uint64{ownerID}))
	return project
}

func receivePublished(t *testing.T, sub *pubsub.Subscription) pubsub.Event {
	t.Helper()

	select {
	case ev, ok := <-sub.C():
		require.True(t, ok, "subscription closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
		return pubsub.Event{}
	}
}

func requireNothingPublished(t *testing.T, sub *pubsub.Subscription) {
	t.Helper()

	select {
	case ev := <-sub.C():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
