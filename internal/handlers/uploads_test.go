package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/tablero-dev/tablero/internal/models"
	"github.com/tablero-dev/tablero/internal/pubsub"
	"github.com/tablero-dev/tablero/internal/repository"
	"github.com/tablero-dev/tablero/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type uploadHandlerTestEnv struct {
	server *httptest.Server
	user   *models.User
	card   *models.Card
}

func setupUploadHandlerTestEnv(t *testing.T) uploadHandlerTestEnv {
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

	user := &models.User{Email: "uploader@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	projectRepo := repository.NewProjectRepository(db)
	project := &models.Project{Title: "Board"}
	require.NoError(t, projectRepo.Create(project, []uint64{user.ID}))

	broker := pubsub.NewBroker()
	t.Cleanup(broker.Close)
	cardRepo := repository.NewCardRepository(db)
	cards := services.NewCardService(cardRepo, projectRepo, broker, 0)
	card, err := cards.CreateCard(services.CreateCardInput{
		Title:     "Attach here",
		DueDate:   "2026-09-15",
		ProjectID: &project.ID,
		UserID:    user.ID,
	})
	require.NoError(t, err)

	uploads := services.NewUploadService(
		repository.NewUserRepository(db),
		cardRepo,
		t.TempDir(),
	)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/uploads", NewUploadHandler(uploads).Handle)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return uploadHandlerTestEnv{server: server, user: user, card: card}
}

func dialUploads(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/uploads"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
	})
	return conn
}

func readAck(t *testing.T, conn *websocket.Conn) uploadResponse {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var resp uploadResponse
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestUploadHandler_Avatar(t *testing.T) {
	env := setupUploadHandlerTestEnv(t)
	conn := dialUploads(t, env.server)

	require.NoError(t, conn.WriteJSON(uploadRequest{
		Event:       eventUploadAvatar,
		RequestID:   "req-1",
		UserID:      env.user.ID,
		FileName:    "me.png",
		FileContent: base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	}))

	resp := readAck(t, conn)
	require.Equal(t, "req-1", resp.RequestID)
	require.True(t, resp.Success)
	require.Equal(t, fmt.Sprintf("/avatars/%d_me.png", env.user.ID), resp.AvatarURL)
}

func TestUploadHandler_TaskFile(t *testing.T) {
	env := setupUploadHandlerTestEnv(t)
	conn := dialUploads(t, env.server)

	require.NoError(t, conn.WriteJSON(uploadRequest{
		Event:       eventUploadTaskFile,
		RequestID:   "req-2",
		CardID:      env.card.ID,
		FileName:    "spec.pdf",
		FileContent: base64.StdEncoding.EncodeToString([]byte("pdf-bytes")),
	}))

	resp := readAck(t, conn)
	require.Equal(t, "req-2", resp.RequestID)
	require.True(t, resp.Success)
	require.Equal(t, fmt.Sprintf("/uploads/tasks/%d_spec.pdf", env.card.ID), resp.FileURL)
}

func TestUploadHandler_Failures(t *testing.T) {
	env := setupUploadHandlerTestEnv(t)
	conn := dialUploads(t, env.server)

	// Unknown card: acked as a failure, connection stays usable.
	require.NoError(t, conn.WriteJSON(uploadRequest{
		Event:       eventUploadTaskFile,
		RequestID:   "req-3",
		CardID:      9999,
		FileName:    "spec.pdf",
		FileContent: base64.StdEncoding.EncodeToString([]byte("pdf-bytes")),
	}))
	resp := readAck(t, conn)
	require.Equal(t, "req-3", resp.RequestID)
	require.False(t, resp.Success)
	require.Equal(t, "card not found", resp.Message)

	// Missing user id on an avatar upload.
	require.NoError(t, conn.WriteJSON(uploadRequest{
		Event:       eventUploadAvatar,
		RequestID:   "req-4",
		FileName:    "me.png",
		FileContent: base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	}))
	resp = readAck(t, conn)
	require.False(t, resp.Success)

	// Unknown event type.
	require.NoError(t, conn.WriteJSON(uploadRequest{
		Event:     "upload_mystery",
		RequestID: "req-5",
	}))
	resp = readAck(t, conn)
	require.False(t, resp.Success)
	require.Equal(t, "unknown upload event", resp.Message)
}
