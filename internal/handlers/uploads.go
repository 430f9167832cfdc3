package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tablero-dev/tablero/internal/apierrors"
	"github.com/tablero-dev/tablero/internal/services"
)

const (
	uploadWriteWait = 10 * time.Second
	uploadPongWait  = 120 * time.Second

	eventUploadAvatar   = "upload_avatar"
	eventUploadTaskFile = "upload_task_file"
)

type uploadRequest struct {
	Event       string `json:"event"`
	RequestID   string `json:"requestId"`
	UserID      uint64 `json:"userId"`
	CardID      uint64 `json:"cardId"`
	FileName    string `json:"fileName"`
	FileContent string `json:"fileContent"`
}

type uploadResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	FileURL   string `json:"fileUrl,omitempty"`
}

// UploadHandler serves the socket upload channel for avatars and card
// attachments. Every request is acknowledged exactly once; uploads are
// idempotent because files land on entity-keyed paths.
type UploadHandler struct {
	uploads *services.UploadService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Handle upgrades the request and processes upload frames until the client
// disconnects.
func (h *UploadHandler) Handle(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Upload websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(uploadPongWait)); err != nil {
		log.Printf("Failed to set upload read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(uploadPongWait))
	})

	for {
		var req uploadRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Upload websocket error: %v", err)
			}
			return
		}

		resp := h.process(req)
		resp.RequestID = req.RequestID

		if err := conn.SetWriteDeadline(time.Now().Add(uploadWriteWait)); err != nil {
			return
		}
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("Failed to ack upload %s: %v", req.RequestID, err)
			return
		}
	}
}

func (h *UploadHandler) process(req uploadRequest) uploadResponse {
	switch req.Event {
	case eventUploadAvatar:
		avatarURL, err := h.uploads.SaveAvatar(req.UserID, req.FileName, req.FileContent)
		if err != nil {
			return failureResponse("avatar upload failed", err)
		}
		return uploadResponse{
			Success:   true,
			Message:   "avatar uploaded",
			AvatarURL: avatarURL,
		}
	case eventUploadTaskFile:
		_, fileURL, err := h.uploads.SaveCardFile(req.CardID, req.FileName, req.FileContent)
		if err != nil {
			return failureResponse("file upload failed", err)
		}
		return uploadResponse{
			Success: true,
			Message: "file uploaded",
			FileURL: fileURL,
		}
	default:
		return uploadResponse{Success: false, Message: "unknown upload event"}
	}
}

// failureResponse acks a failed upload with a user-safe message; storage
// detail stays in the server log.
func failureResponse(fallback string, err error) uploadResponse {
	switch err.(type) {
	case *apierrors.APIError:
		return uploadResponse{Success: false, Message: err.Error()}
	}
	switch err {
	case services.ErrFileNameRequired, services.ErrEntityIDRequired, services.ErrFileTooLarge:
		return uploadResponse{Success: false, Message: err.Error()}
	}
	log.Printf("%s: %v", fallback, err)
	return uploadResponse{Success: false, Message: fallback}
}
