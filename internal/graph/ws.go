package graph

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/graphql-go/graphql"
	"github.com/tablero-dev/tablero/internal/middleware"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	msgConnectionInit      = "connection_init"
	msgConnectionAck       = "connection_ack"
	msgConnectionTerminate = "connection_terminate"
	msgStart               = "start"
	msgStop                = "stop"
	msgData                = "data"
	msgError               = "error"
	msgComplete            = "complete"
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type startPayload struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

type initPayload struct {
	AuthToken string `json:"authToken"`
}

// SubscriptionHandler serves GraphQL subscriptions over a websocket using
// connection_init/start/data/complete frames. Each start spawns an
// independent event stream that ends when the client stops it or the
// connection closes.
type SubscriptionHandler struct {
	schema graphql.Schema
}

// NewSubscriptionHandler creates a SubscriptionHandler over the schema.
func NewSubscriptionHandler(schema graphql.Schema) *SubscriptionHandler {
	return &SubscriptionHandler{schema: schema}
}

// Handle upgrades the request and runs the subscription protocol loop.
func (h *SubscriptionHandler) Handle(c *gin.Context) {
	upgrader := websocket.Upgrader{
		Subprotocols: []string{"graphql-ws"},
		CheckOrigin:  func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Subscription websocket upgrade failed: %v", err)
		return
	}

	connCtx, cancelConn := context.WithCancel(c.Request.Context())
	session := &wsSession{
		conn:    conn,
		ctx:     connCtx,
		cancels: make(map[string]context.CancelFunc),
	}

	defer func() {
		cancelConn()
		session.stopAll()
		conn.Close()
	}()

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-connCtx.Done():
				return
			case <-ticker.C:
				if err := session.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Subscription websocket error: %v", err)
			}
			return
		}

		switch msg.Type {
		case msgConnectionInit:
			session.handleInit(msg.Payload)
		case msgStart:
			h.handleStart(session, msg)
		case msgStop:
			session.stop(msg.ID)
			session.write(wsMessage{ID: msg.ID, Type: msgComplete})
		case msgConnectionTerminate:
			return
		}
	}
}

func (h *SubscriptionHandler) handleStart(session *wsSession, msg wsMessage) {
	var payload startPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		session.writeError(msg.ID, "malformed start payload")
		return
	}

	opCtx, cancel := context.WithCancel(session.opContext())
	session.register(msg.ID, cancel)

	results := graphql.Subscribe(graphql.Params{
		Schema:         h.schema,
		RequestString:  payload.Query,
		VariableValues: payload.Variables,
		OperationName:  payload.OperationName,
		Context:        opCtx,
	})

	go func() {
		defer session.stop(msg.ID)
		for result := range results {
			if err := session.write(wsMessage{ID: msg.ID, Type: msgData, Payload: mustMarshal(result)}); err != nil {
				return
			}
		}
		session.write(wsMessage{ID: msg.ID, Type: msgComplete})
	}()
}

// wsSession serializes writes on one subscription connection and tracks the
// cancel funcs of its running operations.
type wsSession struct {
	conn    *websocket.Conn
	ctx     context.Context
	writeMu sync.Mutex

	mu      sync.Mutex
	userID  uint64
	hasUser bool
	cancels map[string]context.CancelFunc
}

func (s *wsSession) handleInit(payload json.RawMessage) {
	if len(payload) > 0 {
		var init initPayload
		if err := json.Unmarshal(payload, &init); err == nil && init.AuthToken != "" {
			if userID, ok := middleware.IdentityFromToken(init.AuthToken); ok {
				s.mu.Lock()
				s.userID = userID
				s.hasUser = true
				s.mu.Unlock()
			}
		}
	}
	s.write(wsMessage{Type: msgConnectionAck})
}

func (s *wsSession) opContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasUser {
		return middleware.WithUserID(s.ctx, s.userID)
	}
	return s.ctx
}

func (s *wsSession) register(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cancels[id]; ok {
		existing()
	}
	s.cancels[id] = cancel
}

func (s *wsSession) stop(id string) {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	delete(s.cancels, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *wsSession) stopAll() {
	s.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.cancels))
	for _, cancel := range s.cancels {
		cancels = append(cancels, cancel)
	}
	s.cancels = make(map[string]context.CancelFunc)
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

func (s *wsSession) write(msg wsMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

func (s *wsSession) writeError(id, message string) {
	payload, _ := json.Marshal(map[string]string{"message": message})
	s.write(wsMessage{ID: id, Type: msgError, Payload: payload})
}

func (s *wsSession) ping() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

func mustMarshal(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal subscription result: %v", err)
		return json.RawMessage(`{}`)
	}
	return raw
}
