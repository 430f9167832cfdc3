package graph

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/require"
	"github.com/tablero-dev/tablero/internal/auth"
	"github.com/tablero-dev/tablero/internal/middleware"
	"github.com/tablero-dev/tablero/internal/models"
	"github.com/tablero-dev/tablero/internal/pubsub"
	"github.com/tablero-dev/tablero/internal/repository"
	"github.com/tablero-dev/tablero/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type graphTestEnv struct {
	db     *gorm.DB
	broker *pubsub.Broker
	schema graphql.Schema
	auth   *services.AuthService
	cards  *services.CardService
}

func setupGraphTestEnv(t *testing.T) graphTestEnv {
	t.Helper()

	require.NoError(t, auth.InitJWTSecret("test-secret"))

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

	broker := pubsub.NewBroker()
	t.Cleanup(broker.Close)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	cardRepo := repository.NewCardRepository(db)

	authService := services.NewAuthService(userRepo)
	cardService := services.NewCardService(cardRepo, projectRepo, broker, 0)
	projectService := services.NewProjectService(projectRepo)

	schema, err := NewSchema(&Resolver{
		Auth:     authService,
		Cards:    cardService,
		Projects: projectService,
		Broker:   broker,
	})
	require.NoError(t, err)

	return graphTestEnv{
		db:     db,
		broker: broker,
		schema: schema,
		auth:   authService,
		cards:  cardService,
	}
}

func (env graphTestEnv) register(t *testing.T, email string) *models.User {
	t.Helper()

	user, err := env.auth.Register(services.RegisterInput{
		Email:    email,
		Password: "supersecret",
	})
	require.NoError(t, err)
	return user
}

func (env graphTestEnv) exec(t *testing.T, ctx context.Context, query string, variables map[string]interface{}) map[string]interface{} {
	t.Helper()

	result := graphql.Do(graphql.Params{
		Schema:         env.schema,
		RequestString:  query,
		VariableValues: variables,
		Context:        ctx,
	})
	require.False(t, result.HasErrors(), "unexpected errors: %+v", result.Errors)

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	return data
}

func (env graphTestEnv) execExpectingError(t *testing.T, ctx context.Context, query string) string {
	t.Helper()

	result := graphql.Do(graphql.Params{
		Schema:        env.schema,
		RequestString: query,
		Context:       ctx,
	})
	require.True(t, result.HasErrors())
	return result.Errors[0].Message
}

func TestGraph_LoginThenCreateThenQuery(t *testing.T) {
	env := setupGraphTestEnv(t)
	env.register(t, "player@example.com")

	// Login without any identity on the context.
	data := env.exec(t, context.Background(), `
		mutation {
			login(email: "player@example.com", password: "supersecret") {
				token
				user { id email }
			}
		}`, nil)

	payload := data["login"].(map[string]interface{})
	token := payload["token"].(string)
	require.NotEmpty(t, token)

	userID, ok := middleware.IdentityFromToken(token)
	require.True(t, ok)

	// Subsequent operations run with the identity the token carries.
	ctx := middleware.WithUserID(context.Background(), userID)

	data = env.exec(t, ctx, `mutation { createProject(title: "Launch") { id title userIds } }`, nil)
	project := data["createProject"].(map[string]interface{})
	require.Equal(t, "Launch", project["title"])
	projectID := project["id"].(string)

	data = env.exec(t, ctx, `
		mutation CreateCard($projectId: ID) {
			createCard(
				title: "Ship it"
				description: "Final checks"
				duedate: "2026-09-30"
				color: "green"
				projectId: $projectId
			) {
				id
				title
				projectId
			}
		}`, map[string]interface{}{"projectId": projectID})
	card := data["createCard"].(map[string]interface{})
	require.Equal(t, "Ship it", card["title"])

	data = env.exec(t, ctx, `
		query Cards($projectId: ID) {
			getAllCards(projectId: $projectId) {
				id
				title
				color
				files
			}
		}`, map[string]interface{}{"projectId": projectID})
	cards := data["getAllCards"].([]interface{})
	require.Len(t, cards, 1)
	require.Equal(t, "Ship it", cards[0].(map[string]interface{})["title"])
}

func TestGraph_Login_InvalidCredentials(t *testing.T) {
	env := setupGraphTestEnv(t)
	env.register(t, "player@example.com")

	msg := env.execExpectingError(t, context.Background(),
		`mutation { login(email: "player@example.com", password: "wrong") { token } }`)
	require.Equal(t, "invalid credentials", msg)

	msg = env.execExpectingError(t, context.Background(),
		`mutation { login(email: "ghost@example.com", password: "whatever") { token } }`)
	require.Equal(t, "user not found", msg)
}

func TestGraph_MutationsRequireIdentity(t *testing.T) {
	env := setupGraphTestEnv(t)

	queries := []string{
		`mutation { createProject(title: "Nope") { id } }`,
		`mutation { createCard(title: "Nope", description: "x", duedate: "2026-01-01") { id } }`,
		`mutation { deleteCard(id: "1") { id } }`,
		`mutation { editCard(id: "1", color: "red") { id } }`,
		`mutation { updateCardType(id: "1", type: "done") { id } }`,
		`mutation { editProject(id: "1", title: "Nope") { id } }`,
		`mutation { deleteProject(id: "1") { id } }`,
		`query { getAllCards { id } }`,
		`query { projects { id } }`,
	}

	for _, query := range queries {
		msg := env.execExpectingError(t, context.Background(), query)
		require.Equal(t, "not authorized", msg, "query: %s", query)
	}

	// None of the rejected mutations left anything behind.
	var projects, cards int64
	require.NoError(t, env.db.Model(&models.Project{}).Count(&projects).Error)
	require.NoError(t, env.db.Model(&models.Card{}).Count(&cards).Error)
	require.Zero(t, projects)
	require.Zero(t, cards)
}

func TestGraph_ProjectsAreOwnerScoped(t *testing.T) {
	env := setupGraphTestEnv(t)
	alice := env.register(t, "alice@example.com")
	bob := env.register(t, "bob@example.com")

	aliceCtx := middleware.WithUserID(context.Background(), alice.ID)
	bobCtx := middleware.WithUserID(context.Background(), bob.ID)

	env.exec(t, aliceCtx, `mutation { createProject(title: "Alice board") { id } }`, nil)

	data := env.exec(t, bobCtx, `query { projects { id title } }`, nil)
	require.Empty(t, data["projects"].([]interface{}))

	data = env.exec(t, aliceCtx, `query { projects { id title } }`, nil)
	require.Len(t, data["projects"].([]interface{}), 1)
}

func TestGraph_CardUpdatedSubscription(t *testing.T) {
	env := setupGraphTestEnv(t)
	user := env.register(t, "subscriber@example.com")
	ctx := middleware.WithUserID(context.Background(), user.ID)

	data := env.exec(t, ctx, `mutation { createProject(title: "Live board") { id } }`, nil)
	projectID := data["createProject"].(map[string]interface{})["id"].(string)

	data = env.exec(t, ctx, fmt.Sprintf(`
		mutation {
			createCard(title: "Watch me", description: "x", duedate: "2026-01-01", projectId: %q) { id }
		}`, projectID), nil)
	cardID := data["createCard"].(map[string]interface{})["id"].(string)

	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := graphql.Subscribe(graphql.Params{
		Schema:        env.schema,
		RequestString: `subscription { cardUpdated { id color } }`,
		Context:       subCtx,
	})

	// Let the subscriber register before mutating.
	time.Sleep(100 * time.Millisecond)

	env.exec(t, ctx, fmt.Sprintf(`mutation { editCard(id: %q, color: "purple") { id } }`, cardID), nil)

	select {
	case result, ok := <-results:
		require.True(t, ok)
		require.False(t, result.HasErrors(), "subscription errors: %+v", result.Errors)
		payload := result.Data.(map[string]interface{})["cardUpdated"].(map[string]interface{})
		require.Equal(t, cardID, payload["id"])
		require.Equal(t, "purple", payload["color"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription event")
	}

	// Exactly one event for one mutation.
	select {
	case result, ok := <-results:
		if ok {
			t.Fatalf("unexpected extra event: %+v", result)
		}
	case <-time.After(150 * time.Millisecond):
	}

	// A subscriber registering after the mutation sees nothing: no replay.
	lateCtx, lateCancel := context.WithCancel(context.Background())
	defer lateCancel()
	late := graphql.Subscribe(graphql.Params{
		Schema:        env.schema,
		RequestString: `subscription { cardUpdated { id } }`,
		Context:       lateCtx,
	})
	select {
	case result, ok := <-late:
		if ok {
			t.Fatalf("late subscriber received replayed event: %+v", result)
		}
	case <-time.After(150 * time.Millisecond):
	}
}
