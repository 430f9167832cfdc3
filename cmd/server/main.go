package main

import (
	"log"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gqlhandler "github.com/graphql-go/handler"
	"github.com/tablero-dev/tablero/internal/auth"
	"github.com/tablero-dev/tablero/internal/config"
	"github.com/tablero-dev/tablero/internal/database"
	"github.com/tablero-dev/tablero/internal/graph"
	"github.com/tablero-dev/tablero/internal/handlers"
	"github.com/tablero-dev/tablero/internal/middleware"
	"github.com/tablero-dev/tablero/internal/pubsub"
	"github.com/tablero-dev/tablero/internal/repository"
	"github.com/tablero-dev/tablero/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	if err := auth.InitJWTSecret(cfg.JWTSecret); err != nil {
		log.Fatalf("Failed to initialize token signing: %v", err)
	}

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if cfg.SeedDemo {
		if err := database.SeedDemo(cfg); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	// Event broker, constructed once and injected everywhere
	broker := pubsub.NewBroker()
	defer broker.Close()

	// Repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	cardRepo := repository.NewCardRepository(db)

	// Services
	authService := services.NewAuthService(userRepo)
	cardService := services.NewCardService(cardRepo, projectRepo, broker, cfg.DefaultProjectID)
	projectService := services.NewProjectService(projectRepo)
	uploadService := services.NewUploadService(userRepo, cardRepo, cfg.UploadDir)

	// GraphQL schema
	resolver := &graph.Resolver{
		Auth:     authService,
		Cards:    cardService,
		Projects: projectService,
		Broker:   broker,
	}
	schema, err := graph.NewSchema(resolver)
	if err != nil {
		log.Fatalf("Failed to build GraphQL schema: %v", err)
	}

	gqlHTTP := gqlhandler.New(&gqlhandler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: cfg.GinMode != "release",
	})
	subscriptions := graph.NewSubscriptionHandler(schema)
	uploadHandler := handlers.NewUploadHandler(uploadService)

	// Initialize Gin router
	r := gin.Default()
	r.Use(cors.Default())
	r.Use(middleware.Identify())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Tablero API is running",
		})
	})

	// GraphQL over HTTP and websocket
	r.POST("/graphql", gin.WrapH(gqlHTTP))
	r.GET("/graphql", gin.WrapH(gqlHTTP))
	r.GET("/graphql/ws", subscriptions.Handle)

	// Upload channel and the static mounts echoing uploaded files back
	r.GET("/ws/uploads", uploadHandler.Handle)
	r.Static("/avatars", filepath.Join(cfg.UploadDir, "avatars"))
	r.Static("/uploads/tasks", filepath.Join(cfg.UploadDir, "tasks"))

	// Start server
	log.Printf("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
