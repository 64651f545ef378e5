package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"repairtrack-backend/internal/assethost"
	"repairtrack-backend/internal/config"
	"repairtrack-backend/internal/database"
	"repairtrack-backend/internal/handlers"
	"repairtrack-backend/internal/listing"
	"repairtrack-backend/internal/middleware"
	"repairtrack-backend/internal/models"
	"repairtrack-backend/internal/repairs"
	"repairtrack-backend/internal/services"
	"repairtrack-backend/internal/supabase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required: set it to your Supabase PostgreSQL connection string")
	}

	// Initialize Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	// Privileged database client for direct queries
	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database client: %v", err)
	}
	defer dbClient.Close()

	// Run migrations
	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Printf("Warning: Failed to initialize migrator: %v", err)
	} else {
		defer migrator.Close()
		if err := migrator.Run(); err != nil {
			log.Printf("Warning: Migration failed: %v", err)
		} else {
			log.Println("Migrations completed successfully")
		}
	}

	// Asset host client for signed photo uploads; optional, the photo
	// service falls back to Supabase Storage without it.
	assetsEnabled := cfg.AssetHostBaseURL != "" && cfg.AssetHostAPIKey != "" && cfg.AssetHostAPISecret != ""
	assetClient := assethost.NewClient(cfg.AssetHostBaseURL, cfg.AssetHostAPIKey, cfg.AssetHostAPISecret)
	if !assetsEnabled {
		log.Println("Warning: ASSET_HOST_* not fully configured. Direct signed uploads are disabled.")
	}

	// Core components
	engine := listing.NewEngine(dbClient, dbClient)
	machine := repairs.Machine{StrictOrdering: cfg.StrictPhaseOrdering}
	photoService := services.NewPhotoService(assetClient, storageClient, realtimeClient, assetsEnabled)

	// Handlers
	repairsHandler := handlers.NewRepairsHandler(dbClient, engine, machine, realtimeClient)
	projectsHandler := handlers.NewProjectsHandler(dbClient)
	usersHandler := handlers.NewUsersHandler(dbClient)
	photosHandler := handlers.NewPhotosHandler(photoService)

	// Setup router
	router := gin.Default()

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))
	api.Use(middleware.IdentityMiddleware(dbClient))

	// Repair lifecycle
	api.GET("/repairs", repairsHandler.ListRepairs)
	api.GET("/repairs/next-index",
		middleware.RequireRoles(models.RoleTechnician, models.RoleManager, models.RoleAdmin),
		repairsHandler.NextRepairIndex)
	api.GET("/repairs/:repair_id", repairsHandler.GetRepair)
	api.POST("/repairs",
		middleware.RequireRoles(models.RoleTechnician, models.RoleManager, models.RoleAdmin),
		repairsHandler.CreateRepair)
	api.PUT("/repairs/:repair_id/phases",
		middleware.RequireRoles(models.RoleTechnician, models.RoleManager, models.RoleAdmin),
		repairsHandler.SubmitPhase)
	api.PUT("/repairs/:repair_id/status",
		middleware.RequireRoles(models.RoleManager, models.RoleAdmin),
		repairsHandler.ReviewRepair)

	// Projects
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.GET("/projects/:project_id/technicians", projectsHandler.ListProjectTechnicians)
	api.POST("/projects",
		middleware.RequireRoles(models.RoleManager, models.RoleAdmin),
		projectsHandler.CreateProject)
	api.PUT("/projects/:project_id",
		middleware.RequireRoles(models.RoleManager, models.RoleAdmin),
		projectsHandler.UpdateProject)
	api.DELETE("/projects/:project_id",
		middleware.RequireRoles(models.RoleManager, models.RoleAdmin),
		projectsHandler.DeleteProject)

	// Users
	users := api.Group("/users")
	users.Use(middleware.RequireRoles(models.RoleAdmin))
	users.GET("", usersHandler.ListUsers)
	users.POST("", usersHandler.CreateUser)
	users.GET("/:user_id", usersHandler.GetUser)
	users.PUT("/:user_id", usersHandler.UpdateUser)
	users.DELETE("/:user_id", usersHandler.DeleteUser)

	// Photos
	api.POST("/photos/sign",
		middleware.RequireRoles(models.RoleTechnician, models.RoleManager, models.RoleAdmin),
		photosHandler.SignUpload)
	api.POST("/photos",
		middleware.RequireRoles(models.RoleTechnician, models.RoleManager, models.RoleAdmin),
		photosHandler.UploadPhoto)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
