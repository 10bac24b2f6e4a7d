package main

import (
	"fmt"
	"os"
	"time"

	"github.com/keaz/contacts-backend/internal/cache"
	"github.com/keaz/contacts-backend/internal/db"
	"github.com/keaz/contacts-backend/internal/handlers"
	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/middleware"
	"github.com/keaz/contacts-backend/internal/repos"
	"github.com/keaz/contacts-backend/internal/server"
	"github.com/keaz/contacts-backend/internal/services"
	"github.com/keaz/contacts-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 604800, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Redis count cache, optional: without it counts always hit postgres.
	countCache, err := cache.NewCountCache(log)
	if err != nil {
		log.Warn("Count cache disabled", "error", err)
		countCache = nil
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	contactRepo := repos.NewContactRepo(thePG, log)
	tagRepo := repos.NewTagRepo(thePG, log)
	groupRepo := repos.NewGroupRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	tagService := services.NewTagService(thePG, log, tagRepo)
	membershipService := services.NewMembershipService(thePG, log, contactRepo, tagRepo, groupRepo)
	contactService := services.NewContactService(thePG, log, contactRepo, membershipService, tagService, countCache)
	groupService := services.NewGroupService(thePG, log, groupRepo, tagRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	contactHandler := handlers.NewContactHandler(contactService, membershipService)
	tagHandler := handlers.NewTagHandler(tagService)
	groupHandler := handlers.NewGroupHandler(groupService)

	// Middleware
	log.Info("Setting up middleware from main...")
	requestLogger := middleware.NewRequestLogger(log)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		RequestLogger:  requestLogger,
		AuthMiddleware: authMiddleware,
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		ContactHandler: contactHandler,
		TagHandler:     tagHandler,
		GroupHandler:   groupHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
