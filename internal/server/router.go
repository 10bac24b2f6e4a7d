package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/keaz/contacts-backend/internal/handlers"
	"github.com/keaz/contacts-backend/internal/middleware"
)

type RouterConfig struct {
	RequestLogger  *middleware.RequestLogger
	AuthMiddleware *middleware.AuthMiddleware
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	ContactHandler *handlers.ContactHandler
	TagHandler     *handlers.TagHandler
	GroupHandler   *handlers.GroupHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(cfg.RequestLogger.Handle())

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/auth/register", cfg.AuthHandler.Register)
	router.POST("/auth/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	// Contacts
	protected.POST("/contacts", cfg.ContactHandler.Create)
	protected.GET("/contacts", cfg.ContactHandler.FindAll)
	protected.GET("/contacts/groups/:groupID", cfg.ContactHandler.FindAllByGroup)
	protected.GET("/contacts/tags", cfg.ContactHandler.FindAllByTags)
	protected.GET("/contacts/count", cfg.ContactHandler.Count)
	protected.GET("/contacts/kpi", cfg.ContactHandler.Kpis)
	protected.GET("/contacts/:id", cfg.ContactHandler.FindOne)
	protected.POST("/contacts/upsert", cfg.ContactHandler.Upsert)
	protected.PATCH("/contacts/tag/:tagID", cfg.ContactHandler.AttachTagToMany)
	protected.PATCH("/contacts/:id", cfg.ContactHandler.Update)
	protected.PATCH("/contacts/:id/tag/:tagID", cfg.ContactHandler.AttachTag)
	protected.DELETE("/contacts/:id/tag/:tagID", cfg.ContactHandler.DetachTag)
	protected.DELETE("/contacts/many", cfg.ContactHandler.RemoveMany)
	protected.DELETE("/contacts/:id", cfg.ContactHandler.Remove)

	// Tags
	protected.GET("/tags", cfg.TagHandler.GetAll)
	protected.POST("/tags", cfg.TagHandler.Upsert)
	protected.DELETE("/tags/:id", cfg.TagHandler.Remove)

	// Groups
	protected.GET("/groups", cfg.GroupHandler.GetAll)
	protected.POST("/groups", cfg.GroupHandler.Create)
	protected.GET("/groups/:id", cfg.GroupHandler.FindOne)
	protected.DELETE("/groups/:id", cfg.GroupHandler.Remove)

	// Users
	protected.GET("/users/me", cfg.UserHandler.GetMe)
	protected.GET("/users", cfg.UserHandler.GetAll)

	return router
}
