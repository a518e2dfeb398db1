package http

import (
	"github.com/gin-gonic/gin"

	"bibliotech/internal/database"
	"bibliotech/internal/database/books"
	catalogdb "bibliotech/internal/database/catalog"
	"bibliotech/internal/tasks"
)

// RouterConfig carries all dependencies required by the HTTP controllers.
type RouterConfig struct {
	Database   *database.Database
	Books      *books.Repository
	Catalog    *catalogdb.Repository
	TaskClient *tasks.Client
	Version    string
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.TaskClient, cfg.Version)
	booksController := NewBooksController(cfg.Books)
	catalogController := NewCatalogController(cfg.Catalog, cfg.Books, cfg.TaskClient)

	router.GET("/health", health.Status)

	api := router.Group("/api")
	{
		api.GET("/books", booksController.List)
		api.GET("/books/:id", booksController.Get)
		api.GET("/catalog", catalogController.Status)
		api.POST("/catalog/synchronize", catalogController.Synchronize)
	}

	return router
}
