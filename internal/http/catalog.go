package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bibliotech/internal/entities"
	"bibliotech/internal/tasks"
)

// CatalogStatusStore provides read access to the synchronization status.
type CatalogStatusStore interface {
	GetOrCreate() (*entities.CatalogStatus, error)
}

// BookCounter reports the size of the mirrored store.
type BookCounter interface {
	Count() (int64, error)
}

type CatalogController struct {
	statuses   CatalogStatusStore
	books      BookCounter
	taskClient *tasks.Client
}

func NewCatalogController(statuses CatalogStatusStore, books BookCounter, taskClient *tasks.Client) *CatalogController {
	return &CatalogController{
		statuses:   statuses,
		books:      books,
		taskClient: taskClient,
	}
}

// Status reports the current synchronization status and book count.
// GET /api/catalog
func (cc *CatalogController) Status(c *gin.Context) {
	status, err := cc.statuses.GetOrCreate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load catalog status"})
		return
	}

	count, err := cc.books.Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count books"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status.Status,
		"books":      count,
		"updated_at": status.UpdatedAt,
	})
}

// Synchronize enqueues a synchronization task. The queue runs at most one
// synchronization at a time; an enqueue while a run is in flight resolves
// to a no-op inside the synchronizer.
// POST /api/catalog/synchronize
func (cc *CatalogController) Synchronize(c *gin.Context) {
	if cc.taskClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task queue is not enabled"})
		return
	}

	if _, err := cc.taskClient.Add(tasks.SynchronizeCatalogTask{}).Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue synchronization"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "synchronization scheduled"})
}
