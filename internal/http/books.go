package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bibliotech/internal/database/books"
	"bibliotech/internal/entities"
)

// BookLister provides read access to the mirrored book store.
type BookLister interface {
	List(opts books.ListOptions) ([]entities.Book, error)
	GetByID(id uint64) (*entities.Book, error)
}

type BooksController struct {
	store BookLister
}

func NewBooksController(store BookLister) *BooksController {
	return &BooksController{store: store}
}

// List returns a page of mirrored books.
// GET /api/books?limit=10&skip=0&sort=title&language=en
//
// The limit is clamped to 25 server-side; larger or non-numeric values
// silently fall back to the ceiling.
func (bc *BooksController) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = books.MaxListLimit
	}
	skip, err := strconv.Atoi(c.Query("skip"))
	if err != nil || skip < 0 {
		skip = 0
	}

	opts := books.ListOptions{
		Language: c.Query("language"),
		Limit:    limit,
		Skip:     skip,
		Sort:     c.Query("sort"),
	}

	result, err := bc.store.List(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list books"})
		return
	}
	if result == nil {
		result = []entities.Book{}
	}

	c.JSON(http.StatusOK, result)
}

// Get returns a single mirrored book by its catalog identifier.
// GET /api/books/:id
func (bc *BooksController) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	book, err := bc.store.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load book"})
		return
	}

	c.JSON(http.StatusOK, book)
}
