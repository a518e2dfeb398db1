package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bibliotech/internal/database/books"
	"bibliotech/internal/entities"
)

type fakeBookStore struct {
	lastOpts books.ListOptions
	books    []entities.Book
	byID     map[uint64]*entities.Book
}

func (f *fakeBookStore) List(opts books.ListOptions) ([]entities.Book, error) {
	f.lastOpts = opts
	// Mimic the repository's server-side clamp so the handler tests observe
	// the effective limit.
	limit := opts.Limit
	if limit <= 0 || limit > books.MaxListLimit {
		limit = books.MaxListLimit
	}
	if len(f.books) > limit {
		return f.books[:limit], nil
	}
	return f.books, nil
}

func (f *fakeBookStore) GetByID(id uint64) (*entities.Book, error) {
	if book, ok := f.byID[id]; ok {
		return book, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func setupBooksRouter(store *fakeBookStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	controller := NewBooksController(store)
	router.GET("/api/books", controller.List)
	router.GET("/api/books/:id", controller.Get)
	return router
}

func manyBooks(n int) []entities.Book {
	result := make([]entities.Book, n)
	for i := range result {
		result[i] = entities.Book{ID: uint64(i + 1), Title: "Book", Publisher: entities.DefaultPublisher}
	}
	return result
}

func TestBooksList_LimitClamped(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLimit int
		wantLen   int
	}{
		{name: "huge limit falls back to ceiling", query: "limit=1000", wantLimit: books.MaxListLimit, wantLen: 25},
		{name: "non-numeric limit falls back to ceiling", query: "limit=abc", wantLimit: books.MaxListLimit, wantLen: 25},
		{name: "missing limit falls back to ceiling", query: "", wantLimit: books.MaxListLimit, wantLen: 25},
		{name: "small limit is honoured", query: "limit=10", wantLimit: 10, wantLen: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeBookStore{books: manyBooks(40)}
			router := setupBooksRouter(store)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/books?"+tt.query, nil)
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)

			var result []entities.Book
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Len(t, result, tt.wantLen)
		})
	}
}

func TestBooksList_PassesFilters(t *testing.T) {
	store := &fakeBookStore{}
	router := setupBooksRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/books?language=en&sort=title&skip=5&limit=10", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "en", store.lastOpts.Language)
	assert.Equal(t, "title", store.lastOpts.Sort)
	assert.Equal(t, 5, store.lastOpts.Skip)
	assert.Equal(t, 10, store.lastOpts.Limit)
}

func TestBooksList_EmptyStoreReturnsEmptyArray(t *testing.T) {
	store := &fakeBookStore{}
	router := setupBooksRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestBooksGet(t *testing.T) {
	store := &fakeBookStore{byID: map[uint64]*entities.Book{
		1342: {ID: 1342, Title: "Pride and Prejudice", Publisher: entities.DefaultPublisher},
	}}
	router := setupBooksRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/books/1342", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var book entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
	assert.Equal(t, uint64(1342), book.ID)
}

func TestBooksGet_NotFound(t *testing.T) {
	store := &fakeBookStore{}
	router := setupBooksRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/books/7", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooksGet_InvalidID(t *testing.T) {
	store := &fakeBookStore{}
	router := setupBooksRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/books/abc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
