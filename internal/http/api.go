package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/shelf"
)

// BooksAPIController exposes the catalog and the shelf as JSON.
type BooksAPIController struct {
	store catalog.Store
	shelf *shelf.Shelf
	audit *audit.Service
}

// NewBooksAPIController creates a new BooksAPIController. s may be nil.
func NewBooksAPIController(store catalog.Store, s *shelf.Shelf, auditService *audit.Service) *BooksAPIController {
	return &BooksAPIController{store: store, shelf: s, audit: auditService}
}

// RegisterRoutes registers the JSON endpoints.
func (ac *BooksAPIController) RegisterRoutes(router gin.IRouter) {
	router.GET("/api/books", ac.ListBooks)
	router.GET("/api/books/search", ac.SearchBooks)
	router.POST("/api/books", ac.CreateBook)
	router.DELETE("/api/books/:id", ac.DeleteBook)
	router.GET("/api/borrowed", ac.ListBorrowed)
	router.POST("/api/books/:id/borrow", ac.BorrowBook)
	router.POST("/api/books/:id/return", ac.ReturnBook)
	if ac.shelf != nil {
		router.GET("/api/shelf", ac.ListShelf)
	}
}

// BookResponse is a catalog book with its borrower.
type BookResponse struct {
	entities.Book
	BorrowedBy string `json:"borrowed_by,omitempty"`
}

// ListBooks handles GET /api/books.
func (ac *BooksAPIController) ListBooks(c *gin.Context) {
	ctx := c.Request.Context()
	books, err := ac.store.List(ctx)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	ac.respondBooks(c, books)
}

// SearchBooks handles GET /api/books/search?q=
func (ac *BooksAPIController) SearchBooks(c *gin.Context) {
	books, err := ac.store.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}
	ac.respondBooks(c, books)
}

func (ac *BooksAPIController) respondBooks(c *gin.Context, books []entities.Book) {
	borrowed, err := ac.store.Borrowed(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list borrowed books")
		return
	}

	response := make([]BookResponse, len(books))
	for i, book := range books {
		response[i] = BookResponse{Book: book, BorrowedBy: borrowed[book.BookID]}
	}
	c.JSON(http.StatusOK, gin.H{
		"books": response,
		"count": len(response),
	})
}

// CreateBookRequest is the body of POST /api/books.
type CreateBookRequest struct {
	Title  string `json:"title" binding:"required"`
	Author string `json:"author" binding:"required"`
	Year   string `json:"year"`
}

// CreateBook handles POST /api/books.
func (ac *BooksAPIController) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title and author are required")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	if req.Title == "" || req.Author == "" {
		respondBadRequest(c, "title and author are required")
		return
	}

	ctx := c.Request.Context()
	book, err := ac.store.Add(ctx, req.Title, req.Author, req.Year)
	ac.audit.LogMutation(ctx, audit.CollectionCatalog, entities.AuditEventAdd, book.BookID,
		fmt.Sprintf("Added %q by %s", req.Title, req.Author), true, err)
	if err != nil {
		respondInternalError(c, err, "add book")
		return
	}

	respondCreated(c, book)
}

// DeleteBook handles DELETE /api/books/:id. Unknown ids succeed.
func (ac *BooksAPIController) DeleteBook(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	changed, err := ac.store.Remove(ctx, id)
	ac.audit.LogMutation(ctx, audit.CollectionCatalog, entities.AuditEventRemove, id, "Removed book "+id, changed, err)
	if err != nil {
		respondInternalError(c, err, "remove book")
		return
	}

	respondSuccess(c, "book removed", gin.H{"book_id": id})
}

// ListBorrowed handles GET /api/borrowed.
func (ac *BooksAPIController) ListBorrowed(c *gin.Context) {
	borrowed, err := ac.store.Borrowed(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list borrowed books")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"borrowed": borrowed,
		"count":    len(borrowed),
	})
}

// BorrowRequest is the body of POST /api/books/:id/borrow.
type BorrowRequest struct {
	User string `json:"user" binding:"required"`
}

// BorrowBook handles POST /api/books/:id/borrow. A book that is already out
// answers 409 with the current borrower.
func (ac *BooksAPIController) BorrowBook(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "user is required")
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()
	changed, err := ac.store.Borrow(ctx, id, req.User)
	ac.audit.LogMutation(ctx, audit.CollectionCatalog, entities.AuditEventBorrow, id,
		fmt.Sprintf("Lent book %s to %s", id, req.User), changed, err)
	if err != nil {
		respondInternalError(c, err, "borrow book")
		return
	}

	if !changed {
		borrowed, err := ac.store.Borrowed(ctx)
		if err != nil {
			respondInternalError(c, err, "list borrowed books")
			return
		}
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "book is already borrowed",
			Code:    "already_borrowed",
			Details: gin.H{"book_id": id, "user": borrowed[id]},
		})
		return
	}

	respondSuccess(c, "book borrowed", gin.H{"book_id": id, "user": req.User})
}

// ReturnBook handles POST /api/books/:id/return.
func (ac *BooksAPIController) ReturnBook(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	changed, err := ac.store.Return(ctx, id)
	ac.audit.LogMutation(ctx, audit.CollectionCatalog, entities.AuditEventReturn, id, "Returned book "+id, changed, err)
	if err != nil {
		respondInternalError(c, err, "return book")
		return
	}

	if !changed {
		respondNotFound(c, "borrow record")
		return
	}
	respondSuccess(c, "book returned", gin.H{"book_id": id})
}

// ListShelf handles GET /api/shelf?q=
func (ac *BooksAPIController) ListShelf(c *gin.Context) {
	books, err := ac.shelf.Search(c.Request.Context(), c.Query("q"))
	if errors.Is(err, shelf.ErrPermissionDenied) {
		respondError(c, http.StatusForbidden, permissionDeniedMessage)
		return
	}
	if err != nil {
		respondInternalError(c, err, "read shelf")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"count": len(books),
	})
}
