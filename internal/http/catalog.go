package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

// CatalogController serves the HTML pages of the id-keyed catalog.
type CatalogController struct {
	store     catalog.Store
	audit     *audit.Service
	indexPath string
}

// NewCatalogController creates a controller that redirects to indexPath
// after every change.
func NewCatalogController(store catalog.Store, auditService *audit.Service, indexPath string) *CatalogController {
	return &CatalogController{
		store:     store,
		audit:     auditService,
		indexPath: indexPath,
	}
}

// RegisterRoutes registers the form routes.
func (cc *CatalogController) RegisterRoutes(router gin.IRouter) {
	router.GET("/add_book", cc.page("add_book.html", "Add a book"))
	router.POST("/add_book", cc.AddBook)
	router.GET("/remove_book", cc.page("remove_book.html", "Remove a book"))
	router.POST("/remove_book", cc.RemoveBook)
	router.GET("/search_book", cc.SearchPage)
	router.POST("/search_book", cc.SearchBook)
	router.GET("/borrow_book", cc.page("borrow_book.html", "Borrow a book"))
	router.POST("/borrow_book", cc.BorrowBook)
	router.GET("/return_book", cc.page("return_book.html", "Return a book"))
	router.POST("/return_book", cc.ReturnBook)
}

// Index lists every book together with its borrower, if any.
func (cc *CatalogController) Index(c *gin.Context) {
	ctx := c.Request.Context()
	books, err := cc.store.List(ctx)
	if err != nil {
		renderInternalError(c, err, "list catalog")
		return
	}
	borrowed, err := cc.store.Borrowed(ctx)
	if err != nil {
		renderInternalError(c, err, "list borrowed books")
		return
	}

	c.HTML(http.StatusOK, "index.html", pageData(c, gin.H{
		"Title":         "Library",
		"Books":         books,
		"BorrowedBooks": borrowed,
	}))
}

func (cc *CatalogController) page(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, pageData(c, gin.H{"Title": title}))
	}
}

// AddBook handles POST /add_book.
func (cc *CatalogController) AddBook(c *gin.Context) {
	form, ok := requireForm(c, "title", "author", "year")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	book, err := cc.store.Add(ctx, form["title"], form["author"], form["year"])
	cc.audit.LogMutation(ctx, audit.CollectionCatalog, entities.AuditEventAdd, book.BookID,
		fmt.Sprintf("Added %q by %s", form["title"], form["author"]), true, err)
	if err != nil {
		renderInternalError(c, err, "add book")
		return
	}

	c.Redirect(http.StatusFound, cc.indexPath)
}

// RemoveBook handles POST /remove_book.
func (cc *CatalogController) RemoveBook(c *gin.Context) {
	form, ok := requireForm(c, "book_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	changed, err := cc.store.Remove(ctx, form["book_id"])
	cc.audit.LogMutation(ctx, audit.CollectionCatalog, entities.AuditEventRemove, form["book_id"],
		"Removed book "+form["book_id"], changed, err)
	if err != nil {
		renderInternalError(c, err, "remove book")
		return
	}

	c.Redirect(http.StatusFound, cc.indexPath)
}

// SearchPage shows the search form with no results.
func (cc *CatalogController) SearchPage(c *gin.Context) {
	c.HTML(http.StatusOK, "search_book.html", pageData(c, gin.H{
		"Title":   "Search books",
		"Results": []entities.Book{},
	}))
}

// SearchBook handles POST /search_book.
func (cc *CatalogController) SearchBook(c *gin.Context) {
	form, ok := requireForm(c, "query")
	if !ok {
		return
	}

	results, err := cc.store.Search(c.Request.Context(), form["query"])
	if err != nil {
		renderInternalError(c, err, "search books")
		return
	}

	c.HTML(http.StatusOK, "search_book.html", pageData(c, gin.H{
		"Title":   "Search books",
		"Query":   form["query"],
		"Results": results,
	}))
}

// BorrowBook handles POST /borrow_book. Borrowing a book that is already out
// leaves the first borrower in place.
func (cc *CatalogController) BorrowBook(c *gin.Context) {
	form, ok := requireForm(c, "book_id", "user")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	changed, err := cc.store.Borrow(ctx, form["book_id"], form["user"])
	cc.audit.LogMutation(ctx, audit.CollectionCatalog, entities.AuditEventBorrow, form["book_id"],
		fmt.Sprintf("Lent book %s to %s", form["book_id"], form["user"]), changed, err)
	if err != nil {
		renderInternalError(c, err, "borrow book")
		return
	}

	c.Redirect(http.StatusFound, cc.indexPath)
}

// ReturnBook handles POST /return_book.
func (cc *CatalogController) ReturnBook(c *gin.Context) {
	form, ok := requireForm(c, "book_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	changed, err := cc.store.Return(ctx, form["book_id"])
	cc.audit.LogMutation(ctx, audit.CollectionCatalog, entities.AuditEventReturn, form["book_id"],
		"Returned book "+form["book_id"], changed, err)
	if err != nil {
		renderInternalError(c, err, "return book")
		return
	}

	c.Redirect(http.StatusFound, cc.indexPath)
}
