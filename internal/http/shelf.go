package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/shelf"
)

const permissionDeniedMessage = "Permission denied: the shelf file cannot be accessed"

// ShelfController serves the HTML pages of the title-keyed shelf. Outcomes
// are reported to the next page through flash messages.
type ShelfController struct {
	shelf     *shelf.Shelf
	sessions  *auth.SessionManager
	audit     *audit.Service
	indexPath string
}

// NewShelfController creates a controller that redirects to indexPath after
// every change. sessions may be nil, which drops flash messages.
func NewShelfController(s *shelf.Shelf, sessions *auth.SessionManager, auditService *audit.Service, indexPath string) *ShelfController {
	return &ShelfController{
		shelf:     s,
		sessions:  sessions,
		audit:     auditService,
		indexPath: indexPath,
	}
}

// RegisterRoutes registers the form routes.
func (sc *ShelfController) RegisterRoutes(router gin.IRouter) {
	router.GET("/add", sc.page("shelf_add.html", "Add a book"))
	router.POST("/add", sc.Add)
	router.GET("/remove", sc.page("shelf_remove.html", "Remove a book"))
	router.POST("/remove", sc.Remove)
	router.GET("/search", sc.Search)
	router.POST("/search", sc.Search)
	router.GET("/borrow", sc.page("shelf_borrow.html", "Borrow a book"))
	router.POST("/borrow", sc.Borrow)
	router.GET("/return", sc.page("shelf_return.html", "Return a book"))
	router.POST("/return", sc.Return)
}

// Index lists the shelf, filtered by the search query parameter.
func (sc *ShelfController) Index(c *gin.Context) {
	query := c.Query("search")
	books, err := sc.shelf.Search(c.Request.Context(), query)
	flashes := sc.popFlashes(c)
	if errors.Is(err, shelf.ErrPermissionDenied) {
		flashes = append(flashes, permissionDeniedMessage)
		books = nil
	} else if err != nil {
		renderInternalError(c, err, "read shelf")
		return
	}

	c.HTML(http.StatusOK, "shelf_index.html", pageData(c, gin.H{
		"Title":   "Bookshelf",
		"Books":   books,
		"Search":  query,
		"Flashes": flashes,
	}))
}

func (sc *ShelfController) page(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, pageData(c, gin.H{
			"Title":   title,
			"Flashes": sc.popFlashes(c),
		}))
	}
}

// Add handles POST /add.
func (sc *ShelfController) Add(c *gin.Context) {
	form, ok := requireForm(c, "title", "author")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	err := sc.shelf.Write(ctx, form["title"], form["author"])
	sc.audit.LogMutation(ctx, audit.CollectionShelf, entities.AuditEventAdd, form["title"],
		fmt.Sprintf("Shelved %q by %s", form["title"], form["author"]), true, err)
	if !sc.handleError(c, err, "add to shelf") {
		return
	}

	sc.flash(c, fmt.Sprintf("Added %q", form["title"]))
	c.Redirect(http.StatusFound, sc.indexPath)
}

// Remove handles POST /remove. Every row with the title goes.
func (sc *ShelfController) Remove(c *gin.Context) {
	form, ok := requireForm(c, "title")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	err := sc.shelf.Remove(ctx, form["title"])
	sc.audit.LogMutation(ctx, audit.CollectionShelf, entities.AuditEventRemove, form["title"],
		fmt.Sprintf("Removed %q", form["title"]), true, err)
	if !sc.handleError(c, err, "remove from shelf") {
		return
	}

	sc.flash(c, fmt.Sprintf("Removed %q", form["title"]))
	c.Redirect(http.StatusFound, sc.indexPath)
}

// Search shows the form on a bare GET and results for a query given either
// as a form field or a query parameter.
func (sc *ShelfController) Search(c *gin.Context) {
	query, submitted := c.GetPostForm("query")
	if !submitted {
		query, submitted = c.GetQuery("query")
	}

	data := gin.H{
		"Title":     "Search the shelf",
		"Query":     query,
		"Submitted": submitted,
		"Results":   []entities.ShelfBook{},
	}
	if submitted {
		results, err := sc.shelf.Search(c.Request.Context(), query)
		if errors.Is(err, shelf.ErrPermissionDenied) {
			data["Flashes"] = []string{permissionDeniedMessage}
		} else if err != nil {
			renderInternalError(c, err, "search shelf")
			return
		} else {
			data["Results"] = results
		}
	}

	c.HTML(http.StatusOK, "shelf_search.html", pageData(c, data))
}

// Borrow handles POST /borrow.
func (sc *ShelfController) Borrow(c *gin.Context) {
	form, ok := requireForm(c, "title")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	changed, err := sc.shelf.Borrow(ctx, form["title"])
	sc.audit.LogMutation(ctx, audit.CollectionShelf, entities.AuditEventBorrow, form["title"],
		fmt.Sprintf("Lent %q", form["title"]), changed, err)
	if !sc.handleError(c, err, "borrow from shelf") {
		return
	}

	if changed {
		sc.flash(c, fmt.Sprintf("You borrowed %q", form["title"]))
	} else {
		sc.flash(c, fmt.Sprintf("%q is not available", form["title"]))
	}
	c.Redirect(http.StatusFound, sc.indexPath)
}

// Return handles POST /return.
func (sc *ShelfController) Return(c *gin.Context) {
	form, ok := requireForm(c, "title", "author")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	changed, err := sc.shelf.Return(ctx, form["title"], form["author"])
	sc.audit.LogMutation(ctx, audit.CollectionShelf, entities.AuditEventReturn, form["title"],
		fmt.Sprintf("Returned %q by %s", form["title"], form["author"]), changed, err)
	if !sc.handleError(c, err, "return to shelf") {
		return
	}

	if changed {
		sc.flash(c, fmt.Sprintf("%q is back on the shelf", form["title"]))
	} else {
		sc.flash(c, fmt.Sprintf("%q is already on the shelf", form["title"]))
	}
	c.Redirect(http.StatusFound, sc.indexPath)
}

// handleError turns a permission error into a flash and a redirect and any
// other error into a 500. It reports whether the handler should carry on.
func (sc *ShelfController) handleError(c *gin.Context, err error, context string) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, shelf.ErrPermissionDenied) {
		sc.flash(c, permissionDeniedMessage)
		c.Redirect(http.StatusFound, sc.indexPath)
		return false
	}
	renderInternalError(c, err, context)
	return false
}

func (sc *ShelfController) flash(c *gin.Context, message string) {
	if sc.sessions != nil {
		sc.sessions.Flash(c.Request.Context(), message)
	}
}

func (sc *ShelfController) popFlashes(c *gin.Context) []string {
	if sc.sessions == nil {
		return nil
	}
	return sc.sessions.PopFlashes(c.Request.Context())
}
