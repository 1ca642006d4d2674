package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/exporters"
)

// ExportController serves the catalog as downloadable CSV files in the
// format of books.csv and borrowed_books.csv.
type ExportController struct {
	store catalog.Store
}

func NewExportController(store catalog.Store) *ExportController {
	return &ExportController{store: store}
}

// Books handles GET /export/books.csv
func (ec *ExportController) Books(c *gin.Context) {
	books, err := ec.store.List(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "export books")
		return
	}

	setCSVHeaders(c, "books.csv")
	if err := exporters.WriteBooksCSV(c.Writer, books); err != nil {
		// Headers are already out; all that is left is to log.
		c.Error(err)
	}
}

// Borrowed handles GET /export/borrowed_books.csv
func (ec *ExportController) Borrowed(c *gin.Context) {
	borrowed, err := ec.store.Borrowed(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "export borrowed books")
		return
	}

	setCSVHeaders(c, "borrowed_books.csv")
	if err := exporters.WriteBorrowedCSV(c.Writer, borrowed); err != nil {
		c.Error(err)
	}
}

func setCSVHeaders(c *gin.Context, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}
