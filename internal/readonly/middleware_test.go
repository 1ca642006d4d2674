package readonly

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(enabled bool) *gin.Engine {
	m := NewMiddleware(enabled)
	router := gin.New()
	router.Use(m.Handler())
	ok := func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
	router.GET("/", ok)
	router.POST("/add_book", ok)
	router.POST("/search_book", ok)
	router.POST("/login", ok)
	router.DELETE("/api/books/:id", ok)
	router.GET("/api/readonly/status", m.StatusHandler)
	return router
}

func TestMiddleware_AllowsReads(t *testing.T) {
	router := newRouter(true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestMiddleware_BlocksFormPosts(t *testing.T) {
	router := newRouter(true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/add_book", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
	if w.Body.String() != blockedMessage {
		t.Errorf("Unexpected body %q", w.Body.String())
	}
}

func TestMiddleware_BlocksAPIWithJSON(t *testing.T) {
	router := newRouter(true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/books/1", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body: %v", err)
	}
	if body["read_only"] != true {
		t.Errorf("Expected read_only=true, got %v", body["read_only"])
	}
}

func TestMiddleware_AllowsSearchAndLogin(t *testing.T) {
	router := newRouter(true)

	for _, path := range []string{"/search_book", "/login"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, w.Code)
		}
	}
}

func TestMiddleware_Disabled(t *testing.T) {
	router := newRouter(false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/add_book", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	router := newRouter(true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/readonly/status", nil))

	if w.Body.String() != `{"read_only":true}` {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
}
