//go:build !swagger

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMountSwagger_NoOp(t *testing.T) {
	r := chi.NewRouter()
	// Should be a no-op and not panic
	MountSwagger(r)
	w := httptest.NewRecorder()
	NewMux(newMock()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if SwaggerEnabled || w.Code != http.StatusNotFound {
		t.Fatalf("swagger must be off in default builds: %d", w.Code)
	}
}
