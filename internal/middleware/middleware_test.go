package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"haventory/internal/common"
	"haventory/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVersionFromPath(t *testing.T) {
	tests := map[string]string{
		"/v1/items":    "v1",
		"/v1":          "v1",
		"/v12/ping":    "v12",
		"/version":     "",
		"/v/items":     "",
		"/items":       "",
		"/v1beta/ping": "",
	}
	for path, want := range tests {
		assert.Equal(t, want, extractVersionFromPath(path), path)
	}
}

func newVersionedServer(vm *VersionMiddleware) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = common.HTTPErrorHandler(logger.Discard())
	e.Use(vm.APIVersionResolver())
	vm.VersionRoute(e, "v1").GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("api_version").(string))
	})
	return e
}

func TestAPIVersionResolver(t *testing.T) {
	e := newVersionedServer(NewVersionMiddleware())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", rec.Body.String())
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
	assert.Empty(t, rec.Header().Get("X-API-Deprecated"))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v9/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
	assert.Contains(t, rec.Body.String(), "v1")
}

func TestDeprecatedVersionHeaders(t *testing.T) {
	vm := NewVersionMiddleware()
	sunset := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	vm.AddVersion("v1", "deprecated", "use v2", &sunset)
	e := newVersionedServer(vm)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-API-Deprecated"))
	assert.Equal(t, "2027-01-31T00:00:00Z", rec.Header().Get("X-API-Sunset"))

	vm.AddVersion("v1", "sunset", "gone", &sunset)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logger.NewWithWriter(&buf, "debug", "json"), "/live"))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/missing", func(c echo.Context) error { return c.NoContent(http.StatusNotFound) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError, "boom") })
	e.GET("/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	serve := func(path string) string {
		buf.Reset()
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		return buf.String()
	}

	out := serve("/ok")
	assert.Contains(t, out, `"level":"INFO"`)
	assert.Contains(t, out, `"route":"/ok"`)
	assert.Contains(t, out, `"status":200`)

	assert.Contains(t, serve("/missing"), `"level":"WARN"`)

	out = serve("/boom")
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"error":"code=500, message=boom"`)

	assert.Empty(t, serve("/live"))
}
