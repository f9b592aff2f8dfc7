package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMetricsMiddleware_PreservesFlush tests that the status-recording
// wrapper still exposes the underlying writer's flush support through
// http.ResponseController
func TestMetricsMiddleware_PreservesFlush(t *testing.T) {
	f := setupTestFixture(t)

	handler := f.server.MetricsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		require.NoError(t, rc.Flush())
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

	require.True(t, rec.Flushed)
	require.Equal(t, http.StatusOK, rec.Code)
}
