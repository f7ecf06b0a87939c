package problem

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteClientError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/event/create_events", nil)

	Write(w, r, 400, TypeValidation, "Invalid request", errors.New("invalid start_time: must be in the future"), "production")

	require.Equal(t, 400, w.Code)
	require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var details Details
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	require.Equal(t, TypeValidation, details.Type)
	require.Equal(t, "Invalid request", details.Title)
	require.Equal(t, 400, details.Status)
	require.Equal(t, "invalid start_time: must be in the future", details.Detail)
	require.Equal(t, "/event/create_events", details.Instance)
}

func TestWriteServerErrorRedactsDetailInProduction(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/event/events", nil)

	Write(w, r, 500, TypeServerError, "Server error", errors.New("pg: connection refused"), "production")

	var details Details
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	require.Equal(t, "Internal Server Error", details.Detail)
}

func TestWriteServerErrorKeepsDetailInDevelopment(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/event/events", nil)

	Write(w, r, 500, TypeServerError, "Server error", errors.New("pg: connection refused"), "development")

	var details Details
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	require.Equal(t, "pg: connection refused", details.Detail)
}
