package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/machashop/students-ms/pkg/config"
)

func newTestClient(serverURL string) *InstitutionClient {
	return NewInstitutionClient(config.InstitutionsConfig{BaseURL: serverURL, Timeout: 2 * time.Second}, zap.NewNop())
}

func TestInstitutionClientList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/institutions", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"institution_id":"inst-1","institution_name":"Colegio San Martín","status":"A"}]`))
	}))
	defer server.Close()

	institutions, err := newTestClient(server.URL).List(context.Background())
	require.NoError(t, err)
	require.Len(t, institutions, 1)
	assert.Equal(t, "inst-1", institutions[0].InstitutionID)
	assert.Equal(t, "Colegio San Martín", institutions[0].InstitutionName)
}

func TestInstitutionClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/institutions/inst-2", r.URL.Path)
		_, _ = w.Write([]byte(`{"institution_id":"inst-2","institution_name":"IE Los Andes"}`))
	}))
	defer server.Close()

	institution, err := newTestClient(server.URL).Get(context.Background(), "inst-2")
	require.NoError(t, err)
	assert.Equal(t, "IE Los Andes", institution.InstitutionName)
}

func TestInstitutionClientSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Get(context.Background(), "missing")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestInstitutionClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // closed on purpose

	_, err := newTestClient(server.URL).List(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}
