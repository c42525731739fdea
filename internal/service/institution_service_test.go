package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machashop/students-ms/internal/client"
	"github.com/machashop/students-ms/internal/models"
	appErrors "github.com/machashop/students-ms/pkg/errors"
)

type mockInstitutionOrigin struct {
	institutions []models.Institution
	listCalls    int
	getCalls     int
	err          error
}

func (m *mockInstitutionOrigin) List(ctx context.Context) ([]models.Institution, error) {
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.institutions, nil
}

func (m *mockInstitutionOrigin) Get(ctx context.Context, id string) (*models.Institution, error) {
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	for _, inst := range m.institutions {
		if inst.InstitutionID == id {
			inst := inst
			return &inst, nil
		}
	}
	return nil, &client.StatusError{StatusCode: 404}
}

type memoryCache struct {
	entries map[string][]byte
	sets    int
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.sets++
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestInstitutionListCachesOriginPayload(t *testing.T) {
	origin := &mockInstitutionOrigin{institutions: []models.Institution{
		{InstitutionID: "inst-1", InstitutionName: "Colegio Central"},
	}}
	cache := &memoryCache{}
	svc := NewInstitutionService(origin, cache, time.Minute, nil)

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, origin.listCalls)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, origin.listCalls, "second read served from cache")
}

func TestInstitutionCacheLookupsCounted(t *testing.T) {
	origin := &mockInstitutionOrigin{institutions: []models.Institution{
		{InstitutionID: "inst-1", InstitutionName: "Colegio Central"},
	}}
	cache := &memoryCache{}
	svc := NewInstitutionService(origin, cache, time.Minute, nil)
	metrics := NewMetricsService()
	svc.BindMetrics(metrics)

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheMisses))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.cacheHits))

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))
}

func TestInstitutionListRefreshDropsStaleEntries(t *testing.T) {
	origin := &mockInstitutionOrigin{institutions: []models.Institution{
		{InstitutionID: "inst-1", InstitutionName: "Colegio Central"},
	}}
	cache := &memoryCache{}
	svc := NewInstitutionService(origin, cache, time.Minute, nil)

	got, err := svc.Get(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Equal(t, "Colegio Central", got.InstitutionName)
	require.Contains(t, cache.entries, institutionKeyPrefix+"inst-1")

	origin.institutions[0].InstitutionName = "Colegio Central Renombrado"
	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, cache.entries, institutionKeyPrefix+"inst-1",
		"refresh clears per-ID entries")

	got, err = svc.Get(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "Colegio Central Renombrado", got.InstitutionName)
}

func TestInstitutionGetMapsUpstream404(t *testing.T) {
	origin := &mockInstitutionOrigin{}
	svc := NewInstitutionService(origin, nil, time.Minute, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestInstitutionListOriginFailure(t *testing.T) {
	origin := &mockInstitutionOrigin{err: errors.New("connection refused")}
	svc := NewInstitutionService(origin, nil, time.Minute, nil)

	_, err := svc.List(context.Background())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
}
