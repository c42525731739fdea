package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/machashop/students-ms/internal/models"
	"github.com/machashop/students-ms/pkg/config"
)

// StatusError carries a non-2xx upstream response so callers can inspect the
// original status for their own handling.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("institutions service returned status %d", e.StatusCode)
}

// InstitutionClient is the single point of outbound HTTP configuration for
// the institutions reference-data service. It forwards requests verbatim with
// no retries; every failure is logged once with its category and surfaced to
// the caller untouched.
type InstitutionClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewInstitutionClient builds a client for the configured origin.
func NewInstitutionClient(cfg config.InstitutionsConfig, logger *zap.Logger) *InstitutionClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstitutionClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// List fetches all institutions.
func (c *InstitutionClient) List(ctx context.Context) ([]models.Institution, error) {
	var institutions []models.Institution
	if err := c.get(ctx, "/institutions", &institutions); err != nil {
		return nil, err
	}
	return institutions, nil
}

// Get fetches a single institution by ID.
func (c *InstitutionClient) Get(ctx context.Context, id string) (*models.Institution, error) {
	var institution models.Institution
	if err := c.get(ctx, "/institutions/"+id, &institution); err != nil {
		return nil, err
	}
	return &institution, nil
}

func (c *InstitutionClient) get(ctx context.Context, path string, dest interface{}) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("institutions request error", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("build institutions request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("institutions network error", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("call institutions service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		c.logger.Error("institutions response error", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		c.logger.Error("institutions decode error", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("decode institutions response: %w", err)
	}

	return nil
}
