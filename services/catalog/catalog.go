package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"bookline/models"
	"bookline/utils"

	"github.com/go-redis/redis/v8"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// cacheTTL keeps extracted menu text warm for a day; tenant edits go
// through Invalidate.
const cacheTTL = 24 * time.Hour

// maxPDFBytes caps how much of a tenant's menu PDF is fetched.
const maxPDFBytes = 10 << 20

// Service resolves a tenant's published catalog document (a PDF menu or
// price list fetched by URL) into plain text for the prompt.
type Service interface {
	MenuText(ctx context.Context, tenant *models.TenantConfig) (string, error)
	Invalidate(ctx context.Context, tenantID string) error
}

// CachedPDFService fetches and extracts the PDF once, then serves the
// text from Redis.
type CachedPDFService struct {
	cache      *redis.Client
	httpClient *http.Client
}

// NewCachedPDFService builds the service over the shared cache client.
func NewCachedPDFService(cache *redis.Client) *CachedPDFService {
	return &CachedPDFService{
		cache:      cache,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

func cacheKey(tenantID string) string { return "catalog:" + tenantID }

// MenuText returns the extracted text of the tenant's catalog PDF, or an
// empty string when no PDF is configured.
func (s *CachedPDFService) MenuText(ctx context.Context, tenant *models.TenantConfig) (string, error) {
	if tenant.Catalog.PDFURL == "" {
		return "", nil
	}

	cached, err := s.cache.Get(ctx, cacheKey(tenant.ID)).Result()
	if err == nil {
		return cached, nil
	}
	if err != redis.Nil {
		utils.GetLogger().Warn("catalog cache read failed", zap.String("tenant", tenant.ID), zap.Error(err))
	}

	text, err := s.extract(ctx, tenant.Catalog.PDFURL)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, cacheKey(tenant.ID), text, cacheTTL).Err(); err != nil {
		utils.GetLogger().Warn("catalog cache write failed", zap.String("tenant", tenant.ID), zap.Error(err))
	}
	return text, nil
}

// Invalidate drops the cached text so the next read re-fetches the PDF.
func (s *CachedPDFService) Invalidate(ctx context.Context, tenantID string) error {
	return s.cache.Del(ctx, cacheKey(tenantID)).Err()
}

func (s *CachedPDFService) extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("catalog fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("catalog fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return "", fmt.Errorf("catalog read failed: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("catalog pdf parse failed: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("catalog text extraction failed: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("catalog text read failed: %w", err)
	}
	return buf.String(), nil
}
