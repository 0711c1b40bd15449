// Package tenant exposes the administrative entry points: per-tenant
// document enumeration, tenant deletion and index-wide stats.
package tenant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/altura-advisory/retrieval/internal/domain"
	"github.com/altura-advisory/retrieval/internal/index"
)

// Service handles administrative operations.
type Service struct {
	index  Index
	logger *zap.Logger
}

// New creates a tenant administration service.
func New(idx Index, logger *zap.Logger) *Service {
	return &Service{index: idx, logger: logger}
}

// ListDocuments returns the distinct document IDs of one tenant,
// sorted. A tenant with no records yields an empty list, not an error.
func (s *Service) ListDocuments(ctx context.Context, tenantID string) ([]string, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant ID is required: %w", domain.ErrTenantNotFound)
	}
	docs, err := s.index.ListDocuments(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list documents for %s: %w", tenantID, err)
	}
	if docs == nil {
		docs = []string{}
	}
	return docs, nil
}

// DeleteTenant removes all records of one tenant. Deleting a tenant
// that has no records succeeds.
func (s *Service) DeleteTenant(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant ID is required: %w", domain.ErrTenantNotFound)
	}
	if err := s.index.DeleteTenant(ctx, tenantID); err != nil {
		return fmt.Errorf("delete tenant %s: %w", tenantID, err)
	}
	s.logger.Info("Tenant deleted", zap.String("tenant_id", tenantID))
	return nil
}

// Stats reports tenant and record counts for the whole index.
func (s *Service) Stats(ctx context.Context) (index.Stats, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return index.Stats{}, fmt.Errorf("index stats: %w", err)
	}
	return stats, nil
}
