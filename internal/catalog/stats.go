package catalog

import (
	"context"
	"fmt"

	"github.com/hyperjump/parts/internal/models"
)

// Stats summarizes the catalog for the status endpoint.
type Stats struct {
	TotalParts    int64  `json:"total_parts"`
	ActiveParts   int64  `json:"active_parts"`
	InactiveParts int64  `json:"inactive_parts"`
	IndexedParts  uint64 `json:"indexed_parts"`
}

// Stats counts stored and indexed parts.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.store.CountParts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("count parts: %w", err)
	}
	active := 1
	activeCount, err := s.store.CountParts(ctx, &models.ListFilter{IsActive: &active})
	if err != nil {
		return nil, fmt.Errorf("count active parts: %w", err)
	}
	indexed, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("index doc count: %w", err)
	}
	return &Stats{
		TotalParts:    total,
		ActiveParts:   activeCount,
		InactiveParts: total - activeCount,
		IndexedParts:  indexed,
	}, nil
}
