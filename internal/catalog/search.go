package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/parts/internal/keyword"
	"github.com/hyperjump/parts/internal/models"
)

// Search runs a full-text query over name, SKU, and description.
// When the search finds nothing it offers spelling corrections and, unless the query
// was already fuzzy, retries with fuzzy matching.
func (s *Service) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	if err := q.Validate(s.config.Search.DefaultLimit, s.config.Search.MaxLimit); err != nil {
		return nil, err
	}
	opts := &keyword.SearchOptions{
		NameBoost: s.config.Search.NameBoost,
		Fuzzy:     q.Fuzzy,
		Fuzziness: s.config.Search.Fuzziness,
		MinWeight: q.MinWeight,
		MaxWeight: q.MaxWeight,
	}
	results, err := s.index.Search(ctx, q.Query, q.Limit, opts)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	resp := &models.SearchResponse{Query: q.Query, Hits: make([]*models.SearchHit, 0, len(results))}
	if len(results) == 0 && s.suggester != nil {
		if corrected, ok := s.suggester.Correct(q.Query); ok {
			resp.Suggestions = []string{corrected}
		}
	}
	if len(results) == 0 && !q.Fuzzy {
		opts.Fuzzy = true
		results, err = s.index.Search(ctx, q.Query, q.Limit, opts)
		if err != nil {
			return nil, fmt.Errorf("fuzzy search failed: %w", err)
		}
		resp.AutoFuzzy = len(results) > 0
	}

	for _, r := range results {
		part, err := s.store.GetPart(ctx, r.ID)
		if err != nil {
			// Stale index entry; reindex clears these.
			s.logger.Debug("search hit not in storage", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		resp.Hits = append(resp.Hits, &models.SearchHit{Part: part, Score: r.Score, Rank: len(resp.Hits) + 1})
	}
	resp.Total = len(resp.Hits)
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}
