// Package catalog implements part management on top of storage and the keyword index.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/parts/internal/config"
	"github.com/hyperjump/parts/internal/keyword"
	"github.com/hyperjump/parts/internal/models"
	"github.com/hyperjump/parts/internal/paging"
	"github.com/hyperjump/parts/internal/storage"
)

// Service manages parts. Storage is the source of truth; the keyword index is
// updated after every successful write.
type Service struct {
	store     storage.Storage
	index     keyword.Index
	suggester *keyword.Suggester
	config    *config.Config
	logger    *zap.Logger
	newID     func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator replaces the uuid generator used for new part ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithSuggester sets the spelling suggester used when a search finds nothing.
// When the index is also a keyword.TermDictionary a suggester is built automatically.
func WithSuggester(sg *keyword.Suggester) Option {
	return func(s *Service) { s.suggester = sg }
}

// New creates a Service. cfg supplies paging, search, and word frequency settings;
// nil uses the defaults.
func New(store storage.Storage, index keyword.Index, cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Service{
		store:  store,
		index:  index,
		config: cfg,
		logger: zap.NewNop(),
		newID:  func() string { return uuid.New().String() },
	}
	if dict, ok := index.(keyword.TermDictionary); ok {
		s.suggester = keyword.NewSuggester(dict, keyword.WithMaxDistance(cfg.Search.Fuzziness))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates in and stores a new part.
func (s *Service) Create(ctx context.Context, in *models.PartInput) (*models.Part, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	part := &models.Part{ID: s.newID()}
	in.ApplyTo(part)
	if err := s.store.CreatePart(ctx, part); err != nil {
		return nil, err
	}
	if err := s.indexPart(ctx, part); err != nil {
		return part, err
	}
	s.logger.Debug("part created", zap.String("id", part.ID), zap.String("sku", part.SKU))
	return part, nil
}

// Get returns a part by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Part, error) {
	return s.store.GetPart(ctx, id)
}

// GetBySKU returns a part by SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*models.Part, error) {
	return s.store.GetPartBySKU(ctx, sku)
}

// Update replaces every mutable field of the part with id.
func (s *Service) Update(ctx context.Context, id string, in *models.PartInput) (*models.Part, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	part, err := s.store.GetPart(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ApplyTo(part)
	if err := s.store.UpdatePart(ctx, part); err != nil {
		return nil, err
	}
	if err := s.indexPart(ctx, part); err != nil {
		return part, err
	}
	s.logger.Debug("part updated", zap.String("id", part.ID))
	return part, nil
}

// Delete removes the part with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePart(ctx, id); err != nil {
		return err
	}
	if err := s.index.Delete(ctx, id); err != nil {
		s.logger.Error("failed to remove part from index", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("remove from index: %w", err)
	}
	s.invalidateSuggestions()
	s.logger.Debug("part deleted", zap.String("id", id))
	return nil
}

// List returns one page of parts matching filter. A page past the last one has no items.
func (s *Service) List(ctx context.Context, filter *models.ListFilter) (*models.PartPage, error) {
	if filter == nil {
		filter = &models.ListFilter{}
	}
	if err := filter.Validate(s.config.Paging.PageSize, s.config.Paging.MaxPageSize); err != nil {
		return nil, err
	}
	total, err := s.store.CountParts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count parts: %w", err)
	}
	totalPages, err := paging.Pages(int(total), filter.PageSize)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListParts(ctx, filter, paging.Offset(filter.Page, filter.PageSize), filter.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	return &models.PartPage{
		Items:      items,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
		TotalItems: total,
	}, nil
}

// Pages loads every part matching filter and splits it into pages of filter.PageSize.
func (s *Service) Pages(ctx context.Context, filter *models.ListFilter) (map[int][]*models.Part, int, error) {
	if filter == nil {
		filter = &models.ListFilter{}
	}
	if err := filter.Validate(s.config.Paging.PageSize, s.config.Paging.MaxPageSize); err != nil {
		return nil, 0, err
	}
	all, err := s.store.ListParts(ctx, filter, 0, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("list parts: %w", err)
	}
	return paging.Paginate(all, filter.PageSize)
}

// Reindex rebuilds the keyword index from storage and returns the number of parts indexed.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	parts, err := s.store.ListParts(ctx, nil, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("list parts: %w", err)
	}
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := s.index.Index(ctx, part); err != nil {
			return i, fmt.Errorf("index part %s: %w", part.ID, err)
		}
	}
	s.invalidateSuggestions()
	s.logger.Info("reindex complete", zap.Int("parts", len(parts)))
	return len(parts), nil
}

func (s *Service) indexPart(ctx context.Context, part *models.Part) error {
	if err := s.index.Index(ctx, part); err != nil {
		s.logger.Error("failed to index part", zap.String("id", part.ID), zap.Error(err))
		return fmt.Errorf("index part: %w", err)
	}
	s.invalidateSuggestions()
	return nil
}

func (s *Service) invalidateSuggestions() {
	if s.suggester != nil {
		s.suggester.Invalidate()
	}
}

// IsNotFound reports whether err means the requested part does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
