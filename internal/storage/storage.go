// Package storage defines the persistence interface for parts.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/parts/internal/models"
)

var (
	// ErrNotFound is returned when no part matches the requested id or SKU.
	ErrNotFound = errors.New("part not found")
	// ErrDuplicateSKU is returned when a create or update would violate SKU uniqueness.
	ErrDuplicateSKU = errors.New("sku already exists")
)

// Storage defines part persistence operations.
type Storage interface {
	CreatePart(ctx context.Context, part *models.Part) error
	GetPart(ctx context.Context, id string) (*models.Part, error)
	GetPartBySKU(ctx context.Context, sku string) (*models.Part, error)
	// UpdatePart replaces the mutable fields of an existing part and refreshes updated_at.
	UpdatePart(ctx context.Context, part *models.Part) error
	DeletePart(ctx context.Context, id string) error

	// ListParts returns parts matching filter ordered by name, then newest first.
	// Page fields of filter are ignored; a limit <= 0 returns every match.
	ListParts(ctx context.Context, filter *models.ListFilter, offset, limit int) ([]*models.Part, error)
	CountParts(ctx context.Context, filter *models.ListFilter) (int64, error)
	// Descriptions returns the description of every part matching filter, in list order.
	Descriptions(ctx context.Context, filter *models.ListFilter) ([]string, error)

	Close() error
}
