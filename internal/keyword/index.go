// Package keyword provides full-text search over parts.
package keyword

import (
	"context"

	"github.com/hyperjump/parts/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// NameBoost multiplies the score of matches in the part name. Use 1.0 for no boost.
	NameBoost float64
	// Fuzzy enables typo-tolerant matching.
	Fuzzy bool
	// Fuzziness is the maximum edit distance for fuzzy matching (1 or 2). Default 2.
	Fuzziness int
	// MinWeight and MaxWeight restrict hits to a weight_ounces range (inclusive).
	MinWeight *int
	MaxWeight *int
}

// Index defines keyword search operations over parts.
type Index interface {
	Index(ctx context.Context, part *models.Part) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit.
type Result struct {
	ID    string
	Score float64
}

// TermDictionary provides access to indexed terms for spelling suggestions.
type TermDictionary interface {
	// Terms returns all unique terms in the searchable text fields.
	Terms() ([]string, error)
	// TermFrequency returns how many parts contain term.
	TermFrequency(term string) (int, error)
}
