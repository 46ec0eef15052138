package keyword

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/parts/internal/models"
)

// Indexed field names.
const (
	fieldName        = "name"
	fieldSKU         = "sku"
	fieldDescription = "description"
	fieldWeight      = "weight_ounces"
	fieldActive      = "is_active"
)

// textFields are the analyzed fields searched by free-text queries.
var textFields = []string{fieldName, fieldDescription}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// An existing index is reopened as-is; if the mapping below changes, rebuild it with
// the reindex command.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	index, err := bleve.New(path, newPartMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryBleveIndex creates an index that lives only in memory.
func NewMemoryBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newPartMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newPartMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	partMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so "coil" matches "Coil" but not "coiled".
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	partMapping.AddFieldMappingsAt(fieldName, text)
	partMapping.AddFieldMappingsAt(fieldDescription, text)

	sku := bleve.NewKeywordFieldMapping()
	sku.IncludeInAll = false
	partMapping.AddFieldMappingsAt(fieldSKU, sku)

	weight := bleve.NewNumericFieldMapping()
	weight.IncludeInAll = false
	partMapping.AddFieldMappingsAt(fieldWeight, weight)
	active := bleve.NewNumericFieldMapping()
	active.IncludeInAll = false
	partMapping.AddFieldMappingsAt(fieldActive, active)

	im.AddDocumentMapping("part", partMapping)
	im.DefaultType = "part"
	im.DefaultMapping = partMapping
	return im
}

// Index adds or replaces a part in the index.
// SKUs are stored lowercased so lookups are case-insensitive.
func (b *BleveIndex) Index(ctx context.Context, part *models.Part) error {
	doc := map[string]interface{}{
		fieldName:        part.Name,
		fieldSKU:         strings.ToLower(part.SKU),
		fieldDescription: part.Description,
		fieldWeight:      float64(part.WeightOunces),
		fieldActive:      float64(part.IsActive),
	}
	return b.index.Index(part.ID, doc)
}

// Search matches query against name, description, and SKU and returns up to limit hits,
// best first. A single-token query also matches SKUs exactly or by prefix.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	nameBoost := 1.0
	fuzzy := false
	fuzziness := 2
	var minWeight, maxWeight *int
	if opts != nil {
		if opts.NameBoost > 0 {
			nameBoost = opts.NameBoost
		}
		fuzzy = opts.Fuzzy
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
		minWeight, maxWeight = opts.MinWeight, opts.MaxWeight
	}

	var clauses []blevequery.Query
	for _, field := range textFields {
		boost := 1.0
		if field == fieldName {
			boost = nameBoost
		}
		if fuzzy {
			clauses = append(clauses, buildFuzzyQuery(query, fuzziness, field, boost))
			continue
		}
		mq := bleve.NewMatchQuery(query)
		mq.SetField(field)
		mq.SetBoost(boost)
		clauses = append(clauses, mq)
	}
	if sku := strings.ToLower(strings.TrimSpace(query)); sku != "" && !strings.ContainsAny(sku, " \t\n") {
		exact := bleve.NewTermQuery(sku)
		exact.SetField(fieldSKU)
		exact.SetBoost(5)
		prefix := bleve.NewPrefixQuery(sku)
		prefix.SetField(fieldSKU)
		prefix.SetBoost(2)
		clauses = append(clauses, exact, prefix)
	}

	var q blevequery.Query = bleve.NewDisjunctionQuery(clauses...)
	if minWeight != nil || maxWeight != nil {
		q = bleve.NewConjunctionQuery(q, weightRange(minWeight, maxWeight))
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

func weightRange(minWeight, maxWeight *int) blevequery.Query {
	var lo, hi *float64
	if minWeight != nil {
		v := float64(*minWeight)
		lo = &v
	}
	if maxWeight != nil {
		v := float64(*maxWeight)
		hi = &v
	}
	inclusive := true
	rq := bleve.NewNumericRangeInclusiveQuery(lo, hi, &inclusive, &inclusive)
	rq.SetField(fieldWeight)
	return rq
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery ORs a FuzzyQuery per query term, restricted to field.
func buildFuzzyQuery(queryStr string, fuzziness int, field string, boost float64) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField(field)
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		fq.SetBoost(boost)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes a part from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the number of indexed parts.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// Terms returns every unique term in the name and description fields.
func (b *BleveIndex) Terms() ([]string, error) {
	seen := make(map[string]struct{})
	terms := make([]string, 0)
	for _, field := range textFields {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("field dictionary %s: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if _, ok := seen[entry.Term]; !ok {
				seen[entry.Term] = struct{}{}
				terms = append(terms, entry.Term)
			}
		}
		_ = dict.Close()
	}
	return terms, nil
}

// TermFrequency returns the number of parts whose name or description contains term.
func (b *BleveIndex) TermFrequency(term string) (int, error) {
	queries := make([]blevequery.Query, 0, len(textFields))
	for _, field := range textFields {
		tq := bleve.NewTermQuery(strings.ToLower(term))
		tq.SetField(field)
		queries = append(queries, tq)
	}
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	req.Size = 0
	results, err := b.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("term frequency %q: %w", term, err)
	}
	return int(results.Total), nil
}
