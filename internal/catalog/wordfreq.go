package catalog

import (
	"context"
	"fmt"

	"github.com/hyperjump/parts/internal/models"
	"github.com/hyperjump/parts/internal/wordfreq"
)

// WordFrequencyRequest selects the descriptions to count. When ID is set only that
// part is counted, otherwise every part matching Filter. A zero MinLength or TopN
// selects the configured default.
type WordFrequencyRequest struct {
	ID        string
	Filter    *models.ListFilter
	MinLength int
	TopN      int
}

// WordFrequency returns the most frequent description words of the selected parts.
func (s *Service) WordFrequency(ctx context.Context, req *WordFrequencyRequest) ([]wordfreq.WordCount, error) {
	if req == nil {
		req = &WordFrequencyRequest{}
	}
	verr := &models.ValidationError{}
	if req.MinLength < 0 {
		verr.Add("min_length", models.KindMinValue, "min_length must not be negative (0 uses the default)")
	}
	if req.TopN < 0 {
		verr.Add("top_n", models.KindMinValue, "top_n must not be negative (0 uses the default)")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var texts []string
	if req.ID != "" {
		part, err := s.store.GetPart(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		texts = []string{part.Description}
	} else {
		descriptions, err := s.store.Descriptions(ctx, req.Filter)
		if err != nil {
			return nil, fmt.Errorf("load descriptions: %w", err)
		}
		texts = descriptions
	}

	opts := wordfreq.Options{MinLength: req.MinLength, TopN: req.TopN}
	if opts.MinLength == 0 {
		opts.MinLength = s.config.WordFrequency.MinLength
	}
	if opts.TopN == 0 {
		opts.TopN = s.config.WordFrequency.TopN
	}
	return wordfreq.Count(texts, opts), nil
}
