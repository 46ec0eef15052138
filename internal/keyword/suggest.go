package keyword

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is a dictionary term close to a misspelled query term.
type Suggestion struct {
	Term      string  `json:"term"`
	Distance  int     `json:"distance"`
	Frequency int     `json:"frequency"`
	Score     float64 `json:"score"`
}

// Suggester proposes corrections for query terms that are not in the index.
type Suggester struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int

	mu    sync.RWMutex
	terms []string
	known map[string]struct{}
	valid bool
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SuggesterOption {
	return func(s *Suggester) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms found in fewer than f parts.
func WithMinFrequency(f int) SuggesterOption {
	return func(s *Suggester) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions caps the suggestions returned per term.
func WithMaxSuggestions(n int) SuggesterOption {
	return func(s *Suggester) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSuggester creates a Suggester over dict.
func NewSuggester(dict TermDictionary, opts ...SuggesterOption) *Suggester {
	s := &Suggester{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops the cached term list; the next lookup reloads it.
func (s *Suggester) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

// Refresh reloads the term list from the dictionary.
func (s *Suggester) Refresh() error {
	terms, err := s.dictionary.Terms()
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		known[strings.ToLower(t)] = struct{}{}
	}

	s.mu.Lock()
	s.terms = terms
	s.known = known
	s.valid = true
	s.mu.Unlock()
	return nil
}

func (s *Suggester) snapshot() ([]string, map[string]struct{}, error) {
	s.mu.RLock()
	valid := s.valid
	s.mu.RUnlock()
	if !valid {
		if err := s.Refresh(); err != nil {
			return nil, nil, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms, s.known, nil
}

// Known reports whether term appears in the index.
func (s *Suggester) Known(term string) bool {
	_, known, err := s.snapshot()
	if err != nil {
		return false
	}
	_, ok := known[strings.ToLower(term)]
	return ok
}

// Suggest returns dictionary terms within the edit distance of term, best first.
// Closer terms rank higher; among equally close terms the more frequent wins.
func (s *Suggester) Suggest(term string) []Suggestion {
	terms, _, err := s.snapshot()
	if err != nil {
		return nil
	}
	term = strings.ToLower(term)
	termLen := len([]rune(term))

	out := make([]Suggestion, 0)
	for _, candidate := range terms {
		lower := strings.ToLower(candidate)
		if lower == term {
			continue
		}
		diff := len([]rune(lower)) - termLen
		if diff < 0 {
			diff = -diff
		}
		if diff > s.maxDistance {
			continue
		}
		distance := editDistance(term, lower)
		if distance > s.maxDistance {
			continue
		}
		freq, err := s.dictionary.TermFrequency(candidate)
		if err != nil || freq < s.minFreq {
			continue
		}
		out = append(out, Suggestion{
			Term:      candidate,
			Distance:  distance,
			Frequency: freq,
			Score:     float64(freq) / float64(distance+1),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out
}

// Correct replaces each unknown term of query with its best suggestion.
// It reports false when nothing was replaced.
func (s *Suggester) Correct(query string) (string, bool) {
	terms := tokenizeQuery(query)
	changed := false
	for i, term := range terms {
		if s.Known(term) {
			continue
		}
		if suggestions := s.Suggest(term); len(suggestions) > 0 {
			terms[i] = suggestions[0].Term
			changed = true
		}
	}
	if !changed {
		return query, false
	}
	return strings.Join(terms, " "), true
}
