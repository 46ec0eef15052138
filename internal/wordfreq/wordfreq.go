// Package wordfreq counts the most frequent words across one or more texts.
package wordfreq

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Defaults applied when Options fields are zero.
const (
	DefaultMinLength = 3
	DefaultTopN      = 5
)

// Options tunes Count. Zero values select the defaults.
type Options struct {
	// MinLength excludes words whose length (in characters) is not greater than it.
	MinLength int
	// TopN caps the number of returned words.
	TopN int
}

func (o Options) withDefaults() Options {
	if o.MinLength <= 0 {
		o.MinLength = DefaultMinLength
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	return o
}

// WordCount is a word and the number of times it occurred.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Count splits texts on whitespace and returns the TopN most frequent words longer
// than MinLength, ordered by count descending. Equal counts keep first-seen order.
// Words are compared exactly: no case folding, punctuation stays attached.
func Count(texts []string, opts Options) []WordCount {
	opts = opts.withDefaults()

	index := make(map[string]int)
	var counts []WordCount
	for _, text := range texts {
		for _, w := range strings.Fields(text) {
			if utf8.RuneCountInString(w) <= opts.MinLength {
				continue
			}
			if i, ok := index[w]; ok {
				counts[i].Count++
				continue
			}
			index[w] = len(counts)
			counts = append(counts, WordCount{Word: w, Count: 1})
		}
	}

	// counts is in first-seen order, so a stable sort keeps that order among ties.
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > opts.TopN {
		counts = counts[:opts.TopN]
	}
	if counts == nil {
		counts = []WordCount{}
	}
	return counts
}

// ToMap converts counts to a plain word -> count mapping.
func ToMap(counts []WordCount) map[string]int {
	m := make(map[string]int, len(counts))
	for _, c := range counts {
		m[c.Word] = c.Count
	}
	return m
}
