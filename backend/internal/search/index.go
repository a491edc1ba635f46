// Package search is a token index over article titles and abstracts with
// single-edit fuzzy matching.
package search

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"newsgraph/backend/internal/constants"
	apperrors "newsgraph/backend/pkg/errors"
)

// Document is the indexed text of one article
type Document struct {
	ID        string
	Title     string
	Abstract  string
	Published time.Time
}

// Hit is a ranked match
type Hit struct {
	ArticleID string  `json:"article_id"`
	Score     float64 `json:"score"`
}

type frequency struct {
	title    int
	abstract int
}

func (f frequency) weight() float64 {
	return constants.TitleWeight*float64(f.title) + constants.AbstractWeight*float64(f.abstract)
}

// Index is an inverted index from terms to per-document field frequencies.
// It is immutable after construction and safe for concurrent reads.
type Index struct {
	postings  map[string]map[string]frequency
	byLength  map[int][]string
	published map[string]time.Time
}

// NewIndex analyzes and indexes documents
func NewIndex(docs []Document) *Index {
	ix := &Index{
		postings:  make(map[string]map[string]frequency),
		byLength:  make(map[int][]string),
		published: make(map[string]time.Time, len(docs)),
	}

	for _, doc := range docs {
		ix.published[doc.ID] = doc.Published
		for _, tok := range Analyze(doc.Title) {
			f := ix.posting(tok, doc.ID)
			f.title++
			ix.postings[tok][doc.ID] = f
		}
		for _, tok := range Analyze(PlainText(doc.Abstract)) {
			f := ix.posting(tok, doc.ID)
			f.abstract++
			ix.postings[tok][doc.ID] = f
		}
	}
	return ix
}

func (ix *Index) posting(term, docID string) frequency {
	docs, ok := ix.postings[term]
	if !ok {
		docs = make(map[string]frequency)
		ix.postings[term] = docs
		n := utf8.RuneCountInString(term)
		ix.byLength[n] = append(ix.byLength[n], term)
	}
	return docs[docID]
}

// Terms returns the vocabulary size
func (ix *Index) Terms() int {
	return len(ix.postings)
}

// Search ranks documents matching any query token. A token matches its exact
// term at full weight and, when long enough, terms one edit away at reduced
// weight. Results are ordered by score, then newer first, then id. limit <= 0
// returns every match.
func (ix *Index) Search(query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewInvalidArgument("query", "must not be empty")
	}

	scores := make(map[string]float64)
	seen := make(map[string]struct{})
	for _, tok := range Analyze(query) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}

		// Best contribution of this token per document
		best := make(map[string]float64)
		for term, factor := range ix.expand(tok) {
			for docID, f := range ix.postings[term] {
				if s := factor * f.weight(); s > best[docID] {
					best[docID] = s
				}
			}
		}
		for docID, s := range best {
			scores[docID] += s
		}
	}

	hits := make([]Hit, 0, len(scores))
	for id, s := range scores {
		hits = append(hits, Hit{ArticleID: id, Score: s})
	}
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		pa, pb := ix.published[a.ArticleID], ix.published[b.ArticleID]
		if !pa.Equal(pb) {
			return pa.After(pb)
		}
		return a.ArticleID < b.ArticleID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// expand maps a query token to the indexed terms it matches and their weight factor
func (ix *Index) expand(tok string) map[string]float64 {
	terms := make(map[string]float64)
	if _, ok := ix.postings[tok]; ok {
		terms[tok] = 1
	}

	n := utf8.RuneCountInString(tok)
	if n < constants.MinFuzzyTokenLength {
		return terms
	}
	q := []rune(tok)
	for length := n - 1; length <= n+1; length++ {
		for _, term := range ix.byLength[length] {
			if term == tok {
				continue
			}
			if withinOneEdit(q, []rune(term)) {
				terms[term] = constants.FuzzyPenalty
			}
		}
	}
	return terms
}
