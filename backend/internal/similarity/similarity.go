// Package similarity ranks articles by the Jaccard index of their tag sets.
package similarity

import (
	"sort"
	"time"

	apperrors "newsgraph/backend/pkg/errors"
)

// Entry is one article's contribution to the index
type Entry struct {
	ArticleID string
	Published time.Time
	// Tags are label-qualified identifiers; duplicates are collapsed
	Tags []string
}

// Match is a scored candidate
type Match struct {
	ArticleID string  `json:"article_id"`
	Score     float64 `json:"score"`
}

type article struct {
	published time.Time
	tags      map[string]struct{}
}

// Index holds tag sets per article and an inverted tag -> articles index,
// so ranking only visits articles sharing at least one tag with the reference.
// It is immutable after construction and safe for concurrent reads.
type Index struct {
	articles map[string]article
	postings map[string][]string
}

// NewIndex builds an index from entries. A repeated article id keeps the union of its tags.
func NewIndex(entries []Entry) *Index {
	ix := &Index{
		articles: make(map[string]article, len(entries)),
		postings: make(map[string][]string),
	}

	for _, e := range entries {
		a, ok := ix.articles[e.ArticleID]
		if !ok {
			a = article{published: e.Published, tags: make(map[string]struct{}, len(e.Tags))}
		}
		for _, tag := range e.Tags {
			if _, seen := a.tags[tag]; seen {
				continue
			}
			a.tags[tag] = struct{}{}
			ix.postings[tag] = append(ix.postings[tag], e.ArticleID)
		}
		ix.articles[e.ArticleID] = a
	}
	return ix
}

// Len returns the number of indexed articles
func (ix *Index) Len() int {
	return len(ix.articles)
}

// Tags returns the tag set of an article in sorted order
func (ix *Index) Tags(articleID string) ([]string, bool) {
	a, ok := ix.articles[articleID]
	if !ok {
		return nil, false
	}
	tags := make([]string, 0, len(a.tags))
	for t := range a.tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, true
}

// Similar returns up to k articles most similar to articleID, excluding it.
// Ties fall back to newer first, then identifier ascending. Articles sharing
// no tag score 0 and are never returned.
func (ix *Index) Similar(articleID string, k int) ([]Match, error) {
	ref, ok := ix.articles[articleID]
	if !ok {
		return nil, apperrors.NewNotFound("article", articleID)
	}
	if k < 1 || len(ref.tags) == 0 {
		return []Match{}, nil
	}

	// Count intersections by walking the postings of the reference tags
	overlap := make(map[string]int)
	for tag := range ref.tags {
		for _, other := range ix.postings[tag] {
			if other != articleID {
				overlap[other]++
			}
		}
	}

	matches := make([]Match, 0, len(overlap))
	for other, shared := range overlap {
		score := jaccard(shared, len(ref.tags), len(ix.articles[other].tags))
		matches = append(matches, Match{ArticleID: other, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		pa, pb := ix.articles[a.ArticleID].published, ix.articles[b.ArticleID].published
		if !pa.Equal(pb) {
			return pa.After(pb)
		}
		return a.ArticleID < b.ArticleID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// jaccard scores two sets of the given sizes sharing shared elements:
// |a ∩ b| / |a ∪ b|, or 0 when both are empty.
func jaccard(shared, sizeA, sizeB int) float64 {
	union := sizeA + sizeB - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
