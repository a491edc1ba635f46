// Package index builds immutable query snapshots from the graph store and
// swaps them in atomically.
package index

import (
	"sort"
	"time"

	"newsgraph/backend/internal/content"
	"newsgraph/backend/internal/geo"
	"newsgraph/backend/internal/projection"
	"newsgraph/backend/internal/search"
	"newsgraph/backend/internal/similarity"
)

// Entry is everything the snapshot needs to know about one article
type Entry struct {
	Article content.Article
	Related projection.Related
	// Tags are the Topic, Geo, Organization and Person nodes the article references
	Tags []content.Tag
}

// TopicCount is a topic with the number of articles tagged with it
type TopicCount struct {
	Name         string `json:"name"`
	ArticleCount int    `json:"articleCount"`
}

// Snapshot is a consistent set of indices built from one pass over the store.
// Nothing in it is mutated after NewSnapshot returns.
type Snapshot struct {
	Similarity *similarity.Index
	Geo        *geo.Index
	Search     *search.Index
	Articles   *projection.Assembler
	Topics     []TopicCount
	BuiltAt    time.Time
}

// NewSnapshot indexes entries. geos supplies locations, topics lets topics
// without articles report a zero count.
func NewSnapshot(entries []Entry, geos []content.Geo, topics []content.Tag) *Snapshot {
	simEntries := make([]similarity.Entry, 0, len(entries))
	docs := make([]search.Document, 0, len(entries))
	records := make([]projection.Record, 0, len(entries))
	articlesByGeo := make(map[string][]string)
	topicCounts := make(map[string]*TopicCount)

	for _, t := range topics {
		if _, ok := topicCounts[t.ID]; !ok {
			topicCounts[t.ID] = &TopicCount{Name: t.Name}
		}
	}

	for _, e := range entries {
		a := e.Article
		keys := make([]string, 0, len(e.Tags))
		seen := make(map[string]struct{}, len(e.Tags))
		for _, tag := range e.Tags {
			key := tag.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)

			switch tag.Label {
			case content.LabelGeo:
				articlesByGeo[tag.ID] = append(articlesByGeo[tag.ID], a.ID)
			case content.LabelTopic:
				tc, ok := topicCounts[tag.ID]
				if !ok {
					tc = &TopicCount{Name: tag.Name}
					topicCounts[tag.ID] = tc
				}
				tc.ArticleCount++
			}
		}

		simEntries = append(simEntries, similarity.Entry{ArticleID: a.ID, Published: a.Published, Tags: keys})
		docs = append(docs, search.Document{ID: a.ID, Title: a.Title, Abstract: a.Abstract, Published: a.Published})
		records = append(records, projection.Record{Article: a, Related: e.Related})
	}

	counts := make([]TopicCount, 0, len(topicCounts))
	for _, tc := range topicCounts {
		counts = append(counts, *tc)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].ArticleCount != counts[j].ArticleCount {
			return counts[i].ArticleCount > counts[j].ArticleCount
		}
		return counts[i].Name < counts[j].Name
	})

	return &Snapshot{
		Similarity: similarity.NewIndex(simEntries),
		Geo:        geo.NewIndex(geos, articlesByGeo),
		Search:     search.NewIndex(docs),
		Articles:   projection.NewAssembler(records),
		Topics:     counts,
		BuiltAt:    time.Now().UTC(),
	}
}
