package index

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"newsgraph/backend/internal/content"
	"newsgraph/backend/internal/graph"
	"newsgraph/backend/pkg/logger"
)

// articleEdges are followed outward from every article, in projection order
var articleEdges = []content.EdgeType{
	content.EdgeAboutGeo,
	content.EdgeHasTopic,
	content.EdgeAboutOrganization,
	content.EdgeAboutPerson,
	content.EdgeHasPhoto,
	content.EdgeByline,
}

// Loader reads the whole content graph through a Store and builds a Snapshot
type Loader struct {
	store       graph.Store
	concurrency int
	logger      *zap.Logger
}

// NewLoader creates a loader that runs at most concurrency article traversals at once
func NewLoader(store graph.Store, concurrency int) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		store:       store,
		concurrency: concurrency,
		logger:      logger.Named("index"),
	}
}

// Load builds a fresh snapshot. Any store failure aborts the build so a
// partial graph is never published.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	articleNodes, err := l.store.FindNodes(ctx, content.LabelArticle, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	geoNodes, err := l.store.FindNodes(ctx, content.LabelGeo, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list geos: %w", err)
	}
	topicNodes, err := l.store.FindNodes(ctx, content.LabelTopic, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}

	geos := make([]content.Geo, 0, len(geoNodes))
	for _, n := range geoNodes {
		g, err := content.GeoFromNode(n)
		if err != nil {
			return nil, err
		}
		geos = append(geos, g)
	}
	topics := make([]content.Tag, 0, len(topicNodes))
	for _, n := range topicNodes {
		t, err := content.TagFromNode(n)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}

	entries := make([]Entry, len(articleNodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, n := range articleNodes {
		g.Go(func() error {
			e, err := l.loadArticle(gctx, n)
			if err != nil {
				return err
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := NewSnapshot(entries, geos, topics)
	l.logger.Info("Index snapshot built",
		zap.Int("articles", len(entries)),
		zap.Int("geos_located", snap.Geo.Len()),
		zap.Int("terms", snap.Search.Terms()),
		zap.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

func (l *Loader) loadArticle(ctx context.Context, n content.Node) (Entry, error) {
	article, err := content.ArticleFromNode(n)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Article: article}

	for _, edge := range articleEdges {
		related, err := l.store.Traverse(ctx, n, edge, content.Outgoing)
		if err != nil {
			return Entry{}, fmt.Errorf("failed to traverse %s from article %s: %w", edge, article.ID, err)
		}
		for _, r := range related {
			e.Related.Add(r)
			if _, isTag := content.TagEdges[r.Label]; isTag {
				tag, err := content.TagFromNode(r)
				if err != nil {
					return Entry{}, err
				}
				e.Tags = append(e.Tags, tag)
			}
		}
	}
	return e, nil
}
