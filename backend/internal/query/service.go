// Package query is the public face of the content graph: geo, similarity and
// text queries over the active index snapshot, plus identity-scoped comments
// read live from the store.
package query

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"newsgraph/backend/internal/auth"
	"newsgraph/backend/internal/constants"
	"newsgraph/backend/internal/content"
	"newsgraph/backend/internal/graph"
	"newsgraph/backend/internal/index"
	"newsgraph/backend/internal/projection"
	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
	"newsgraph/backend/pkg/metrics"
)

var errNoSnapshot = errors.New("index snapshot not loaded")

// Snapshots supplies the active index snapshot. *index.Holder implements it.
type Snapshots interface {
	Current() *index.Snapshot
}

// Options bounds caller-supplied limits
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// GeoQuery asks for articles about the places nearest a point
type GeoQuery struct {
	Latitude  float64
	Longitude float64
	// Limit is the number of nearest geos considered; 0 means the default
	Limit int
	// WithinMeters restricts candidates to geos at most this far away; 0 means unbounded
	WithinMeters float64
}

// CommentView is a comment with the article it belongs to
type CommentView struct {
	ID        string    `json:"id"`
	Created   time.Time `json:"created"`
	Text      string    `json:"text"`
	ArticleID string    `json:"articleId,omitempty"`
}

// Service runs queries. It holds no mutable state of its own and is safe for
// concurrent use.
type Service struct {
	store     graph.Store
	snapshots Snapshots
	opts      Options
	logger    *zap.Logger
}

// NewService creates a query service. store is only used for identity-scoped
// lookups; everything else reads the snapshot.
func NewService(store graph.Store, snapshots Snapshots, opts Options) *Service {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = constants.DefaultResultLimit
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	return &Service{
		store:     store,
		snapshots: snapshots,
		opts:      opts,
		logger:    logger.Named("query"),
	}
}

// GeoNearest returns the articles about the q.Limit geos nearest the query
// point, newest first. An article reachable through several geos appears once.
func (s *Service) GeoNearest(ctx context.Context, q GeoQuery) (views []projection.ArticleView, err error) {
	defer s.observe("geo_nearest", time.Now(), &err)

	if math.IsNaN(q.Latitude) || q.Latitude < -90 || q.Latitude > 90 {
		return nil, apperrors.NewInvalidArgument("latitude", "must be between -90 and 90")
	}
	if math.IsNaN(q.Longitude) || q.Longitude < -180 || q.Longitude > 180 {
		return nil, apperrors.NewInvalidArgument("longitude", "must be between -180 and 180")
	}
	if math.IsNaN(q.WithinMeters) || q.WithinMeters < 0 {
		return nil, apperrors.NewInvalidArgument("withinMeters", "must be zero or positive")
	}
	k, err := s.limit(q.Limit)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	matches := snap.Geo.Nearest(content.Point{Latitude: q.Latitude, Longitude: q.Longitude}, k, q.WithinMeters)
	ids := snap.Geo.Articles(matches)
	s.sortByPublished(snap, ids)

	s.logger.Debug("Geo query",
		zap.Float64("latitude", q.Latitude),
		zap.Float64("longitude", q.Longitude),
		zap.Int("geos", len(matches)),
		zap.Int("articles", len(ids)),
	)
	return snap.Articles.Assemble(ids), nil
}

// SimilarArticles ranks articles by tag-set Jaccard similarity to articleID
func (s *Service) SimilarArticles(ctx context.Context, articleID string, limit int) (views []projection.ArticleView, err error) {
	defer s.observe("similar_articles", time.Now(), &err)

	if strings.TrimSpace(articleID) == "" {
		return nil, apperrors.NewInvalidArgument("articleId", "must not be empty")
	}
	k, err := s.limit(limit)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	matches, err := snap.Similarity.Similar(articleID, k)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ArticleID
	}
	return snap.Articles.Assemble(ids), nil
}

// TextSearch returns articles matching query, best first. limit 0 returns every match.
func (s *Service) TextSearch(ctx context.Context, query string, limit int) (views []projection.ArticleView, err error) {
	defer s.observe("text_search", time.Now(), &err)

	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewInvalidArgument("query", "must not be empty")
	}
	if limit < 0 {
		return nil, apperrors.NewInvalidArgument("limit", "must not be negative")
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	hits, err := snap.Search.Search(query, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ArticleID
	}
	return snap.Articles.Assemble(ids), nil
}

// Article returns a single article
func (s *Service) Article(ctx context.Context, articleID string) (view projection.ArticleView, err error) {
	defer s.observe("article", time.Now(), &err)

	if strings.TrimSpace(articleID) == "" {
		return projection.ArticleView{}, apperrors.NewInvalidArgument("articleId", "must not be empty")
	}
	snap, err := s.snapshot()
	if err != nil {
		return projection.ArticleView{}, err
	}
	view, ok := snap.Articles.Article(articleID)
	if !ok {
		return projection.ArticleView{}, apperrors.NewNotFound("article", articleID)
	}
	return view, nil
}

// Topics lists every topic with its article count, most used first
func (s *Service) Topics(ctx context.Context) (topics []index.TopicCount, err error) {
	defer s.observe("topics", time.Now(), &err)

	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return append([]index.TopicCount{}, snap.Topics...), nil
}

// MyComments returns the comments written by the verified caller, newest
// first. It reads the store directly so a new comment is visible immediately.
func (s *Service) MyComments(ctx context.Context, id auth.Identity) (comments []CommentView, err error) {
	defer s.observe("my_comments", time.Now(), &err)

	if !id.IsVerified() {
		return nil, apperrors.NewUnauthorized("no verified subject")
	}

	users, err := s.store.FindNodes(ctx, content.LabelUser, graph.ByID(content.LabelUser, id.Subject))
	if err != nil {
		return nil, err
	}

	comments = []CommentView{}
	for _, user := range users {
		if user.ID != id.Subject {
			continue
		}
		written, err := s.store.Traverse(ctx, user, content.EdgeWroteComment, content.Outgoing)
		if err != nil {
			return nil, err
		}
		for _, n := range written {
			c := content.CommentFromNode(n)
			view := CommentView{ID: c.ID, Created: c.Created, Text: c.Text}

			articles, err := s.store.Traverse(ctx, n, content.EdgeHasComment, content.Incoming)
			if err != nil {
				return nil, err
			}
			if len(articles) > 0 {
				view.ArticleID = articles[0].ID
			}
			comments = append(comments, view)
		}
	}

	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].Created.Equal(comments[j].Created) {
			return comments[i].Created.After(comments[j].Created)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

func (s *Service) snapshot() (*index.Snapshot, error) {
	snap := s.snapshots.Current()
	if snap == nil {
		return nil, apperrors.NewStoreUnavailable("snapshot", 0, errNoSnapshot)
	}
	return snap, nil
}

// limit resolves a caller limit: 0 means the default, larger values are capped
func (s *Service) limit(requested int) (int, error) {
	switch {
	case requested < 0:
		return 0, apperrors.NewInvalidArgument("limit", "must not be negative")
	case requested == 0:
		return s.opts.DefaultLimit, nil
	case requested > s.opts.MaxLimit:
		return s.opts.MaxLimit, nil
	}
	return requested, nil
}

// sortByPublished orders article ids newest first, then by id
func (s *Service) sortByPublished(snap *index.Snapshot, ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		pi, _ := snap.Articles.Published(ids[i])
		pj, _ := snap.Articles.Published(ids[j])
		if !pi.Equal(pj) {
			return pi.After(pj)
		}
		return ids[i] < ids[j]
	})
}

func (s *Service) observe(op string, start time.Time, err *error) {
	metrics.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	code := "OK"
	if *err != nil {
		code = apperrors.Code(*err)
		if code == apperrors.CodeStoreUnavailable || code == apperrors.CodeInternal {
			s.logger.Error("Query failed", zap.String("operation", op), zap.String("code", code), zap.Error(*err))
		}
	}
	metrics.QueriesTotal.WithLabelValues(op, code).Inc()
}
