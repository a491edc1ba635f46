package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"newsgraph/backend/internal/content"
	"newsgraph/backend/pkg/logger"
)

// Repository implements Store over Neo4j. Every query runs in a read session;
// nothing here writes to the database.
type Repository struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext, database string) *Repository {
	return &Repository{
		driver:   driver,
		database: database,
		logger:   logger.Named("graph"),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// FindNodes implements Store
func (r *Repository) FindNodes(ctx context.Context, label content.Label, filter Filter) ([]content.Node, error) {
	query, params, err := buildFindQuery(label, filter)
	if err != nil {
		return nil, err
	}
	return r.collectNodes(ctx, query, params, label)
}

// Traverse implements Store
func (r *Repository) Traverse(ctx context.Context, from content.Node, edge content.EdgeType, dir content.Direction) ([]content.Node, error) {
	query, params, target, err := buildTraverseQuery(from, edge, dir)
	if err != nil {
		return nil, err
	}
	return r.collectNodes(ctx, query, params, target)
}

func (r *Repository) collectNodes(ctx context.Context, query string, params map[string]interface{}, label content.Label) ([]content.Node, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	nodes := []content.Node{}
	for result.Next(ctx) {
		raw, ok := result.Record().Get("n")
		if !ok {
			continue
		}
		dbNode, ok := raw.(neo4j.Node)
		if !ok {
			continue
		}
		nodes = append(nodes, nodeFromDB(dbNode, label))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	r.logger.Debug("Graph query",
		zap.String("label", string(label)),
		zap.Int("nodes", len(nodes)),
	)
	return nodes, nil
}

// buildFindQuery renders a label lookup. Labels and property names cannot be
// parameters in Cypher, so both are checked before interpolation.
func buildFindQuery(label content.Label, filter Filter) (string, map[string]interface{}, error) {
	if !content.IsKnownLabel(label) {
		return "", nil, fmt.Errorf("%w: unknown label: %s", ErrInvalidQuery, label)
	}

	params := make(map[string]interface{}, len(filter))
	conditions := make([]string, 0, len(filter))
	for i, key := range filter.keys() {
		if !validPropertyName(key) {
			return "", nil, fmt.Errorf("%w: invalid property name: %q", ErrInvalidQuery, key)
		}
		param := fmt.Sprintf("p%d", i)
		conditions = append(conditions, fmt.Sprintf("n.%s = $%s", key, param))
		params[param] = filter[key]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MATCH (n:%s)", label)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	b.WriteString(" RETURN n")
	return b.String(), params, nil
}

func buildTraverseQuery(from content.Node, edge content.EdgeType, dir content.Direction) (string, map[string]interface{}, content.Label, error) {
	target, err := content.Target(edge, from.Label, dir)
	if err != nil {
		return "", nil, "", fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	arrowLeft, arrowRight := "-", "->"
	if dir == content.Incoming {
		arrowLeft, arrowRight = "<-", "-"
	}

	query := fmt.Sprintf("MATCH (s:%s {%s: $id})%s[:%s]%s(n:%s) RETURN n",
		from.Label, content.IdentityKeys[from.Label],
		arrowLeft, edge, arrowRight, target,
	)
	return query, map[string]interface{}{"id": from.ID}, target, nil
}
