package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"newsgraph/backend/internal/content"
	"newsgraph/backend/internal/graph"
	"newsgraph/backend/pkg/config"
	"newsgraph/backend/pkg/logger"
)

func main() {
	fixturePath := flag.String("fixture", "backend/fixtures/news.json", "JSON fixture to load")
	reset := flag.Bool("reset", false, "Delete existing content graph nodes before loading")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	file, err := os.Open(*fixturePath)
	if err != nil {
		log.Fatal("Failed to open fixture", zap.String("path", *fixturePath), zap.Error(err))
	}
	fixture, err := graph.ReadFixture(file)
	file.Close()
	if err != nil {
		log.Fatal("Failed to read fixture", zap.Error(err))
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: cfg.Neo4jDatabase,
	})
	defer session.Close(ctx)

	if *reset {
		log.Info("Deleting existing content graph...")
		if err := resetGraph(ctx, session); err != nil {
			log.Fatal("Failed to reset graph", zap.Error(err))
		}
	}

	// Create constraints
	log.Info("Creating constraints...")
	createConstraints(ctx, session, log)

	// Create indexes for better performance
	log.Info("Creating indexes...")
	createIndexes(ctx, session, log)

	log.Info("Loading fixture", zap.Int("nodes", len(fixture.Nodes)), zap.Int("edges", len(fixture.Edges)))
	for _, n := range fixture.Nodes {
		if err := mergeNode(ctx, session, n); err != nil {
			log.Fatal("Failed to merge node", zap.String("label", string(n.Label)), zap.String("id", n.ID), zap.Error(err))
		}
	}
	for _, e := range fixture.Edges {
		if err := mergeEdge(ctx, session, e); err != nil {
			log.Fatal("Failed to merge edge", zap.String("type", string(e.Type)), zap.String("from", e.From), zap.String("to", e.To), zap.Error(err))
		}
	}

	log.Info("Seed completed")
}

func labelList() []string {
	labels := make([]string, 0, len(content.IdentityKeys))
	for l := range content.IdentityKeys {
		labels = append(labels, string(l))
	}
	return labels
}

// cypherRunner is the part of a session the seed steps use
type cypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any, configurers ...func(*neo4j.TransactionConfig)) (neo4j.ResultWithContext, error)
}

// run executes an auto-commit statement. Server-side failures can surface only
// once the result is consumed.
func run(ctx context.Context, r cypherRunner, stmt string, params map[string]interface{}) error {
	result, err := r.Run(ctx, stmt, params)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

func resetGraph(ctx context.Context, session cypherRunner) error {
	return run(ctx, session,
		"MATCH (n) WHERE any(l IN labels(n) WHERE l IN $labels) DETACH DELETE n",
		map[string]interface{}{"labels": labelList()},
	)
}

// createConstraints makes each label's identity property unique
func createConstraints(ctx context.Context, session cypherRunner, log *zap.Logger) {
	for label, key := range content.IdentityKeys {
		stmt := fmt.Sprintf("CREATE CONSTRAINT %s_%s_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			label, key, label, key)
		if err := run(ctx, session, stmt, nil); err != nil {
			// Log but don't fail - constraints may already exist
			log.Warn("Failed to create constraint", zap.String("label", string(label)), zap.Error(err))
		}
	}
}

// createIndexes creates the text and spatial indexes the original queries relied on
func createIndexes(ctx context.Context, session cypherRunner, log *zap.Logger) {
	indexes := []string{
		"CREATE INDEX article_published IF NOT EXISTS FOR (a:Article) ON (a.published)",
		"CREATE POINT INDEX geo_location IF NOT EXISTS FOR (g:Geo) ON (g.location)",
		"CREATE FULLTEXT INDEX articleIndex IF NOT EXISTS FOR (a:Article) ON EACH [a.title, a.abstract]",
	}
	for _, idx := range indexes {
		if err := run(ctx, session, idx, nil); err != nil {
			log.Warn("Failed to create index", zap.String("statement", idx), zap.Error(err))
		}
	}
}

func mergeNode(ctx context.Context, session cypherRunner, n graph.FixtureNode) error {
	if !content.IsKnownLabel(n.Label) {
		return fmt.Errorf("unknown label: %s", n.Label)
	}
	key := content.IdentityKeys[n.Label]
	stmt := fmt.Sprintf("MERGE (n:%s {%s: $id}) SET n += $props", n.Label, key)
	return run(ctx, session, stmt, map[string]interface{}{
		"id":    n.ID,
		"props": toNeo4jProps(n.Props),
	})
}

func mergeEdge(ctx context.Context, session cypherRunner, e graph.FixtureEdge) error {
	ends, ok := content.Schema[e.Type]
	if !ok {
		return fmt.Errorf("unknown edge type: %s", e.Type)
	}
	stmt := fmt.Sprintf("MATCH (a:%s {%s: $from}), (b:%s {%s: $to}) MERGE (a)-[:%s]->(b)",
		ends.From, content.IdentityKeys[ends.From], ends.To, content.IdentityKeys[ends.To], e.Type)
	return run(ctx, session, stmt, map[string]interface{}{"from": e.From, "to": e.To})
}

// toNeo4jProps converts fixture values into driver types: points become WGS-84
// points, "published" and "created" become Date or DateTime values.
func toNeo4jProps(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		switch val := v.(type) {
		case content.Point:
			out[k] = neo4j.Point2D{X: val.Longitude, Y: val.Latitude, SpatialRefId: 4326}
		case string:
			if k == "published" || k == "created" {
				if t, err := time.Parse(time.RFC3339, val); err == nil {
					out[k] = t
					continue
				}
				if t, err := time.Parse("2006-01-02", val); err == nil {
					out[k] = neo4j.Date(t)
					continue
				}
			}
			out[k] = val
		default:
			out[k] = v
		}
	}
	return out
}
