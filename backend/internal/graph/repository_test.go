package graph

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/backend/internal/content"
)

func TestBuildFindQuery(t *testing.T) {
	query, params, err := buildFindQuery(content.LabelArticle, Filter{"title": "x", "id": "a1"})
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n:Article) WHERE n.id = $p0 AND n.title = $p1 RETURN n", query)
	assert.Equal(t, map[string]interface{}{"p0": "a1", "p1": "x"}, params)

	query, _, err = buildFindQuery(content.LabelGeo, nil)
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n:Geo) RETURN n", query)

	_, _, err = buildFindQuery(content.Label("Article) DETACH DELETE (n"), nil)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, _, err = buildFindQuery(content.LabelArticle, Filter{"id = 1 OR true //": "x"})
	assert.Error(t, err)
}

func TestBuildTraverseQuery(t *testing.T) {
	query, params, target, err := buildTraverseQuery(content.Node{ID: "Paris", Label: content.LabelGeo}, content.EdgeAboutGeo, content.Incoming)
	require.NoError(t, err)
	assert.Equal(t, "MATCH (s:Geo {name: $id})<-[:ABOUT_GEO]-(n:Article) RETURN n", query)
	assert.Equal(t, "Paris", params["id"])
	assert.Equal(t, content.LabelArticle, target)

	query, _, target, err = buildTraverseQuery(content.Node{ID: "u1", Label: content.LabelUser}, content.EdgeWroteComment, content.Outgoing)
	require.NoError(t, err)
	assert.Equal(t, "MATCH (s:User {userId: $id})-[:WROTE_COMMENT]->(n:Comment) RETURN n", query)
	assert.Equal(t, content.LabelComment, target)
}

func TestNodeFromDB(t *testing.T) {
	published := time.Date(2021, 5, 6, 0, 0, 0, 0, time.UTC)
	n := nodeFromDB(neo4j.Node{
		ElementId: "4:abc:1",
		Props: map[string]interface{}{
			"name":     "Lisbon",
			"location": neo4j.Point2D{X: -9.14, Y: 38.72, SpatialRefId: 4326},
			"since":    neo4j.Date(published),
		},
	}, content.LabelGeo)

	assert.Equal(t, "Lisbon", n.ID)
	assert.Equal(t, content.Point{Latitude: 38.72, Longitude: -9.14}, n.Props["location"])
	assert.Equal(t, published, n.Props["since"])

	anon := nodeFromDB(neo4j.Node{ElementId: "4:abc:2", Props: map[string]interface{}{}}, content.LabelPhoto)
	assert.Equal(t, "4:abc:2", anon.ID)
}

// TestRepository_Integration requires a running Neo4j instance seeded with scripts/seed.go
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables
func TestRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Skipf("Neo4j not reachable: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver, "")

	articles, err := repo.FindNodes(ctx, content.LabelArticle, nil)
	require.NoError(t, err)
	if len(articles) == 0 {
		t.Skip("database has no articles")
	}

	same, err := repo.FindNodes(ctx, content.LabelArticle, ByID(content.LabelArticle, articles[0].ID))
	require.NoError(t, err)
	require.Len(t, same, 1)

	topics, err := repo.Traverse(ctx, articles[0], content.EdgeHasTopic, content.Outgoing)
	require.NoError(t, err)
	for _, topic := range topics {
		back, err := repo.Traverse(ctx, topic, content.EdgeHasTopic, content.Incoming)
		require.NoError(t, err)
		assert.Contains(t, ids(back), articles[0].ID)
	}
}

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := getenv("NEO4J_URI", "bolt://localhost:7687")
	user := getenv("NEO4J_USER", "neo4j")
	password := getenv("NEO4J_PASSWORD", "password")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(context.Background())
		return nil, err
	}

	return driver, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
