package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/backend/internal/content"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	require.NoError(t, store.AddNode(content.Node{ID: "a1", Label: content.LabelArticle, Props: map[string]interface{}{"title": "One"}}))
	require.NoError(t, store.AddNode(content.Node{ID: "a2", Label: content.LabelArticle, Props: map[string]interface{}{"title": "Two"}}))
	require.NoError(t, store.AddNode(content.Node{ID: "Politics", Label: content.LabelTopic}))
	require.NoError(t, store.AddNode(content.Node{ID: "Sports", Label: content.LabelTopic}))
	require.NoError(t, store.AddEdge(content.EdgeHasTopic, "a1", "Politics"))
	require.NoError(t, store.AddEdge(content.EdgeHasTopic, "a1", "Sports"))
	require.NoError(t, store.AddEdge(content.EdgeHasTopic, "a2", "Politics"))
	return store
}

func ids(nodes []content.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestMemoryStore_FindNodes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	all, err := store.FindNodes(ctx, content.LabelArticle, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, ids(all))

	one, err := store.FindNodes(ctx, content.LabelArticle, ByID(content.LabelArticle, "a2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, ids(one))

	composite, err := store.FindNodes(ctx, content.LabelArticle, Filter{"id": "a2", "title": "One"})
	require.NoError(t, err)
	assert.Empty(t, composite)
	assert.NotNil(t, composite)
}

func TestMemoryStore_TraverseBothDirections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a1 := content.Node{ID: "a1", Label: content.LabelArticle}
	topics, err := store.Traverse(ctx, a1, content.EdgeHasTopic, content.Outgoing)
	require.NoError(t, err)
	assert.Equal(t, []string{"Politics", "Sports"}, ids(topics))

	politics := content.Node{ID: "Politics", Label: content.LabelTopic}
	articles, err := store.Traverse(ctx, politics, content.EdgeHasTopic, content.Incoming)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, ids(articles))

	_, err = store.Traverse(ctx, politics, content.EdgeHasTopic, content.Outgoing)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestMemoryStore_DuplicateEdgeIgnored(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddEdge(content.EdgeHasTopic, "a1", "Politics"))

	topics, err := store.Traverse(context.Background(), content.Node{ID: "a1", Label: content.LabelArticle}, content.EdgeHasTopic, content.Outgoing)
	require.NoError(t, err)
	assert.Len(t, topics, 2)
}

func TestMemoryStore_ResultsDoNotAliasArena(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	nodes, err := store.FindNodes(ctx, content.LabelArticle, ByID(content.LabelArticle, "a1"))
	require.NoError(t, err)
	nodes[0].Props["title"] = "mutated"

	again, err := store.FindNodes(ctx, content.LabelArticle, ByID(content.LabelArticle, "a1"))
	require.NoError(t, err)
	assert.Equal(t, "One", again[0].Props["title"])
}

func TestMemoryStore_AddEdgeRequiresEndpoints(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.AddEdge(content.EdgeHasTopic, "a1", "Missing"))
	assert.Error(t, store.AddEdge(content.EdgeType("LIKES"), "a1", "Politics"))
}

func TestReadFixture(t *testing.T) {
	raw := `{
		"nodes": [
			{"label": "Article", "id": "a1", "props": {"title": "Quake", "published": "2020-01-02"}},
			{"label": "Geo", "id": "Tokyo", "props": {"location": {"latitude": 35.68, "longitude": 139.69}}},
			{"label": "Geo", "id": "Nowhere", "props": {"location": {"latitude": "n/a"}}}
		],
		"edges": [{"type": "ABOUT_GEO", "from": "a1", "to": "Tokyo"}]
	}`
	f, err := ReadFixture(strings.NewReader(raw))
	require.NoError(t, err)

	store := NewMemoryStore()
	require.NoError(t, f.Apply(store))

	geos, err := store.Traverse(context.Background(), content.Node{ID: "a1", Label: content.LabelArticle}, content.EdgeAboutGeo, content.Outgoing)
	require.NoError(t, err)
	require.Len(t, geos, 1)
	assert.Equal(t, content.Point{Latitude: 35.68, Longitude: 139.69}, geos[0].Props["location"])

	nowhere, err := store.FindNodes(context.Background(), content.LabelGeo, ByID(content.LabelGeo, "Nowhere"))
	require.NoError(t, err)
	require.Len(t, nowhere, 1)
	_, hasLocation := nowhere[0].Props["location"]
	assert.False(t, hasLocation)
}
