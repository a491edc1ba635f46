package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"newsgraph/backend/internal/content"
)

// Fixture is a JSON description of a content graph, used to seed the memory
// backend and a development Neo4j database.
type Fixture struct {
	Nodes []FixtureNode `json:"nodes"`
	Edges []FixtureEdge `json:"edges"`
}

// FixtureNode is one node; Props may carry "location": {"latitude", "longitude"}
type FixtureNode struct {
	Label content.Label          `json:"label"`
	ID    string                 `json:"id"`
	Props map[string]interface{} `json:"props"`
}

// FixtureEdge links two node identifiers; endpoint labels come from the edge schema
type FixtureEdge struct {
	Type content.EdgeType `json:"type"`
	From string           `json:"from"`
	To   string           `json:"to"`
}

// ReadFixture decodes a fixture and converts location objects into points
func ReadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	for i := range f.Nodes {
		if raw, ok := f.Nodes[i].Props["location"].(map[string]interface{}); ok {
			lat, latOK := raw["latitude"].(float64)
			lon, lonOK := raw["longitude"].(float64)
			if latOK && lonOK {
				f.Nodes[i].Props["location"] = content.Point{Latitude: lat, Longitude: lon}
			} else {
				delete(f.Nodes[i].Props, "location")
			}
		}
	}
	return &f, nil
}

// LoadFixtureFile reads a fixture from disk into a new MemoryStore
func LoadFixtureFile(path string) (*MemoryStore, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer file.Close()

	f, err := ReadFixture(file)
	if err != nil {
		return nil, err
	}
	store := NewMemoryStore()
	if err := f.Apply(store); err != nil {
		return nil, err
	}
	return store, nil
}

// Apply writes every node and edge of the fixture into a MemoryStore
func (f *Fixture) Apply(store *MemoryStore) error {
	for _, n := range f.Nodes {
		if err := store.AddNode(content.Node{ID: n.ID, Label: n.Label, Props: n.Props}); err != nil {
			return fmt.Errorf("fixture node %s %s: %w", n.Label, n.ID, err)
		}
	}
	for _, e := range f.Edges {
		if err := store.AddEdge(e.Type, e.From, e.To); err != nil {
			return fmt.Errorf("fixture edge %s %s->%s: %w", e.Type, e.From, e.To, err)
		}
	}
	return nil
}
