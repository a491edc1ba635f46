package graph

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"newsgraph/backend/internal/content"
)

// MemoryStore is an in-process Store: an arena of nodes plus one adjacency
// index per edge type and direction. Edges are recorded once and indexed both
// ways, so inverse traversal never needs a second stored edge.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes []content.Node
	slots map[string]int // label-qualified id -> arena slot
	out   map[content.EdgeType]map[int][]int
	in    map[content.EdgeType]map[int][]int
}

// NewMemoryStore creates an empty in-memory graph
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[string]int),
		out:   make(map[content.EdgeType]map[int][]int),
		in:    make(map[content.EdgeType]map[int][]int),
	}
}

// AddNode inserts a node, replacing the properties of an existing node with the same identity
func (m *MemoryStore) AddNode(n content.Node) error {
	if !content.IsKnownLabel(n.Label) {
		return fmt.Errorf("unknown label: %s", n.Label)
	}
	if n.ID == "" {
		return fmt.Errorf("%s node without identifier", n.Label)
	}

	props := make(map[string]interface{}, len(n.Props)+1)
	for k, v := range n.Props {
		props[k] = v
	}
	props[content.IdentityKeys[n.Label]] = n.ID
	n.Props = props

	m.mu.Lock()
	defer m.mu.Unlock()

	if slot, ok := m.slots[n.Key()]; ok {
		m.nodes[slot] = n
		return nil
	}
	m.slots[n.Key()] = len(m.nodes)
	m.nodes = append(m.nodes, n)
	return nil
}

// AddEdge links two existing nodes. The endpoint labels come from the edge schema.
func (m *MemoryStore) AddEdge(edge content.EdgeType, fromID, toID string) error {
	ends, ok := content.Schema[edge]
	if !ok {
		return fmt.Errorf("unknown edge type: %s", edge)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from, ok := m.slots[content.TagKey(ends.From, fromID)]
	if !ok {
		return fmt.Errorf("%s %s not found", ends.From, fromID)
	}
	to, ok := m.slots[content.TagKey(ends.To, toID)]
	if !ok {
		return fmt.Errorf("%s %s not found", ends.To, toID)
	}

	if m.out[edge] == nil {
		m.out[edge] = make(map[int][]int)
		m.in[edge] = make(map[int][]int)
	}
	for _, existing := range m.out[edge][from] {
		if existing == to {
			return nil
		}
	}
	m.out[edge][from] = append(m.out[edge][from], to)
	m.in[edge][to] = append(m.in[edge][to], from)
	return nil
}

// FindNodes implements Store
func (m *MemoryStore) FindNodes(ctx context.Context, label content.Label, filter Filter) ([]content.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !content.IsKnownLabel(label) {
		return nil, fmt.Errorf("%w: unknown label: %s", ErrInvalidQuery, label)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []content.Node{}
	for _, n := range m.nodes {
		if n.Label == label && matches(n, filter) {
			result = append(result, cloneNode(n))
		}
	}
	return result, nil
}

// Traverse implements Store
func (m *MemoryStore) Traverse(ctx context.Context, from content.Node, edge content.EdgeType, dir content.Direction) ([]content.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := content.Target(edge, from.Label, dir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	slot, ok := m.slots[from.Key()]
	if !ok {
		return []content.Node{}, nil
	}
	index := m.out
	if dir == content.Incoming {
		index = m.in
	}

	adjacent := index[edge][slot]
	result := make([]content.Node, 0, len(adjacent))
	for _, s := range adjacent {
		result = append(result, cloneNode(m.nodes[s]))
	}
	return result, nil
}

func matches(n content.Node, filter Filter) bool {
	for k, want := range filter {
		if !reflect.DeepEqual(n.Props[k], want) {
			return false
		}
	}
	return true
}

// cloneNode copies the property map so callers cannot write through to the arena
func cloneNode(n content.Node) content.Node {
	props := make(map[string]interface{}, len(n.Props))
	for k, v := range n.Props {
		props[k] = v
	}
	n.Props = props
	return n
}
