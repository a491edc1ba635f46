package graph

import (
	"context"
	"errors"
	"regexp"
	"sort"

	"newsgraph/backend/internal/content"
)

// Store is the read-only contract the query engine needs from graph storage.
// Implementations never mutate the underlying graph. No match is an empty
// slice, never an error.
type Store interface {
	// FindNodes returns nodes with the label whose properties equal every filter entry
	FindNodes(ctx context.Context, label content.Label, filter Filter) ([]content.Node, error)
	// Traverse follows edges of one type from a node in the given direction
	Traverse(ctx context.Context, from content.Node, edge content.EdgeType, dir content.Direction) ([]content.Node, error)
}

// ErrInvalidQuery marks requests that no store can answer: unknown labels,
// malformed property names, edges that do not join the given labels.
var ErrInvalidQuery = errors.New("invalid store query")

// Filter is a conjunction of property equality predicates
type Filter map[string]interface{}

// ByID matches the node whose identity property equals id
func ByID(label content.Label, id string) Filter {
	return Filter{content.IdentityKeys[label]: id}
}

// keys returns filter keys in a stable order so generated queries are cacheable
func (f Filter) keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var propertyNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validPropertyName guards property names that are interpolated into queries
func validPropertyName(name string) bool {
	return propertyNameRe.MatchString(name)
}
