package graph

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"newsgraph/backend/internal/content"
)

// ============================================================================
// Driver Value Conversion
// ============================================================================

// nodeFromDB converts a driver node into a storage-agnostic node. The identity
// property becomes Node.ID, falling back to the element id when absent.
func nodeFromDB(n neo4j.Node, label content.Label) content.Node {
	props := make(map[string]interface{}, len(n.Props))
	for k, v := range n.Props {
		props[k] = convertValue(v)
	}

	id := getStringFromMap(props, content.IdentityKeys[label], "")
	if id == "" {
		id = n.ElementId
	}
	return content.Node{ID: id, Label: label, Props: props}
}

// convertValue maps driver temporal and spatial types onto plain Go values
func convertValue(v interface{}) interface{} {
	switch val := v.(type) {
	case neo4j.Point2D:
		// WGS-84 points store longitude as X and latitude as Y
		return content.Point{Latitude: val.Y, Longitude: val.X}
	case neo4j.Point3D:
		return content.Point{Latitude: val.Y, Longitude: val.X}
	case neo4j.Date:
		return val.Time()
	case neo4j.LocalDateTime:
		return val.Time()
	default:
		return v
	}
}

func getStringFromMap(m map[string]interface{}, key, defaultValue string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	switch v := val.(type) {
	case string:
		return v
	case int64:
		return fmt.Sprintf("%d", v)
	}
	return defaultValue
}
