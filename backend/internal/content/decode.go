package content

import (
	"fmt"
	"math"
	"time"
)

// ArticleFromNode decodes an Article node
func ArticleFromNode(n Node) (Article, error) {
	if n.Label != LabelArticle {
		return Article{}, fmt.Errorf("expected %s node, got %s", LabelArticle, n.Label)
	}
	return Article{
		ID:        n.ID,
		Title:     getString(n.Props, "title"),
		Abstract:  getString(n.Props, "abstract"),
		URL:       getString(n.Props, "url"),
		Published: getTime(n.Props, "published"),
	}, nil
}

// TagFromNode decodes a Topic, Person, Organization or Geo node
func TagFromNode(n Node) (Tag, error) {
	if _, ok := TagEdges[n.Label]; !ok {
		return Tag{}, fmt.Errorf("%s is not a tag label", n.Label)
	}
	name := getString(n.Props, "name")
	if name == "" {
		name = n.ID
	}
	return Tag{ID: n.ID, Label: n.Label, Name: name}, nil
}

// GeoFromNode decodes a Geo node. Location is nil when the stored point is
// missing or outside WGS-84 bounds.
func GeoFromNode(n Node) (Geo, error) {
	if n.Label != LabelGeo {
		return Geo{}, fmt.Errorf("expected %s node, got %s", LabelGeo, n.Label)
	}
	tag, err := TagFromNode(n)
	if err != nil {
		return Geo{}, err
	}
	geo := Geo{Tag: tag}
	if p, ok := n.Props["location"].(Point); ok && ValidPoint(p) {
		geo.Location = &p
	}
	return geo, nil
}

// PhotoFromNode decodes a Photo node
func PhotoFromNode(n Node) Photo {
	return Photo{
		ID:      n.ID,
		Caption: getString(n.Props, "caption"),
		URL:     getString(n.Props, "url"),
	}
}

// AuthorFromNode decodes an Author node
func AuthorFromNode(n Node) Author {
	name := getString(n.Props, "name")
	if name == "" {
		name = n.ID
	}
	return Author{ID: n.ID, Name: name}
}

// CommentFromNode decodes a Comment node
func CommentFromNode(n Node) Comment {
	return Comment{
		ID:      n.ID,
		Created: getTime(n.Props, "created"),
		Text:    getString(n.Props, "text"),
	}
}

// ValidPoint reports whether p is a finite coordinate within WGS-84 bounds
func ValidPoint(p Point) bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Helper functions

func getString(m map[string]interface{}, key string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return fmt.Sprint(val)
}

func getTime(m map[string]interface{}, key string) time.Time {
	val, ok := m[key]
	if !ok || val == nil {
		return time.Time{}
	}
	switch v := val.(type) {
	case time.Time:
		return v.UTC()
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC()
			}
		}
	case int64:
		// Epoch milliseconds, as written by timestamp()
		return time.UnixMilli(v).UTC()
	case float64:
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Time{}
}
