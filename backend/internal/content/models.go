package content

import (
	"fmt"
	"time"
)

// ============================================================================
// Labels and Edge Types
// ============================================================================

// Label is a node label in the content graph
type Label string

const (
	LabelArticle      Label = "Article"
	LabelAuthor       Label = "Author"
	LabelTopic        Label = "Topic"
	LabelPerson       Label = "Person"
	LabelOrganization Label = "Organization"
	LabelGeo          Label = "Geo"
	LabelPhoto        Label = "Photo"
	LabelComment      Label = "Comment"
	LabelUser         Label = "User"
)

// EdgeType is a relationship type in the content graph
type EdgeType string

const (
	EdgeHasPhoto          EdgeType = "HAS_PHOTO"
	EdgeByline            EdgeType = "BYLINE"
	EdgeHasTopic          EdgeType = "HAS_TOPIC"
	EdgeAboutPerson       EdgeType = "ABOUT_PERSON"
	EdgeAboutOrganization EdgeType = "ABOUT_ORGANIZATION"
	EdgeAboutGeo          EdgeType = "ABOUT_GEO"
	EdgeHasComment        EdgeType = "HAS_COMMENT"
	EdgeWroteComment      EdgeType = "WROTE_COMMENT"
)

// Direction selects which end of an edge a traversal starts from
type Direction int

const (
	// Outgoing follows edges from their source to their target
	Outgoing Direction = iota
	// Incoming follows edges from their target back to their source
	Incoming
)

func (d Direction) String() string {
	if d == Incoming {
		return "in"
	}
	return "out"
}

// Endpoints are the labels an edge type connects, source first
type Endpoints struct {
	From Label
	To   Label
}

// Schema lists every edge type with its endpoints. Each edge is stored once;
// the inverse direction is derived from the same entry.
var Schema = map[EdgeType]Endpoints{
	EdgeHasPhoto:          {From: LabelArticle, To: LabelPhoto},
	EdgeByline:            {From: LabelArticle, To: LabelAuthor},
	EdgeHasTopic:          {From: LabelArticle, To: LabelTopic},
	EdgeAboutPerson:       {From: LabelArticle, To: LabelPerson},
	EdgeAboutOrganization: {From: LabelArticle, To: LabelOrganization},
	EdgeAboutGeo:          {From: LabelArticle, To: LabelGeo},
	EdgeHasComment:        {From: LabelArticle, To: LabelComment},
	EdgeWroteComment:      {From: LabelUser, To: LabelComment},
}

// IdentityKeys is the property that identifies a node of each label
var IdentityKeys = map[Label]string{
	LabelArticle:      "id",
	LabelAuthor:       "name",
	LabelTopic:        "name",
	LabelPerson:       "name",
	LabelOrganization: "name",
	LabelGeo:          "name",
	LabelPhoto:        "url",
	LabelComment:      "commentId",
	LabelUser:         "userId",
}

// TagEdges maps each tag label to the article edge that reaches it
var TagEdges = map[Label]EdgeType{
	LabelTopic:        EdgeHasTopic,
	LabelGeo:          EdgeAboutGeo,
	LabelOrganization: EdgeAboutOrganization,
	LabelPerson:       EdgeAboutPerson,
}

// IsKnownLabel reports whether a label belongs to the content graph
func IsKnownLabel(l Label) bool {
	_, ok := IdentityKeys[l]
	return ok
}

// Target returns the label reached when traversing edge from a node labelled from
func Target(edge EdgeType, from Label, dir Direction) (Label, error) {
	ends, ok := Schema[edge]
	if !ok {
		return "", fmt.Errorf("unknown edge type: %s", edge)
	}
	switch {
	case dir == Outgoing && ends.From == from:
		return ends.To, nil
	case dir == Incoming && ends.To == from:
		return ends.From, nil
	}
	return "", fmt.Errorf("edge %s cannot be traversed %s from %s", edge, dir, from)
}

// ============================================================================
// Nodes
// ============================================================================

// Node is a storage-agnostic graph node. Props hold plain Go values:
// strings, numbers, bools, time.Time and Point.
type Node struct {
	ID    string
	Label Label
	Props map[string]interface{}
}

// Key returns a label-qualified identifier, unique across labels
func (n Node) Key() string {
	return TagKey(n.Label, n.ID)
}

// TagKey qualifies an identifier with its label ("Topic:Politics")
func TagKey(label Label, id string) string {
	return string(label) + ":" + id
}

// Point is a WGS-84 coordinate pair in degrees
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ============================================================================
// Entities
// ============================================================================

// Article is a news article
type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Abstract  string    `json:"abstract"`
	URL       string    `json:"url"`
	Published time.Time `json:"published"`
}

// Tag is a Topic, Person, Organization or Geo referenced by articles
type Tag struct {
	ID    string `json:"id"`
	Label Label  `json:"label"`
	Name  string `json:"name"`
}

// Key returns the label-qualified tag identifier
func (t Tag) Key() string {
	return TagKey(t.Label, t.ID)
}

// Geo is a place tag with an optional location
type Geo struct {
	Tag
	Location *Point `json:"location,omitempty"`
}

// Photo is an article photo
type Photo struct {
	ID      string `json:"id"`
	Caption string `json:"caption"`
	URL     string `json:"url"`
}

// Author is an article byline
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Comment is a user comment on an article
type Comment struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Text    string    `json:"text"`
}
