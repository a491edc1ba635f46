// Package projection assembles the denormalized article view shared by every
// article-returning query.
package projection

import (
	"time"

	"newsgraph/backend/internal/content"
)

// PhotoView is the caption and url of an article photo
type PhotoView struct {
	Caption string `json:"caption"`
	URL     string `json:"url"`
}

// ArticleView is the caller-facing shape of an article
type ArticleView struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Abstract  string      `json:"abstract"`
	URL       string      `json:"url"`
	Published time.Time   `json:"published"`
	Geos      []string    `json:"geos"`
	Topics    []string    `json:"topics"`
	Orgs      []string    `json:"orgs"`
	People    []string    `json:"people"`
	Photos    []PhotoView `json:"photos"`
	Authors   []string    `json:"authors"`
}

// Related collects the names of an article's neighbours in traversal order
type Related struct {
	Geos    []string
	Topics  []string
	Orgs    []string
	People  []string
	Authors []string
	Photos  []PhotoView
}

// Add appends a neighbour to the list matching its label. Labels outside the
// projection are ignored.
func (r *Related) Add(n content.Node) {
	switch n.Label {
	case content.LabelGeo, content.LabelTopic, content.LabelOrganization, content.LabelPerson:
		tag, err := content.TagFromNode(n)
		if err != nil {
			return
		}
		switch n.Label {
		case content.LabelGeo:
			r.Geos = append(r.Geos, tag.Name)
		case content.LabelTopic:
			r.Topics = append(r.Topics, tag.Name)
		case content.LabelOrganization:
			r.Orgs = append(r.Orgs, tag.Name)
		case content.LabelPerson:
			r.People = append(r.People, tag.Name)
		}
	case content.LabelAuthor:
		r.Authors = append(r.Authors, content.AuthorFromNode(n).Name)
	case content.LabelPhoto:
		p := content.PhotoFromNode(n)
		r.Photos = append(r.Photos, PhotoView{Caption: p.Caption, URL: p.URL})
	}
}

// Build projects an article and its neighbours. Lists are never nil so they
// serialize as [] rather than null.
func Build(a content.Article, rel Related) ArticleView {
	return ArticleView{
		ID:        a.ID,
		Title:     a.Title,
		Abstract:  a.Abstract,
		URL:       a.URL,
		Published: a.Published,
		Geos:      copyStrings(rel.Geos),
		Topics:    copyStrings(rel.Topics),
		Orgs:      copyStrings(rel.Orgs),
		People:    copyStrings(rel.People),
		Photos:    append([]PhotoView{}, rel.Photos...),
		Authors:   copyStrings(rel.Authors),
	}
}

func copyStrings(s []string) []string {
	return append([]string{}, s...)
}

// Record is one article with its related entities
type Record struct {
	Article content.Article
	Related Related
}

// Assembler projects articles out of a fixed set of records. It is immutable
// after construction and safe for concurrent reads.
type Assembler struct {
	records map[string]Record
}

// NewAssembler indexes records by article id
func NewAssembler(records []Record) *Assembler {
	m := make(map[string]Record, len(records))
	for _, r := range records {
		m[r.Article.ID] = r
	}
	return &Assembler{records: m}
}

// Len returns the number of known articles
func (a *Assembler) Len() int {
	return len(a.records)
}

// Article projects a single article
func (a *Assembler) Article(id string) (ArticleView, bool) {
	r, ok := a.records[id]
	if !ok {
		return ArticleView{}, false
	}
	return Build(r.Article, r.Related), true
}

// Published returns the article's publication time
func (a *Assembler) Published(id string) (time.Time, bool) {
	r, ok := a.records[id]
	return r.Article.Published, ok
}

// Assemble projects ids in order, skipping ids it does not know
func (a *Assembler) Assemble(ids []string) []ArticleView {
	out := make([]ArticleView, 0, len(ids))
	for _, id := range ids {
		if v, ok := a.Article(id); ok {
			out = append(out, v)
		}
	}
	return out
}
