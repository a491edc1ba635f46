// Package geo finds the geo entities nearest a point and the articles about them.
package geo

import (
	"math"
	"sort"

	"github.com/tidwall/btree"

	"newsgraph/backend/internal/constants"
	"newsgraph/backend/internal/content"
)

// Distance returns the great-circle distance in meters between two points (haversine)
func Distance(a, b content.Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h a hair above 1 for antipodal points
	h = math.Min(1, h)
	return 2 * constants.EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Match is a geo entity with its distance from the query point
type Match struct {
	GeoID    string  `json:"geo_id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance_meters"`
}

type entry struct {
	point content.Point
	geo   content.Geo
}

func entryLess(a, b entry) bool {
	if a.point.Latitude != b.point.Latitude {
		return a.point.Latitude < b.point.Latitude
	}
	return a.geo.ID < b.geo.ID
}

// Index orders located geos by latitude so a distance threshold only scans
// the latitude band that can contain matches. It is immutable after
// construction and safe for concurrent reads.
type Index struct {
	byLatitude *btree.BTreeG[entry]
	articles   map[string][]string
}

// NewIndex builds an index. Geos without a location are left out of
// nearest-neighbour candidates. articlesByGeo lists, per geo id, the articles
// with an ABOUT_GEO edge to it in traversal order.
func NewIndex(geos []content.Geo, articlesByGeo map[string][]string) *Index {
	tree := btree.NewBTreeG[entry](entryLess)
	for _, g := range geos {
		if g.Location == nil || !content.ValidPoint(*g.Location) {
			continue
		}
		tree.Set(entry{point: *g.Location, geo: g})
	}

	articles := make(map[string][]string, len(articlesByGeo))
	for id, list := range articlesByGeo {
		articles[id] = append([]string(nil), list...)
	}
	return &Index{byLatitude: tree, articles: articles}
}

// Len returns the number of located geos
func (ix *Index) Len() int {
	return ix.byLatitude.Len()
}

// Nearest returns up to k geos ordered by ascending distance, ties broken by
// geo id. Only geos within withinMeters qualify; withinMeters <= 0 or +Inf
// means no threshold.
func (ix *Index) Nearest(p content.Point, k int, withinMeters float64) []Match {
	if k < 1 {
		return []Match{}
	}
	bounded := withinMeters > 0 && !math.IsInf(withinMeters, 1)

	var candidates []Match
	visit := func(e entry) bool {
		d := Distance(p, e.point)
		if bounded && d > withinMeters {
			return true
		}
		candidates = append(candidates, Match{GeoID: e.geo.ID, Name: e.geo.Name, Distance: d})
		return true
	}

	if bounded {
		// No point further than withinMeters can differ by more than this in latitude
		band := withinMeters / constants.EarthRadiusMeters * 180 / math.Pi
		maxLat := p.Latitude + band
		ix.byLatitude.Ascend(entry{point: content.Point{Latitude: p.Latitude - band}}, func(e entry) bool {
			if e.point.Latitude > maxLat {
				return false
			}
			return visit(e)
		})
	} else {
		ix.byLatitude.Scan(visit)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].GeoID < candidates[j].GeoID
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	if candidates == nil {
		candidates = []Match{}
	}
	return candidates
}

// Articles joins matched geos to their articles, keeping the first occurrence
// of an article reachable through several geos.
func (ix *Index) Articles(matches []Match) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, m := range matches {
		for _, id := range ix.articles[m.GeoID] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
