package geo

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// nearbyIndexCellLevel is the S2 cell level used to bucket stations for
// Graph.Nearby. Level 13 cells are roughly 1.3km across, comfortably larger
// than the 0.6km NEARBY_RADIUS so a query's candidate cell ring always
// contains every station that could be within range.
const nearbyIndexCellLevel = 13

// Index is an S2 cell-bucketed spatial index of points, keyed by an
// arbitrary caller-supplied id (a station code). It narrows a radius query
// down to a handful of candidate ids; callers still re-check the exact
// distance (Haversine, per the locked formula) before accepting a result,
// Index is purely a prefilter.
type Index struct {
	buckets map[s2.CellID][]int32
}

// NewIndex builds an empty spatial index.
func NewIndex() *Index {
	return &Index{buckets: make(map[s2.CellID][]int32)}
}

// Insert adds id at the given coordinates to the index.
func (idx *Index) Insert(id int32, c Coordinates) {
	cell := cellIDFor(c)
	idx.buckets[cell] = append(idx.buckets[cell], id)
}

// CandidatesWithin returns the ids whose S2 cell lies within radiusKM of c,
// covering the query disc with a cap and enumerating the cells it touches
// at nearbyIndexCellLevel. The result is a superset of the true answer:
// it may include ids farther than radiusKM (cell edges are generous) but
// never omits one that is truly within range.
func (idx *Index) CandidatesWithin(c Coordinates, radiusKM float64) []int32 {
	cap := s2.CapFromCenterAngle(latLngToPoint(c), kmToAngle(radiusKM))
	coverer := s2.RegionCoverer{MaxLevel: nearbyIndexCellLevel, MinLevel: nearbyIndexCellLevel, MaxCells: 64}
	covering := coverer.Covering(cap)

	seen := make(map[int32]bool)
	var out []int32
	for _, cell := range covering {
		for _, id := range idx.buckets[cell] {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

func cellIDFor(c Coordinates) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon)).Parent(nearbyIndexCellLevel)
}

func latLngToPoint(c Coordinates) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}

func kmToAngle(km float64) s1.Angle {
	return s1.Angle(km / EarthRadiusKM)
}
