// Package geo answers great-circle radius queries over report coordinates
// using an s2 cell index.
package geo

import (
	"bytes"
	"cmp"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/google/uuid"
)

const (
	// EarthRadiusMeters is the IUGG mean Earth radius.
	EarthRadiusMeters = 6371008.8

	DefaultRadiusMeters = 10000.0

	maxCoveringCells = 12
)

type Point struct {
	Lng float64
	Lat float64
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

func (p Point) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lng)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	return a.latLng().Distance(b.latLng()).Radians() * EarthRadiusMeters
}

type entry struct {
	cell  s2.CellID
	id    uuid.UUID
	point Point
}

func compareEntries(a, b entry) int {
	if c := cmp.Compare(a.cell, b.cell); c != 0 {
		return c
	}
	return bytes.Compare(a.id[:], b.id[:])
}

// Index keeps leaf cell ids sorted so a region covering turns into a few
// contiguous range scans.
type Index struct {
	mu      sync.RWMutex
	entries []entry
	byID    map[uuid.UUID]entry
}

func NewIndex() *Index {
	return &Index{byID: make(map[uuid.UUID]entry)}
}

// Put inserts or moves id to p.
func (ix *Index) Put(id uuid.UUID, p Point) {
	e := entry{cell: s2.CellIDFromLatLng(p.latLng()), id: id, point: p}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id)
	i, _ := slices.BinarySearchFunc(ix.entries, e, compareEntries)
	ix.entries = slices.Insert(ix.entries, i, e)
	ix.byID[id] = e
}

func (ix *Index) Remove(id uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id)
}

func (ix *Index) removeLocked(id uuid.UUID) {
	old, ok := ix.byID[id]
	if !ok {
		return
	}
	if i, found := slices.BinarySearchFunc(ix.entries, old, compareEntries); found {
		ix.entries = slices.Delete(ix.entries, i, i+1)
	}
	delete(ix.byID, id)
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// FindWithinRadius returns the ids whose distance to center is at most
// radiusMeters, ordered by cell id.
func (ix *Index) FindWithinRadius(center Point, radiusMeters float64) []uuid.UUID {
	if radiusMeters < 0 || math.IsNaN(radiusMeters) {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var ids []uuid.UUID
	for _, cell := range covering(center, radiusMeters) {
		lo, hi := cell.RangeMin(), cell.RangeMax()
		start := sort.Search(len(ix.entries), func(i int) bool {
			return ix.entries[i].cell >= lo
		})
		for j := start; j < len(ix.entries) && ix.entries[j].cell <= hi; j++ {
			e := ix.entries[j]
			if Distance(center, e.point) <= radiusMeters {
				ids = append(ids, e.id)
			}
		}
	}
	return ids
}

func covering(center Point, radiusMeters float64) s2.CellUnion {
	angle := s1.Angle(radiusMeters / EarthRadiusMeters)
	var region s2.Cap
	if angle >= math.Pi {
		region = s2.FullCap()
	} else {
		// pad by a hair so points exactly on the boundary stay inside the covering
		region = s2.CapFromCenterAngle(s2.PointFromLatLng(center.latLng()), angle+1e-9)
	}
	coverer := &s2.RegionCoverer{MinLevel: 0, MaxLevel: 30, MaxCells: maxCoveringCells}
	return coverer.Covering(region)
}
