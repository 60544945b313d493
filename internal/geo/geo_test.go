package geo

import (
	"math"
	"testing"
)

func TestHaversineIdenticalIsZero(t *testing.T) {
	c := Coordinates{Lat: 41.38, Lon: 2.17}
	if d := Haversine(c, c); d != 0 {
		t.Fatalf("expected 0, got %v", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := Coordinates{Lat: 41.38, Lon: 2.17}
	b := Coordinates{Lat: 41.40, Lon: 2.20}
	d1 := Haversine(a, b)
	d2 := Haversine(b, a)
	if math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("not symmetric: %v vs %v", d1, d2)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Roughly 1 degree of latitude is ~111km.
	a := Coordinates{Lat: 0, Lon: 0}
	b := Coordinates{Lat: 1, Lon: 0}
	d := Haversine(a, b)
	if d < 110 || d > 112 {
		t.Fatalf("expected ~111km, got %v", d)
	}
}

func TestHaversineInvalidCoordinatesReturnsZero(t *testing.T) {
	a := Coordinates{Lat: 999, Lon: 0}
	b := Coordinates{Lat: 0, Lon: 0}
	if d := Haversine(a, b); d != 0 {
		t.Fatalf("expected 0 for invalid input, got %v", d)
	}
}

func TestWalkTimeZeroDistance(t *testing.T) {
	c := Coordinates{Lat: 1, Lon: 1}
	if wt := WalkTime(c, c); wt != 0 {
		t.Fatalf("expected 0, got %v", wt)
	}
}

func TestWalkTimeMatchesFormula(t *testing.T) {
	a := Coordinates{Lat: 0, Lon: 0}
	b := Coordinates{Lat: 1, Lon: 0}
	d := Haversine(a, b)
	want := d / WalkSpeedKMH * 60
	got := WalkTime(a, b)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("want %v got %v", want, got)
	}
}

func TestIndexCandidatesWithinIncludesNearbyPoint(t *testing.T) {
	idx := NewIndex()
	center := Coordinates{Lat: 41.3874, Lon: 2.1686}
	near := Coordinates{Lat: 41.3880, Lon: 2.1690}
	far := Coordinates{Lat: 42.5, Lon: 3.5}

	idx.Insert(1, near)
	idx.Insert(2, far)

	candidates := idx.CandidatesWithin(center, 0.6)
	found := false
	for _, id := range candidates {
		if id == 1 {
			found = true
		}
		if id == 2 {
			t.Fatalf("far point should not be a candidate within 0.6km")
		}
	}
	if !found {
		t.Fatalf("expected nearby point to be a candidate")
	}
}
