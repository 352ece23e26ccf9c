package services

import (
	"math"
	"testing"
)

func TestDistanceMetersZero(t *testing.T) {
	if d := DistanceMeters(35.6812, 139.7671, 35.6812, 139.7671); d != 0 {
		t.Errorf("distance between identical points = %f, want 0", d)
	}
}

func TestDistanceMetersKnownPair(t *testing.T) {
	// Tokyo Station to Shinjuku Station, roughly 6.2km.
	d := DistanceMeters(35.6812, 139.7671, 35.6896, 139.7006)
	if d < 5900 || d > 6500 {
		t.Errorf("Tokyo-Shinjuku distance = %f, want ~6200m", d)
	}
}

func TestDistanceMetersShortRange(t *testing.T) {
	// ~0.00045 degrees of latitude is about 50m.
	d := DistanceMeters(35.0, 139.0, 35.00045, 139.0)
	if math.Abs(d-50) > 1 {
		t.Errorf("short-range distance = %f, want ~50m", d)
	}
}

func TestWithinRadius(t *testing.T) {
	lat, lon := 35.6812, 139.7671

	if !WithinRadius(lat, lon, lat, lon, 50) {
		t.Error("point at the center should be inside")
	}
	// ~25m north of the target.
	if !WithinRadius(35.681425, lon, lat, lon, 50) {
		t.Error("point 25m away should be inside a 50m radius")
	}
	// ~111m north of the target.
	if WithinRadius(35.6822, lon, lat, lon, 50) {
		t.Error("point 111m away should be outside a 50m radius")
	}
}

func TestWithinRadiusBoundary(t *testing.T) {
	lat, lon := 35.0, 139.0
	other := 35.00045
	d := DistanceMeters(lat, lon, other, lon)
	if !WithinRadius(other, lon, lat, lon, d) {
		t.Error("a point exactly on the boundary should count as inside")
	}
	if WithinRadius(other, lon, lat, lon, d-0.5) {
		t.Error("a point just past the boundary should count as outside")
	}
}
