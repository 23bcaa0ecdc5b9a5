package gis

import (
	"math"
)

// EarthRadius in meters
const EarthRadius = 6378137

// Degrees to radians conversion
const degToRad = math.Pi / 180

// Haversine distance between two points in meters
func Haversine(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * degToRad
	dLng := (b.Lng - a.Lng) * degToRad

	lat1 := a.Lat * degToRad
	lat2 := b.Lat * degToRad

	sinDlat := math.Sin(dLat / 2)
	sinDlng := math.Sin(dLng / 2)

	aVal := sinDlat*sinDlat + sinDlng*sinDlng*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(aVal), math.Sqrt(1-aVal))
	return EarthRadius * c
}

// SegmentLengths returns the haversine length of every edge of the polyline.
func SegmentLengths(polyline []Point) []float64 {
	if len(polyline) < 2 {
		return nil
	}
	lengths := make([]float64, len(polyline)-1)
	for i := 0; i < len(polyline)-1; i++ {
		lengths[i] = Haversine(polyline[i], polyline[i+1])
	}
	return lengths
}

// Length is the total haversine length of the polyline in meters.
func Length(polyline []Point) float64 {
	total := 0.0
	for _, l := range SegmentLengths(polyline) {
		total += l
	}
	return total
}

// IsPointInPolyline returns true if given point is within tolerance distance (in metres) from the polyline.
func IsPointInPolyline(point Point, polyline []Point, tolerance float64) bool {
	if len(polyline) == 0 {
		return false
	}
	if len(polyline) == 1 {
		return Haversine(point, polyline[0]) <= tolerance
	}

	for i := 0; i < len(polyline)-1; i++ {
		if distanceToSegment(point, polyline[i], polyline[i+1]) <= tolerance {
			return true
		}
	}
	return false
}

// distanceToSegment calculates the minimum distance (in metres) from point P to the segment [A, B].
func distanceToSegment(P, A, B Point) float64 {
	lat1 := A.Lat * degToRad
	lng1 := A.Lng * degToRad
	lat2 := B.Lat * degToRad
	lng2 := B.Lng * degToRad
	latP := P.Lat * degToRad
	lngP := P.Lng * degToRad

	// Equirectangular projection around the segment's mean latitude.
	// Good enough for the short segments we deal with.
	latRef := (lat1 + lat2) / 2
	cosLatRef := math.Cos(latRef)

	xA, yA := lng1*EarthRadius*cosLatRef, lat1*EarthRadius
	xB, yB := lng2*EarthRadius*cosLatRef, lat2*EarthRadius
	xP, yP := lngP*EarthRadius*cosLatRef, latP*EarthRadius

	dx, dy := xB-xA, yB-yA

	// A == B
	if dx == 0 && dy == 0 {
		return math.Hypot(xP-xA, yP-yA)
	}

	t := ((xP-xA)*dx + (yP-yA)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	xProj := xA + t*dx
	yProj := yA + t*dy

	return math.Hypot(xP-xProj, yP-yProj)
}
