package gis

import (
	"fmt"
	"math"
)

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

func (p Point) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

func (p Point) String() string {
	return fmt.Sprintf("[%g, %g]", p.Lat, p.Lng)
}

// Lerp blends a and b componentwise by t. No geodesic correction is applied.
func Lerp(a, b Point, t float64) Point {
	return Point{
		Lat: lerp(a.Lat, b.Lat, t),
		Lng: lerp(a.Lng, b.Lng, t),
	}
}

func lerp(start, end, t float64) float64 {
	return start + (end-start)*t
}

// FromPairs converts [lat, lng] pairs into points.
func FromPairs(pairs [][]float64) ([]Point, error) {
	points := make([]Point, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("waypoint %d: expected [lat, lng], got %d values", i, len(pair))
		}
		points[i] = Point{Lat: pair[0], Lng: pair[1]}
	}
	return points, nil
}

// ToPairs is the inverse of FromPairs.
func ToPairs(points []Point) [][]float64 {
	pairs := make([][]float64, len(points))
	for i, p := range points {
		pairs[i] = []float64{p.Lat, p.Lng}
	}
	return pairs
}
