package locations

import (
	"errors"

	"supmap-playback/internal/gis"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("location not found")
)

// Location is a named point saved by the user. ID is assigned on creation
// and never changes.
type Location struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

func (l Location) Point() gis.Point {
	return gis.Point{Lat: l.Lat, Lng: l.Lng}
}

type input struct {
	Title string `validate:"required"`
}

type strictInput struct {
	Title string  `validate:"required"`
	Lat   float64 `validate:"gte=-90,lte=90"`
	Lng   float64 `validate:"gte=-180,lte=180"`
}
