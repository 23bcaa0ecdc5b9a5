package api

import (
	"supmap-playback/internal/locations"
	"supmap-playback/internal/playback"
	"supmap-playback/internal/routes"
)

type locationRequest struct {
	Title string  `json:"title"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

type listLocationsResponse struct {
	Locations []locations.Location `json:"locations"`
}

type routeRequest struct {
	Title string      `json:"title"`
	Path  [][]float64 `json:"path"`
}

type listRoutesResponse struct {
	Routes []routes.Route `json:"routes"`
}

// loadRequest names either a saved route or carries an inline one.
type loadRequest struct {
	RouteID       string      `json:"routeId,omitempty"`
	CharacterName string      `json:"characterName,omitempty"`
	Path          [][]float64 `json:"path,omitempty"`
}

type routeResponse struct {
	Route    playback.Route    `json:"route"`
	Playback playback.Snapshot `json:"playback"`
}

type routeLocationsResponse struct {
	Tolerance float64              `json:"toleranceMeters"`
	Locations []locations.Location `json:"locations"`
}
