package routing

import (
	"errors"
	"fmt"

	"supmap-playback/internal/gis"
	"supmap-playback/internal/playback"
)

var ErrEmptyRoute = errors.New("route document has no waypoints")

// Document is the static route file: a character name and its path as
// [lat, lng] pairs.
type Document struct {
	CharacterName string      `json:"characterName" yaml:"characterName"`
	Path          [][]float64 `json:"path" yaml:"path"`
}

func (d Document) Route() (playback.Route, error) {
	if len(d.Path) == 0 {
		return playback.Route{}, ErrEmptyRoute
	}
	points, err := gis.FromPairs(d.Path)
	if err != nil {
		return playback.Route{}, fmt.Errorf("decoding path: %w", err)
	}
	return playback.Route{CharacterName: d.CharacterName, Path: points}, nil
}
