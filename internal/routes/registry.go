// Package routes keeps the routes users draw on the map. Routes live in
// memory only and are gone after a restart.
package routes

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"supmap-playback/internal/gis"
	"supmap-playback/internal/playback"
)

var (
	ErrInvalidRoute = errors.New("invalid route")
	ErrNotFound     = errors.New("route not found")
)

type Route struct {
	ID        string      `json:"id"`
	Title     string      `json:"title" validate:"required"`
	Path      []gis.Point `json:"path" validate:"min=2"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Playback adapts the route for loading into a player.
func (r Route) Playback() playback.Route {
	return playback.Route{CharacterName: r.Title, Path: append([]gis.Point(nil), r.Path...)}
}

type Registry struct {
	mu       sync.RWMutex
	routes   []Route
	validate *validator.Validate
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		validate: validator.New(),
		now:      time.Now,
	}
}

// Create stores a route. A title and at least two finite waypoints are required.
func (r *Registry) Create(title string, path []gis.Point) (Route, error) {
	route := Route{
		ID:    uuid.NewString(),
		Title: title,
		Path:  append([]gis.Point(nil), path...),
	}
	if err := r.validate.Struct(route); err != nil {
		return Route{}, fmt.Errorf("%w: a title and at least two points are required", ErrInvalidRoute)
	}
	if err := playback.ValidatePath(route.Path); err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrInvalidRoute, err)
	}
	route.CreatedAt = r.now().UTC()

	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
	return route, nil
}

func (r *Registry) List() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Route{}, r.routes...)
}

func (r *Registry) Get(id string) (Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, route := range r.routes {
		if route.ID == id {
			return route, nil
		}
	}
	return Route{}, fmt.Errorf("%w: %q", ErrNotFound, id)
}
