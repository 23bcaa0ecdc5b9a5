package locations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"supmap-playback/internal/gis"
	"supmap-playback/internal/kv"
)

const DefaultKey = "my_locations"

// Store is the registry of saved locations. The whole collection lives as
// one JSON list under a single key and is read and written in full on every
// operation.
type Store struct {
	backend  kv.Store
	key      string
	strict   bool
	validate *validator.Validate
	newID    func() string
	logger   *slog.Logger

	// serialises read-modify-write cycles inside this process
	mu sync.Mutex
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithStrictCoordinates rejects latitudes outside [-90, 90] and longitudes
// outside [-180, 180].
func WithStrictCoordinates(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		key:      DefaultKey,
		validate: validator.New(),
		newID:    uuid.NewString,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) List(ctx context.Context) ([]Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) Get(ctx context.Context, id string) (Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	locs, err := s.load(ctx)
	if err != nil {
		return Location{}, err
	}
	i := indexOf(locs, id)
	if i < 0 {
		return Location{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return locs[i], nil
}

func (s *Store) Create(ctx context.Context, title string, lat, lng float64) (Location, error) {
	if err := s.check(title, lat, lng); err != nil {
		return Location{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locs, err := s.load(ctx)
	if err != nil {
		return Location{}, err
	}
	loc := Location{ID: s.newID(), Title: title, Lat: lat, Lng: lng}
	if err := s.save(ctx, append(locs, loc)); err != nil {
		return Location{}, err
	}
	s.logger.Debug("location created", "id", loc.ID, "title", loc.Title)
	return loc, nil
}

// Update replaces title and coordinates; the identifier is kept.
func (s *Store) Update(ctx context.Context, id, title string, lat, lng float64) error {
	if err := s.check(title, lat, lng); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locs, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(locs, id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	locs[i].Title, locs[i].Lat, locs[i].Lng = title, lat, lng
	if err := s.save(ctx, locs); err != nil {
		return err
	}
	s.logger.Debug("location updated", "id", id)
	return nil
}

// Delete removes the location. Deleting an unknown id is an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locs, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(locs, id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err := s.save(ctx, append(locs[:i], locs[i+1:]...)); err != nil {
		return err
	}
	s.logger.Debug("location deleted", "id", id)
	return nil
}

// Near returns the saved locations within tolerance meters of the polyline.
func (s *Store) Near(ctx context.Context, polyline []gis.Point, tolerance float64) ([]Location, error) {
	locs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	near := make([]Location, 0, len(locs))
	for _, loc := range locs {
		if gis.IsPointInPolyline(loc.Point(), polyline, tolerance) {
			near = append(near, loc)
		}
	}
	return near, nil
}

func (s *Store) check(title string, lat, lng float64) error {
	var v any = input{Title: title}
	if s.strict {
		v = strictInput{Title: title, Lat: lat, Lng: lng}
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %q", ErrValidation, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// load reads the collection. A missing key is an empty store and so is a
// value that does not decode.
func (s *Store) load(ctx context.Context) ([]Location, error) {
	data, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return []Location{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading locations: %w", err)
	}

	var locs []Location
	if err := json.Unmarshal(data, &locs); err != nil {
		s.logger.Warn("stored locations are corrupt, starting empty", "key", s.key, "error", err)
		return []Location{}, nil
	}
	if locs == nil {
		locs = []Location{}
	}
	return locs, nil
}

func (s *Store) save(ctx context.Context, locs []Location) error {
	data, err := json.Marshal(locs)
	if err != nil {
		return fmt.Errorf("marshalling locations: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("saving locations: %w", err)
	}
	return nil
}

func indexOf(locs []Location, id string) int {
	for i, l := range locs {
		if l.ID == id {
			return i
		}
	}
	return -1
}
