package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"supmap-playback/internal/config"
	"supmap-playback/internal/gis"
	"supmap-playback/internal/locations"
	"supmap-playback/internal/playback"
	"supmap-playback/internal/routes"
	"supmap-playback/internal/ws"
)

// Playback is the transport control and route access of the player.
type Playback interface {
	Load(ctx context.Context, route playback.Route) (playback.Snapshot, error)
	Play(ctx context.Context) (playback.Snapshot, error)
	Pause(ctx context.Context) (playback.Snapshot, error)
	Toggle(ctx context.Context) (playback.Snapshot, error)
	Snapshot(ctx context.Context) (playback.Snapshot, error)
	Route(ctx context.Context) (playback.Route, playback.Snapshot, error)
}

type LocationStore interface {
	List(ctx context.Context) ([]locations.Location, error)
	Get(ctx context.Context, id string) (locations.Location, error)
	Create(ctx context.Context, title string, lat, lng float64) (locations.Location, error)
	Update(ctx context.Context, id, title string, lat, lng float64) error
	Delete(ctx context.Context, id string) error
	Near(ctx context.Context, polyline []gis.Point, tolerance float64) ([]locations.Location, error)
}

type Server struct {
	Config           *config.Config
	WebsocketManager *ws.Manager
	Playback         Playback
	Locations        LocationStore
	Routes           *routes.Registry
	logger           *slog.Logger
}

func NewServer(
	config *config.Config,
	logger *slog.Logger,
	wsManager *ws.Manager,
	player Playback,
	store LocationStore,
	registry *routes.Registry,
) *Server {
	return &Server{
		Config:           config,
		WebsocketManager: wsManager,
		Playback:         player,
		Locations:        store,
		Routes:           registry,
		logger:           logger,
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate;")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("API server is started.")); err != nil {
		s.logger.Error(fmt.Sprintf("Error writing response: %v", err))
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("GET /playback/ws", s.wsHandler())
	mux.HandleFunc("GET /playback", s.playbackSnapshot())
	mux.HandleFunc("POST /playback/toggle", s.playbackCommand(s.Playback.Toggle))
	mux.HandleFunc("POST /playback/play", s.playbackCommand(s.Playback.Play))
	mux.HandleFunc("POST /playback/pause", s.playbackCommand(s.Playback.Pause))
	mux.HandleFunc("POST /playback/load", s.playbackLoad())

	mux.HandleFunc("GET /route", s.currentRoute())
	mux.HandleFunc("GET /route/locations", s.routeLocations())

	mux.HandleFunc("GET /routes", s.listRoutes())
	mux.HandleFunc("POST /routes", s.createRoute())
	mux.HandleFunc("GET /routes/{id}", s.getRoute())

	mux.HandleFunc("GET /locations", s.listLocations())
	mux.HandleFunc("POST /locations", s.createLocation())
	mux.HandleFunc("GET /locations/{id}", s.getLocation())
	mux.HandleFunc("PUT /locations/{id}", s.updateLocation())
	mux.HandleFunc("DELETE /locations/{id}", s.deleteLocation())

	return s.loggingMiddleware(mux)
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              net.JoinHostPort(s.Config.APIServerHost, s.Config.APIServerPort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server is running", "port", s.Config.APIServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server failed to listen and serve", "error", err)
			errCh <- err
		}
	}()

	var listenErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
		case listenErr = <-errCh:
			return
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("API server failed to shutdown", "error", err)
		}
	}()

	wg.Wait()
	if listenErr != nil {
		return fmt.Errorf("API server: %w", listenErr)
	}
	return nil
}
