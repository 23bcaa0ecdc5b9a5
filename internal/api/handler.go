package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/matheodrd/httphelper/handler"

	"supmap-playback/internal/gis"
	"supmap-playback/internal/playback"
)

// defaultRouteTolerance is how far from the path, in meters, a saved
// location may be to count as along the route.
const defaultRouteTolerance = 50.0

func (s *Server) wsHandler() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		clientID := r.URL.Query().Get("client_id")
		if clientID == "" {
			clientID = uuid.NewString()
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return handler.NewErrWithStatus(http.StatusInternalServerError, fmt.Errorf("websocket accept: %w", err))
		}

		s.WebsocketManager.HandleNewConnection(clientID, conn)
		return nil
	})
}

func (s *Server) playbackSnapshot() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		snapshot, err := s.Playback.Snapshot(r.Context())
		if err != nil {
			return s.httpError(r, err)
		}
		s.writeJSON(w, r, http.StatusOK, snapshot)
		return nil
	})
}

func (s *Server) playbackCommand(command func(context.Context) (playback.Snapshot, error)) http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		snapshot, err := command(r.Context())
		if err != nil {
			return s.httpError(r, err)
		}
		s.writeJSON(w, r, http.StatusOK, snapshot)
		return nil
	})
}

func (s *Server) playbackLoad() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var req loadRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}

		var route playback.Route
		if req.RouteID != "" {
			saved, err := s.Routes.Get(req.RouteID)
			if err != nil {
				return s.httpError(r, err)
			}
			route = saved.Playback()
		} else {
			path, err := gis.FromPairs(req.Path)
			if err != nil {
				return s.httpError(r, fmt.Errorf("%w: %v", playback.ErrInvalidPath, err))
			}
			route = playback.Route{CharacterName: req.CharacterName, Path: path}
		}

		snapshot, err := s.Playback.Load(r.Context(), route)
		if err != nil {
			return s.httpError(r, err)
		}
		s.writeJSON(w, r, http.StatusOK, snapshot)
		return nil
	})
}

func (s *Server) currentRoute() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		route, snapshot, err := s.Playback.Route(r.Context())
		if err != nil {
			return s.httpError(r, err)
		}
		s.writeJSON(w, r, http.StatusOK, routeResponse{Route: route, Playback: snapshot})
		return nil
	})
}

func (s *Server) routeLocations() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		tolerance := defaultRouteTolerance
		if raw := r.URL.Query().Get("tolerance"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v < 0 {
				return handler.NewErrWithStatus(http.StatusBadRequest, fmt.Errorf("invalid tolerance %q", raw))
			}
			tolerance = v
		}

		route, _, err := s.Playback.Route(r.Context())
		if err != nil {
			return s.httpError(r, err)
		}
		near, err := s.Locations.Near(r.Context(), route.Path, tolerance)
		if err != nil {
			return s.httpError(r, err)
		}
		s.writeJSON(w, r, http.StatusOK, routeLocationsResponse{Tolerance: tolerance, Locations: near})
		return nil
	})
}

func (s *Server) listRoutes() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		s.writeJSON(w, r, http.StatusOK, listRoutesResponse{Routes: s.Routes.List()})
		return nil
	})
}

func (s *Server) createRoute() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var req routeRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		path, err := gis.FromPairs(req.Path)
		if err != nil {
			return handler.NewErrWithStatus(http.StatusBadRequest, err)
		}

		route, err := s.Routes.Create(req.Title, path)
		if err != nil {
			return s.httpError(r, err)
		}
		s.writeJSON(w, r, http.StatusCreated, route)
		return nil
	})
}

func (s *Server) getRoute() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		route, err := s.Routes.Get(r.PathValue("id"))
		if err != nil {
			return s.httpError(r, err)
		}
		s.writeJSON(w, r, http.StatusOK, route)
		return nil
	})
}

func (s *Server) listLocations() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		locs, err := s.Locations.List(r.Context())
		if err != nil {
			return s.httpError(r, err)
		}
		s.writeJSON(w, r, http.StatusOK, listLocationsResponse{Locations: locs})
		return nil
	})
}

func (s *Server) createLocation() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var req locationRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		loc, err := s.Locations.Create(r.Context(), req.Title, req.Lat, req.Lng)
		if err != nil {
			return s.httpError(r, err)
		}
		s.writeJSON(w, r, http.StatusCreated, loc)
		return nil
	})
}

func (s *Server) getLocation() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		loc, err := s.Locations.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			return s.httpError(r, err)
		}
		s.writeJSON(w, r, http.StatusOK, loc)
		return nil
	})
}

func (s *Server) updateLocation() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var req locationRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		id := r.PathValue("id")
		if err := s.Locations.Update(r.Context(), id, req.Title, req.Lat, req.Lng); err != nil {
			return s.httpError(r, err)
		}
		loc, err := s.Locations.Get(r.Context(), id)
		if err != nil {
			return s.httpError(r, err)
		}
		s.writeJSON(w, r, http.StatusOK, loc)
		return nil
	})
}

func (s *Server) deleteLocation() http.HandlerFunc {
	return handler.Handler(func(w http.ResponseWriter, r *http.Request) error {
		if err := s.Locations.Delete(r.Context(), r.PathValue("id")); err != nil {
			return s.httpError(r, err)
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}
