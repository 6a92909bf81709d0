// Package web exposes a read-only HTTP view over a live tracking session:
// current statistics, the position log, and the two map encodings.
package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"nmeatrack/internal/geojson"
	"nmeatrack/internal/kml"
	"nmeatrack/internal/track"

	"github.com/gorilla/mux"
)

// Server serves tracker snapshots. It never mutates the tracker; the
// tracker's own lock makes each handler a consistent read.
type Server struct {
	tracker *track.Tracker
	docName string
	router  *mux.Router
}

func NewServer(tracker *track.Tracker, docName string) *Server {
	s := &Server{
		tracker: tracker,
		docName: docName,
		router:  mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/api/positions", s.handlePositions).Methods("GET")
	s.router.HandleFunc("/api/positions/latest", s.handleLatest).Methods("GET")
	s.router.HandleFunc("/api/geojson", s.handleGeoJSON).Methods("GET")
	s.router.HandleFunc("/track.kml", s.handleKML).Methods("GET")
	s.router.Use(loggingMiddleware)
}

// Router returns the configured router.
func (s *Server) Router() *mux.Router {
	return s.router
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Stats())
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Positions())
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	pos, err := s.tracker.LatestPosition()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "1"
	positions, stats := s.tracker.Snapshot()
	fc, err := geojson.Encode(positions, stats, verbose)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

func (s *Server) handleKML(w http.ResponseWriter, r *http.Request) {
	doc, err := kml.EncodeTrack(s.docName, s.tracker.Positions(), kml.Options{
		IntermediatePoints: r.URL.Query().Get("points") == "1",
		AltitudeUnits:      s.tracker.AltitudeUnits(),
	})
	if err != nil {
		if errors.Is(err, kml.ErrNoPositions) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	_, _ = w.Write(doc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
