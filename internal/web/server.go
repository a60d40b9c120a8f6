// Package web provides an HTTP status server for the rf433-sensor daemon.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sweeney/rf433-sensor/internal/status"
)

// Server serves the status page and JSON documents over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	return s
}

// Router returns the request router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/index.json", s.handleJSON).Methods(http.MethodGet)
	r.HandleFunc("/readings.json", s.handleReadings).Methods(http.MethodGet)
	r.HandleFunc("/readings/{protocol}/{id}.json", s.handleSensor).Methods(http.MethodGet)
	return r
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, status.FormatJSON(s.tracker.Snapshot()))
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, status.FormatReadingsJSON(s.tracker.Snapshot()))
}

// handleSensor serves the readings document filtered to one sensor. The
// protocol segment is matched against names with spaces replaced by dashes,
// e.g. /readings/Digoo-R8S/97e1.json.
func (s *Server) handleSensor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	snap := s.tracker.Snapshot()

	var match []status.Sensor
	for _, sensor := range snap.Sensors {
		if slug(sensor.Record.Protocol) == vars["protocol"] && sensor.Record.ID == vars["id"] {
			match = append(match, sensor)
		}
	}
	if len(match) == 0 {
		http.NotFound(w, r)
		return
	}
	snap.Sensors = match
	writeJSON(w, status.FormatReadingsJSON(snap))
}

func writeJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
