// Package api exposes a decoded radar volume over REST: volume metadata plus
// the query engine's point, profile, and PPI accessors. The volume is
// immutable, so every handler is a pure read.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cinrad_std/internal/cinrad"
	"cinrad_std/internal/query"
)

// DefaultShowRange caps PPI extraction when the request omits a range, in
// meters.
const DefaultShowRange = 330000

// Server serves spatial queries for one decoded volume.
type Server struct {
	engine *query.Engine
	port   int
}

// NewServer creates a query API server around a decoded volume.
func NewServer(engine *query.Engine, port int) *Server {
	return &Server{engine: engine, port: port}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/volume", s.handleVolume)
		r.Get("/value", s.handleValue)
		r.Get("/profile", s.handleProfile)
		r.Get("/ppi/{layer}", s.handlePPI)
	})

	addr := ":" + strconv.Itoa(s.port)
	vol := s.engine.Volume()
	log.Printf("Radar query API for site %s (%s) at http://localhost%s",
		vol.Site.SiteCode, vol.Task.TaskName, addr)
	return http.ListenAndServe(addr, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VolumeResponse summarizes the loaded volume.
type VolumeResponse struct {
	SiteCode  string    `json:"site_code"`
	SiteName  string    `json:"site_name"`
	Latitude  float32   `json:"latitude"`
	Longitude float32   `json:"longitude"`
	TaskName  string    `json:"task_name"`
	ScanStart time.Time `json:"scan_start"`
	CutCount  int       `json:"cut_count"`
	Moments   []string  `json:"moments"`
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	vol := s.engine.Volume()
	moments := make([]string, 0, len(vol.Radial))
	for _, m := range vol.Moments() {
		moments = append(moments, m.String())
	}
	writeJSON(w, http.StatusOK, VolumeResponse{
		SiteCode:  vol.Site.SiteCode,
		SiteName:  vol.Site.SiteName,
		Latitude:  vol.Site.Latitude,
		Longitude: vol.Site.Longitude,
		TaskName:  vol.Task.TaskName,
		ScanStart: vol.ScanStart(),
		CutCount:  len(vol.Cuts),
		Moments:   moments,
	})
}

// ValueResponse is one resolved point sample.
type ValueResponse struct {
	LayerID int     `json:"layer_id"`
	Moment  string  `json:"moment"`
	Height  float64 `json:"height_m"`
	Value   float64 `json:"value"`
}

func (s *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := latLonParams(w, r)
	if !ok {
		return
	}
	layerID, err := strconv.Atoi(r.URL.Query().Get("layer"))
	if err != nil || layerID < 1 {
		writeError(w, http.StatusBadRequest, "layer must be a positive integer")
		return
	}
	m, ok := momentParam(w, r)
	if !ok {
		return
	}

	height, value, err := s.engine.ValueAtLatLon(lat, lon, layerID, m)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ValueResponse{
		LayerID: layerID,
		Moment:  m.String(),
		Height:  height,
		Value:   value,
	})
}

// ProfileResponse is the all-layer vertical profile at a point.
type ProfileResponse struct {
	Moment  string    `json:"moment"`
	Heights []float64 `json:"heights_m"`
	Values  []float64 `json:"values"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := latLonParams(w, r)
	if !ok {
		return
	}
	m, ok := momentParam(w, r)
	if !ok {
		return
	}

	heights, values, err := s.engine.Profile(lat, lon, m)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{
		Moment:  m.String(),
		Heights: heights,
		Values:  values,
	})
}

func (s *Server) handlePPI(w http.ResponseWriter, r *http.Request) {
	layerID, err := strconv.Atoi(chi.URLParam(r, "layer"))
	if err != nil || layerID < 1 {
		writeError(w, http.StatusBadRequest, "layer must be a positive integer")
		return
	}
	m, ok := momentParam(w, r)
	if !ok {
		return
	}
	showRange := float64(DefaultShowRange)
	if v := r.URL.Query().Get("range"); v != "" {
		showRange, err = strconv.ParseFloat(v, 64)
		if err != nil || showRange <= 0 {
			writeError(w, http.StatusBadRequest, "range must be a positive number of meters")
			return
		}
	}

	slab, err := s.engine.PPISlab(layerID, showRange, m)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slab)
}

// Helper functions.

func latLonParams(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "lat and lon query parameters are required")
		return 0, 0, false
	}
	return lat, lon, true
}

func momentParam(w http.ResponseWriter, r *http.Request) (cinrad.Moment, bool) {
	name := r.URL.Query().Get("moment")
	if name == "" {
		name = "dBZ"
	}
	m, err := cinrad.ParseMoment(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown moment: "+name)
		return 0, false
	}
	return m, true
}

func writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, query.ErrElementNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, query.ErrOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, query.ErrInconsistent):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cinrad.ErrUnknownVCP):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
