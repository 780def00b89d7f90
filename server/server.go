package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"tidbyt.dev/nearby"
	"tidbyt.dev/nearby/model"
)

// JSON API over a Manager.
type Server struct {
	manager *nearby.Manager
	logger  *slog.Logger
}

func New(manager *nearby.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		manager: manager,
		logger:  logger,
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/board", s.board).Methods("GET")
	api.HandleFunc("/nearby_stations", s.nearbyStations).Methods("GET")
	api.HandleFunc("/settings", s.settings).Methods("GET")
	api.HandleFunc("/address", s.setAddress).Methods("POST")
	api.HandleFunc("/parameters", s.updateParameters).Methods("POST")
	api.HandleFunc("/stations", s.selectStations).Methods("POST")
	api.HandleFunc("/language/{lang}", s.setLanguage).Methods("POST")

	r.Use(loggingMiddleware(s.logger))

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}).Handler(r)
}

func (s *Server) HTTPServer(port int) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Handler(),
	}
}

type BoardResponse struct {
	Areas        []model.AreaGroup `json:"areas"`
	ShowPlatform bool              `json:"show_platform"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type AddressRequest struct {
	Address string `json:"address"`
}

type StationsRequest struct {
	SelectedStations []string `json:"selected_stations"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) board(w http.ResponseWriter, r *http.Request) {
	areas, settings, err := s.manager.BoardWithSettings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BoardResponse{
		Areas:        areas,
		ShowPlatform: settings.ShowPlatform,
	})
}

func (s *Server) nearbyStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.manager.Stations(r.Context())
	if errors.Is(err, nearby.ErrNoLocation) {
		writeJSON(w, http.StatusOK, []model.Station{})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.manager.Settings()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) setAddress(w http.ResponseWriter, r *http.Request) {
	req := AddressRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	settings, err := s.manager.SetAddress(r.Context(), req.Address)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) updateParameters(w http.ResponseWriter, r *http.Request) {
	settings, err := s.manager.Settings()
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Unset fields keep their current values
	params := nearby.Parameters{
		MaxWalkMinutes:          settings.MaxWalkMinutes,
		MaxDeparturesPerStation: settings.MaxDeparturesPerStation,
		MinMinutes:              settings.MinMinutes,
		MaxMinutes:              settings.MaxMinutes,
		ShowPlatform:            settings.ShowPlatform,
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	settings, err = s.manager.UpdateParameters(params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) selectStations(w http.ResponseWriter, r *http.Request) {
	req := StationsRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	settings, err := s.manager.SelectStations(req.SelectedStations)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) setLanguage(w http.ResponseWriter, r *http.Request) {
	settings, err := s.manager.SetLanguage(mux.Vars(r)["lang"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, nearby.ErrNoLocation):
		status = http.StatusConflict
	case errors.Is(err, nearby.ErrAddressNotFound):
		status = http.StatusNotFound
	case errors.Is(err, nearby.ErrUnsupportedLanguage), errors.Is(err, model.ErrInvalidSettings):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
