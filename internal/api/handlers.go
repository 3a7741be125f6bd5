package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/yourusername/match-predictor/internal/cache"
)

type lastUpdateResponse struct {
	LastUpdate string `json:"last_update"`
}

// handleGetPredictions returns the whole snapshot, ranked as published
func (s *Server) handleGetPredictions(w http.ResponseWriter, r *http.Request) {
	results, err := s.snapshots.Predictions()
	if err != nil {
		s.logger.WithError(err).Error("Failed to read predictions snapshot")
		respondWithError(w, http.StatusInternalServerError, "Error reading predictions file")
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

// handleGetPrediction returns one snapshot entry by match id
func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "match_id must be an integer")
		return
	}

	result, found, err := s.snapshots.Prediction(id)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read predictions snapshot")
		respondWithError(w, http.StatusInternalServerError, "Error reading predictions file")
		return
	}
	if !found {
		respondWithError(w, http.StatusNotFound, "Prediction for this match_id not found")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// handleGetStats returns the accuracy report, or {} before the first check
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.snapshots.Stats()
	if err != nil {
		s.logger.WithError(err).Error("Failed to read prediction stats")
		respondWithError(w, http.StatusInternalServerError, "Error reading stats file")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(stats)
}

// handleGetLastUpdate returns when the pipeline last completed
func (s *Server) handleGetLastUpdate(w http.ResponseWriter, r *http.Request) {
	if s.lastUpdate == nil {
		respondWithError(w, http.StatusNotFound, "Last update not found")
		return
	}
	at, err := s.lastUpdate.Load(r.Context())
	if err != nil {
		if errors.Is(err, cache.ErrNoLastUpdate) {
			respondWithError(w, http.StatusNotFound, "Last update not found")
			return
		}
		s.logger.WithError(err).Error("Failed to read last update")
		respondWithError(w, http.StatusInternalServerError, "Error reading last update")
		return
	}
	respondWithJSON(w, http.StatusOK, lastUpdateResponse{LastUpdate: at.UTC().Format(time.RFC3339)})
}
