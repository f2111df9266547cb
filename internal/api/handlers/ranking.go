package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

// MaxLimit caps the limit query parameter
const MaxLimit = 1000

// RankingHandler serves profile rankings
type RankingHandler struct {
	source contracts.RankingSource
	logger *logger.Logger
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(source contracts.RankingSource, log *logger.Logger) *RankingHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RankingHandler{source: source, logger: log}
}

// RankingResponse is the body of GET /api/profiles/{profile}/ranking
type RankingResponse struct {
	Profile string                 `json:"profile"`
	Period  string                 `json:"period"`
	Count   int                    `json:"count"`
	Funds   []contracts.RankedFund `json:"funds"`
}

// ListProfiles returns the ranked profile names
// GET /api/profiles
func (h *RankingHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": h.source.Profiles(),
	})
}

// GetRanking returns one profile's ranking for a period
// GET /api/profiles/{profile}/ranking?period=202401&limit=10
func (h *RankingHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	profile := mux.Vars(r)["profile"]
	period := r.URL.Query().Get("period")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			respondError(w, http.StatusBadRequest, "limit must be an integer between 1 and "+strconv.Itoa(MaxLimit))
			return
		}
		limit = n
	}

	funds, err := h.source.Ranking(profile, period, limit)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.WithError(err).WithField("profile", profile).Error("Failed to build ranking")
		respondError(w, http.StatusInternalServerError, "Failed to build ranking")
		return
	}

	resp := RankingResponse{Profile: profile, Period: period, Count: len(funds), Funds: funds}
	if len(funds) > 0 {
		resp.Period = funds[0].Period
	}
	respondJSON(w, http.StatusOK, resp)
}
