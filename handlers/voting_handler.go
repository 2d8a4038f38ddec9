package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/courtside/league-system/middleware"
	"github.com/courtside/league-system/services"
)

type VotingHandler struct {
	votingService services.VotingService
}

func NewVotingHandler(votingService services.VotingService) *VotingHandler {
	return &VotingHandler{votingService: votingService}
}

func (h *VotingHandler) Propose(w http.ResponseWriter, r *http.Request) {
	proposerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	eventID, err := urlIntParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		StartsAt time.Time `json:"starts_at"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.StartsAt.IsZero() {
		badRequestResponse(w, r, errors.New("starts_at is required"))
		return
	}

	proposal, err := h.votingService.Propose(r.Context(), eventID, proposerID, input.StartsAt)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"proposal": proposal}, nil)
}

func (h *VotingHandler) Vote(w http.ResponseWriter, r *http.Request) {
	participantID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	eventID, err := urlIntParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	proposalID, err := urlIntParam(r, "proposalID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.votingService.Vote(r.Context(), eventID, proposalID, participantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result, nil)
}
