package handlers

import (
	"errors"
	"net/http"

	"github.com/courtside/league-system/middleware"
	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type EventHandler struct {
	eventService services.EventService
	rsvpService  services.RSVPService
}

func NewEventHandler(eventService services.EventService, rsvpService services.RSVPService) *EventHandler {
	return &EventHandler{eventService: eventService, rsvpService: rsvpService}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	organizerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Create(r.Context(), organizerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlIntParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Get(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil)
}

func (h *EventHandler) GetByPublicID(w http.ResponseWriter, r *http.Request) {
	publicID, err := uuid.Parse(chi.URLParam(r, "publicID"))
	if err != nil {
		badRequestResponse(w, r, errors.New("invalid event public id"))
		return
	}

	event, err := h.eventService.GetByPublicID(r.Context(), publicID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil)
}

func (h *EventHandler) Respond(w http.ResponseWriter, r *http.Request) {
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

	var input struct {
		Response string `json:"response"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.rsvpService.Respond(r.Context(), eventID, participantID, models.InviteResponse(input.Response))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result, nil)
}

func (h *EventHandler) PromoteFromWaitlist(w http.ResponseWriter, r *http.Request) {
	organizerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	eventID, err := urlIntParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	promoted, err := h.rsvpService.PromoteFromWaitlist(r.Context(), eventID, organizerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"promoted_user_ids": promoted}, nil)
}
