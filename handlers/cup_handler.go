package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/courtside/league-system/brackets"
	"github.com/courtside/league-system/middleware"
	"github.com/courtside/league-system/services"
	"github.com/go-chi/chi/v5"
)

const maxLogoSize = 5 << 20 // 5MB

type CupHandler struct {
	cupService services.CupService
}

func NewCupHandler(cupService services.CupService) *CupHandler {
	return &CupHandler{cupService: cupService}
}

func (h *CupHandler) Create(w http.ResponseWriter, r *http.Request) {
	organizerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateCupInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cup, err := h.cupService.Create(r.Context(), organizerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"cup": cup}, nil)
}

func (h *CupHandler) List(w http.ResponseWriter, r *http.Request) {
	cups, err := h.cupService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"cups": cups}, nil)
}

func (h *CupHandler) Get(w http.ResponseWriter, r *http.Request) {
	cupID, err := urlIntParam(r, "cupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cup, err := h.cupService.Get(r.Context(), cupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"cup": cup}, nil)
}

func (h *CupHandler) Start(w http.ResponseWriter, r *http.Request) {
	organizerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	cupID, err := urlIntParam(r, "cupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		SeedingMode string `json:"seeding_mode"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	mode := brackets.SeedingMode(input.SeedingMode)
	if mode == "" {
		mode = brackets.SeedingRandom
	}

	cup, err := h.cupService.Start(r.Context(), cupID, organizerID, mode)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"cup": cup}, nil)
}

func (h *CupHandler) RecordWinner(w http.ResponseWriter, r *http.Request) {
	reporterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	matchID, err := urlIntParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		WinnerTeamID int `json:"winner_team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.cupService.RecordWinner(r.Context(), matchID, reporterID, input.WinnerTeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

func (h *CupHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	organizerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	cupID, err := urlIntParam(r, "cupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxLogoSize); err != nil {
		badRequestResponse(w, r, errors.New("failed to parse multipart form, file may be too large"))
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, errors.New("form field 'logo' is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "image/png" && contentType != "image/jpeg" && contentType != "image/webp" {
		badRequestResponse(w, r, errors.New("logo must be a png, jpeg or webp image"))
		return
	}

	cup, err := h.cupService.UploadLogo(r.Context(), cupID, organizerID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"cup": cup}, nil)
}

func (h *CupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	organizerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	cupID, err := urlIntParam(r, "cupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.cupService.Delete(r.Context(), cupID, organizerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func urlIntParam(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value < 1 {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return value, nil
}
