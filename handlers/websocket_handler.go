package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/courtside/league-system/brackets"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the SPA origin; the socket only pushes
	// state that is also readable over the public REST surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub    *brackets.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// SubscribeCup streams live bracket updates for one cup.
func (h *WebSocketHandler) SubscribeCup(w http.ResponseWriter, r *http.Request) {
	if _, err := urlIntParam(r, "cupID"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.subscribe(w, r, "cup-"+chi.URLParam(r, "cupID"))
}

// SubscribeEvent streams RSVP and voting updates for one scheduled event.
func (h *WebSocketHandler) SubscribeEvent(w http.ResponseWriter, r *http.Request) {
	publicID, err := uuid.Parse(chi.URLParam(r, "publicID"))
	if err != nil {
		badRequestResponse(w, r, errors.New("invalid event public id"))
		return
	}
	h.subscribe(w, r, "event-"+publicID.String())
}

func (h *WebSocketHandler) subscribe(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("room", room), slog.Any("error", err))
		return
	}
	h.hub.Subscribe(conn, room)
}
