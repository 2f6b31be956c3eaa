// Package api exposes event reads over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/events"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/utils"
)

type Handler struct {
	Events *events.Service
	Log    *logger.Logger
}

func NewHandler(svc *events.Service, log *logger.Logger) *Handler {
	return &Handler{Events: svc, Log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Get("/promocode", h.LookupPromoCode)
		r.Get("/{eventId}", h.GetEvent)
	})
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	event, err := h.Events.GetEvent(r.Context(), eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "event", event)
}

func (h *Handler) LookupPromoCode(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", "key is required")
		return
	}
	eventID := r.URL.Query().Get("eventId")

	resp, err := h.Events.LookupPromoCode(r.Context(), key, eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "promocode", resp)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, events.ErrEventNotFound), errors.Is(err, events.ErrPromoCodeNotFound):
		utils.WriteError(w, http.StatusNotFound, "not found", err.Error())
	default:
		h.Log.Error("API", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
		utils.WriteError(w, http.StatusInternalServerError, "internal error", "")
	}
}
