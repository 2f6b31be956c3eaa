// Package order_api exposes the order flow over HTTP.
package order_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	"ms-ordering/internal/utils"
)

// Stripe caps webhook payloads well below this.
const maxWebhookBody = 1 << 16

// TicketFiller is the fulfillment entry point the API delegates to.
type TicketFiller interface {
	FillTicketDetails(ctx context.Context, userID string, req *models.FillTicketDetailsRequest) (*models.Order, error)
}

// Handler serves the order routes.
type Handler struct {
	Orders     *order.Service
	Reconciler *order.ReconcileService
	Tickets    TicketFiller
	Auth       *auth.Verifier
	Log        *logger.Logger
}

func NewHandler(orders *order.Service, reconciler *order.ReconcileService, tickets TicketFiller, verifier *auth.Verifier, log *logger.Logger) *Handler {
	return &Handler{Orders: orders, Reconciler: reconciler, Tickets: tickets, Auth: verifier, Log: log}
}

// Routes mounts the order endpoints. Routes needing a buyer identity sit
// behind the auth middleware.
func (h *Handler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/create", h.CreateOrder)
		r.Get("/get-order/{orderId}", h.GetOrder)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/fill-ticket-details", h.FillTicketDetails)
			r.Get("/check-payment-status/{orderId}", h.CheckPaymentStatus)
			r.Get("/user-orders", h.UserOrders)
		})
	})
	r.Post("/stripe/webhook", h.StripeWebhook)
}

// buyerFromRequest resolves the optional buyer identity on order creation.
// No token means a guest purchase. A token that is present but fails
// verification is reported as expired so the client re-authenticates
// instead of silently placing a guest order.
func (h *Handler) buyerFromRequest(r *http.Request) (string, error) {
	token, err := auth.ExtractTokenFromRequest(r)
	if err != nil {
		return "", nil
	}
	claims, err := h.Auth.Verify(token)
	if err != nil {
		return "", order.ErrAuthExpired
	}
	return claims.UserID, nil
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	buyerID, err := h.buyerFromRequest(r)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	req := &models.CreateOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := ValidateCreateOrder(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	resp, err := h.Orders.PlaceOrder(r.Context(), req, buyerID)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "order created", resp)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", "orderId is required")
		return
	}
	o, err := h.Orders.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "order", o)
}

func (h *Handler) FillTicketDetails(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	req := &models.FillTicketDetailsRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := ValidateFillTicketDetails(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	o, err := h.Tickets.FillTicketDetails(r.Context(), claims.UserID, req)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "ticket details saved", o)
}

func (h *Handler) CheckPaymentStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		utils.WriteError(w, http.StatusBadRequest, "validation failed", "orderId is required")
		return
	}

	status, err := h.Reconciler.CheckPaymentStatus(r.Context(), orderID, claims.UserID)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "payment status", status)
}

func (h *Handler) UserOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}
	orders, err := h.Orders.UserOrders(r.Context(), claims.UserID)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "orders", orders)
}

// StripeWebhook receives gateway deliveries. The response body stays
// minimal; Stripe only looks at the status code.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	whErr := h.Reconciler.HandleStripeWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if whErr != nil {
		h.Log.Error("WEBHOOK", whErr.Error())
		utils.WriteError(w, whErr.StatusCode, whErr.PublicError, "")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"received": "true"})
}

func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		inventoryErr *order.InsufficientInventoryError
		boundsErr    *order.QuantityBoundsError
	)

	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.As(err, &inventoryErr):
		status, message = http.StatusConflict, "insufficient inventory"
	case errors.As(err, &boundsErr):
		status, message = http.StatusBadRequest, "quantity out of range"
	case errors.Is(err, order.ErrEmptyOrder):
		status, message = http.StatusBadRequest, "order contains no tickets"
	case errors.Is(err, order.ErrEventNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrTicketTypeNotFound),
		errors.Is(err, order.ErrAddonNotFound),
		errors.Is(err, order.ErrPromoCodeNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, order.ErrEventNotPublished):
		status, message = http.StatusConflict, "event is not published"
	case errors.Is(err, order.ErrEventClosed):
		status, message = http.StatusConflict, "event has ended"
	case errors.Is(err, order.ErrAuthExpired):
		status, message = http.StatusUnauthorized, "authentication expired"
	case errors.Is(err, order.ErrNotOrderOwner):
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, order.ErrPaymentNotConfirmed):
		status, message = http.StatusConflict, "payment not confirmed"
	case errors.Is(err, order.ErrOrderCompleted):
		status, message = http.StatusConflict, "order already completed"
	}

	if status == http.StatusInternalServerError {
		h.Log.Error("API", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
		utils.WriteError(w, status, message, "")
		return
	}
	h.Log.LogAPI(r.Method, r.URL.Path, status)
	utils.WriteError(w, status, message, err.Error())
}
