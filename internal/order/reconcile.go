package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

// ReconcilerDB is the slice of the store the reconciler writes through.
type ReconcilerDB interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetOrderWithDetails(ctx context.Context, id string) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, orderID, paymentID string, amountCents int64) (bool, error)
	MarkOrderFailed(ctx context.Context, orderID, paymentID string) (bool, error)
}

// SessionFetcher loads a checkout session for the poll path.
type SessionFetcher interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

// ReconcileService converges order payment state with the gateway. Webhooks
// drive it normally; the poll path covers lost deliveries.
type ReconcileService struct {
	DB            ReconcilerDB
	Sessions      SessionFetcher
	Notify        Notifier
	Log           *logger.Logger
	WebhookSecret string
}

func NewReconcileService(store ReconcilerDB, sessions SessionFetcher, notify Notifier, log *logger.Logger, webhookSecret string) *ReconcileService {
	return &ReconcileService{
		DB:            store,
		Sessions:      sessions,
		Notify:        notify,
		Log:           log,
		WebhookSecret: webhookSecret,
	}
}

// HandleStripeWebhook verifies the delivery signature and processes the
// event. An invalid signature is rejected before any payload field is read.
func (s *ReconcileService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) *WebhookError {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return &WebhookError{
			Category:      "SIGNATURE",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "invalid signature",
			InternalError: "webhook signature verification failed",
			OriginalErr:   err,
		}
	}
	return s.ProcessEvent(ctx, event)
}

// ProcessEvent applies one verified gateway event. Redelivered events find
// the order already transitioned and return success without side effects.
func (s *ReconcileService) ProcessEvent(ctx context.Context, event stripe.Event) *WebhookError {
	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return &WebhookError{
				Category:      "PAYLOAD",
				StatusCode:    http.StatusBadRequest,
				PublicError:   "malformed event",
				InternalError: "unmarshal payment intent",
				OriginalErr:   err,
			}
		}
		return s.applyPaymentSucceeded(ctx, &intent)

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return &WebhookError{
				Category:      "PAYLOAD",
				StatusCode:    http.StatusBadRequest,
				PublicError:   "malformed event",
				InternalError: "unmarshal payment intent",
				OriginalErr:   err,
			}
		}
		return s.applyPaymentFailed(ctx, &intent)

	default:
		s.Log.Info("WEBHOOK", fmt.Sprintf("ignoring event type %s", event.Type))
		return nil
	}
}

func (s *ReconcileService) applyPaymentSucceeded(ctx context.Context, intent *stripe.PaymentIntent) *WebhookError {
	orderID := intent.Metadata["orderId"]
	if orderID == "" {
		return &WebhookError{
			Category:      "PAYLOAD",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "missing order reference",
			InternalError: fmt.Sprintf("payment intent %s has no orderId metadata", intent.ID),
		}
	}

	transitioned, err := s.DB.MarkOrderPaid(ctx, orderID, intent.ID, intent.AmountReceived)
	if err != nil {
		return &WebhookError{
			Category:      "DATABASE",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "internal error",
			InternalError: "mark order paid",
			OriginalErr:   err,
		}
	}
	if !transitioned {
		s.Log.LogPayment(orderID, fmt.Sprintf("duplicate success delivery for intent %s ignored", intent.ID))
		return nil
	}

	s.Log.LogPayment(orderID, fmt.Sprintf("payment %s confirmed (%d)", intent.ID, intent.AmountReceived))
	s.notifyPaid(ctx, orderID)
	return nil
}

func (s *ReconcileService) applyPaymentFailed(ctx context.Context, intent *stripe.PaymentIntent) *WebhookError {
	orderID := intent.Metadata["orderId"]
	if orderID == "" {
		return &WebhookError{
			Category:      "PAYLOAD",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "missing order reference",
			InternalError: fmt.Sprintf("payment intent %s has no orderId metadata", intent.ID),
		}
	}

	transitioned, err := s.DB.MarkOrderFailed(ctx, orderID, intent.ID)
	if err != nil {
		return &WebhookError{
			Category:      "DATABASE",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "internal error",
			InternalError: "mark order failed",
			OriginalErr:   err,
		}
	}
	if transitioned {
		s.Log.LogPayment(orderID, fmt.Sprintf("payment %s failed", intent.ID))
	}
	return nil
}

// CheckPaymentStatus answers the buyer's poll. When the order is still
// pending it asks the gateway directly, so a lost webhook cannot strand a
// paid order.
func (s *ReconcileService) CheckPaymentStatus(ctx context.Context, orderID, userID string) (*models.PaymentStatusResponse, error) {
	order, err := s.DB.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}

	if order.PaymentStatus == models.PaymentStatusSuccessful {
		return &models.PaymentStatusResponse{Paid: true, Message: "payment confirmed"}, nil
	}
	if order.SessionID == "" {
		return &models.PaymentStatusResponse{Paid: false, Message: "no checkout session"}, nil
	}

	session, err := s.Sessions.GetCheckoutSession(ctx, order.SessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch checkout session: %w", err)
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return &models.PaymentStatusResponse{Paid: false, Message: "payment pending"}, nil
	}

	paymentID := ""
	if session.PaymentIntent != nil {
		paymentID = session.PaymentIntent.ID
	}
	transitioned, err := s.DB.MarkOrderPaid(ctx, order.ID, paymentID, session.AmountTotal)
	if err != nil {
		return nil, err
	}
	if transitioned {
		s.Log.LogPayment(order.ID, "payment confirmed via status poll")
		s.notifyPaid(ctx, order.ID)
	}
	return &models.PaymentStatusResponse{Paid: true, Message: "payment confirmed"}, nil
}

func (s *ReconcileService) notifyPaid(ctx context.Context, orderID string) {
	order, err := s.DB.GetOrderWithDetails(ctx, orderID)
	if err != nil || order == nil {
		if err == nil {
			err = errors.New("order disappeared")
		}
		s.Log.Error("KAFKA", fmt.Sprintf("load order %s for paid notification: %v", orderID, err))
		return
	}
	if err := s.Notify.OrderPaid(ctx, order); err != nil {
		s.Log.Error("KAFKA", fmt.Sprintf("publish order paid for %s: %v", orderID, err))
	}
}
