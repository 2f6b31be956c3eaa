package order

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-ordering/internal/models"
)

type mockReconcilerDB struct {
	mock.Mock
}

func (m *mockReconcilerDB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockReconcilerDB) GetOrderWithDetails(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockReconcilerDB) MarkOrderPaid(ctx context.Context, orderID, paymentID string, amountCents int64) (bool, error) {
	args := m.Called(ctx, orderID, paymentID, amountCents)
	return args.Bool(0), args.Error(1)
}

func (m *mockReconcilerDB) MarkOrderFailed(ctx context.Context, orderID, paymentID string) (bool, error) {
	args := m.Called(ctx, orderID, paymentID)
	return args.Bool(0), args.Error(1)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	session, _ := args.Get(0).(*stripe.CheckoutSession)
	return session, args.Error(1)
}

func succeededEvent(t *testing.T, orderID string) stripe.Event {
	t.Helper()
	intent := map[string]interface{}{
		"id":              "pi_123",
		"amount_received": 4500,
		"metadata":        map[string]string{"orderId": orderID},
	}
	raw, err := json.Marshal(intent)
	assert.NoError(t, err)
	return stripe.Event{
		Type: "payment_intent.succeeded",
		Data: &stripe.EventData{Raw: raw},
	}
}

func newReconciler() (*ReconcileService, *mockReconcilerDB, *mockSessions, *mockNotifier) {
	store := &mockReconcilerDB{}
	sessions := &mockSessions{}
	notify := &mockNotifier{}
	return NewReconcileService(store, sessions, notify, nil, "whsec_test"), store, sessions, notify
}

func TestProcessEventPaymentSucceeded(t *testing.T) {
	svc, store, _, notify := newReconciler()
	store.On("MarkOrderPaid", mock.Anything, "o-1", "pi_123", int64(4500)).Return(true, nil)
	store.On("GetOrderWithDetails", mock.Anything, "o-1").Return(&models.Order{ID: "o-1"}, nil)
	notify.On("OrderPaid", mock.Anything, mock.Anything).Return(nil)

	whErr := svc.ProcessEvent(context.Background(), succeededEvent(t, "o-1"))

	assert.Nil(t, whErr)
	notify.AssertNumberOfCalls(t, "OrderPaid", 1)
}

func TestProcessEventDuplicateDelivery(t *testing.T) {
	svc, store, _, notify := newReconciler()
	store.On("MarkOrderPaid", mock.Anything, "o-1", "pi_123", int64(4500)).Return(true, nil).Once()
	store.On("MarkOrderPaid", mock.Anything, "o-1", "pi_123", int64(4500)).Return(false, nil)
	store.On("GetOrderWithDetails", mock.Anything, "o-1").Return(&models.Order{ID: "o-1"}, nil)
	notify.On("OrderPaid", mock.Anything, mock.Anything).Return(nil)

	event := succeededEvent(t, "o-1")
	assert.Nil(t, svc.ProcessEvent(context.Background(), event))
	assert.Nil(t, svc.ProcessEvent(context.Background(), event))

	// The transition and the notification happen exactly once.
	store.AssertNumberOfCalls(t, "MarkOrderPaid", 2)
	notify.AssertNumberOfCalls(t, "OrderPaid", 1)
}

func TestProcessEventMissingOrderMetadata(t *testing.T) {
	svc, store, _, _ := newReconciler()

	raw, _ := json.Marshal(map[string]interface{}{"id": "pi_123"})
	whErr := svc.ProcessEvent(context.Background(), stripe.Event{
		Type: "payment_intent.succeeded",
		Data: &stripe.EventData{Raw: raw},
	})

	assert.NotNil(t, whErr)
	assert.Equal(t, http.StatusBadRequest, whErr.StatusCode)
	store.AssertNotCalled(t, "MarkOrderPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEventPaymentFailed(t *testing.T) {
	svc, store, _, notify := newReconciler()
	store.On("MarkOrderFailed", mock.Anything, "o-1", "pi_123").Return(true, nil)

	intent := map[string]interface{}{
		"id":       "pi_123",
		"metadata": map[string]string{"orderId": "o-1"},
	}
	raw, _ := json.Marshal(intent)
	whErr := svc.ProcessEvent(context.Background(), stripe.Event{
		Type: "payment_intent.payment_failed",
		Data: &stripe.EventData{Raw: raw},
	})

	assert.Nil(t, whErr)
	notify.AssertNotCalled(t, "OrderPaid", mock.Anything, mock.Anything)
}

func TestProcessEventIgnoresUnknownTypes(t *testing.T) {
	svc, store, _, _ := newReconciler()

	whErr := svc.ProcessEvent(context.Background(), stripe.Event{Type: "customer.created"})

	assert.Nil(t, whErr)
	store.AssertNotCalled(t, "MarkOrderPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleStripeWebhookRejectsBadSignature(t *testing.T) {
	svc, store, _, _ := newReconciler()

	whErr := svc.HandleStripeWebhook(context.Background(), []byte(`{"type":"payment_intent.succeeded"}`), "t=1,v1=bogus")

	assert.NotNil(t, whErr)
	assert.Equal(t, "SIGNATURE", whErr.Category)
	assert.Equal(t, http.StatusBadRequest, whErr.StatusCode)
	store.AssertNotCalled(t, "MarkOrderPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckPaymentStatus(t *testing.T) {
	t.Run("already successful", func(t *testing.T) {
		svc, store, sessions, _ := newReconciler()
		store.On("GetOrder", mock.Anything, "o-1").Return(&models.Order{
			ID: "o-1", UserID: "u-1", PaymentStatus: models.PaymentStatusSuccessful,
		}, nil)

		resp, err := svc.CheckPaymentStatus(context.Background(), "o-1", "u-1")
		assert.NoError(t, err)
		assert.True(t, resp.Paid)
		sessions.AssertNotCalled(t, "GetCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("wrong owner", func(t *testing.T) {
		svc, store, _, _ := newReconciler()
		store.On("GetOrder", mock.Anything, "o-1").Return(&models.Order{
			ID: "o-1", UserID: "u-1", PaymentStatus: models.PaymentStatusPending,
		}, nil)

		_, err := svc.CheckPaymentStatus(context.Background(), "o-1", "u-2")
		assert.ErrorIs(t, err, ErrNotOrderOwner)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc, store, _, _ := newReconciler()
		store.On("GetOrder", mock.Anything, "o-1").Return(nil, nil)

		_, err := svc.CheckPaymentStatus(context.Background(), "o-1", "u-1")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("poll converges lost webhook", func(t *testing.T) {
		svc, store, sessions, notify := newReconciler()
		store.On("GetOrder", mock.Anything, "o-1").Return(&models.Order{
			ID: "o-1", UserID: "u-1", PaymentStatus: models.PaymentStatusPending, SessionID: "cs_123",
		}, nil)
		sessions.On("GetCheckoutSession", mock.Anything, "cs_123").Return(&stripe.CheckoutSession{
			PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			AmountTotal:   4500,
			PaymentIntent: &stripe.PaymentIntent{ID: "pi_123"},
		}, nil)
		store.On("MarkOrderPaid", mock.Anything, "o-1", "pi_123", int64(4500)).Return(true, nil)
		store.On("GetOrderWithDetails", mock.Anything, "o-1").Return(&models.Order{ID: "o-1"}, nil)
		notify.On("OrderPaid", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.CheckPaymentStatus(context.Background(), "o-1", "u-1")
		assert.NoError(t, err)
		assert.True(t, resp.Paid)
		notify.AssertNumberOfCalls(t, "OrderPaid", 1)
	})

	t.Run("still unpaid", func(t *testing.T) {
		svc, store, sessions, _ := newReconciler()
		store.On("GetOrder", mock.Anything, "o-1").Return(&models.Order{
			ID: "o-1", UserID: "u-1", PaymentStatus: models.PaymentStatusPending, SessionID: "cs_123",
		}, nil)
		sessions.On("GetCheckoutSession", mock.Anything, "cs_123").Return(&stripe.CheckoutSession{
			PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		}, nil)

		resp, err := svc.CheckPaymentStatus(context.Background(), "o-1", "u-1")
		assert.NoError(t, err)
		assert.False(t, resp.Paid)
		store.AssertNotCalled(t, "MarkOrderPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
