package tickets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetOrderWithTickets(ctx context.Context, orderID string) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockStore) UpdateTicketDetails(ctx context.Context, ticket *models.Ticket) error {
	return m.Called(ctx, ticket).Error(0)
}

func (m *mockStore) MarkOrderCompleted(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *mockStore) GetTicketByCheckinCode(ctx context.Context, code string) (*models.Ticket, error) {
	args := m.Called(ctx, code)
	ticket, _ := args.Get(0).(*models.Ticket)
	return ticket, args.Error(1)
}

type mockQR struct {
	mock.Mock
}

func (m *mockQR) Generate(payload string) ([]byte, error) {
	args := m.Called(payload)
	png, _ := args.Get(0).([]byte)
	return png, args.Error(1)
}

func paidOrder() *models.Order {
	return &models.Order{
		ID:            "o-1",
		UserID:        "u-1",
		EventID:       "ev-1",
		PaymentStatus: models.PaymentStatusSuccessful,
		Status:        models.OrderStatusPending,
		Tickets: []*models.Ticket{
			{ID: "t-1", OrderID: "o-1", TicketTypeID: "tt-1"},
			{ID: "t-2", OrderID: "o-1", TicketTypeID: "tt-1"},
		},
	}
}

func fillRequest() *models.FillTicketDetailsRequest {
	return &models.FillTicketDetailsRequest{
		OrderID: "o-1",
		Tickets: []models.TicketDetails{
			{TicketID: "t-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
			{TicketID: "t-2", FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"},
		},
	}
}

func TestFillTicketDetailsPreconditions(t *testing.T) {
	t.Run("unknown order", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetOrderWithTickets", mock.Anything, "o-1").Return(nil, nil)
		svc := NewService(store, &mockQR{}, nil)

		_, err := svc.FillTicketDetails(context.Background(), "u-1", fillRequest())
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("wrong owner", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetOrderWithTickets", mock.Anything, "o-1").Return(paidOrder(), nil)
		svc := NewService(store, &mockQR{}, nil)

		_, err := svc.FillTicketDetails(context.Background(), "u-2", fillRequest())
		assert.ErrorIs(t, err, order.ErrNotOrderOwner)
	})

	t.Run("payment not confirmed", func(t *testing.T) {
		store := &mockStore{}
		o := paidOrder()
		o.PaymentStatus = models.PaymentStatusPending
		store.On("GetOrderWithTickets", mock.Anything, "o-1").Return(o, nil)
		svc := NewService(store, &mockQR{}, nil)

		_, err := svc.FillTicketDetails(context.Background(), "u-1", fillRequest())
		assert.ErrorIs(t, err, order.ErrPaymentNotConfirmed)
	})

	t.Run("already completed", func(t *testing.T) {
		store := &mockStore{}
		o := paidOrder()
		o.Status = models.OrderStatusCompleted
		store.On("GetOrderWithTickets", mock.Anything, "o-1").Return(o, nil)
		svc := NewService(store, &mockQR{}, nil)

		_, err := svc.FillTicketDetails(context.Background(), "u-1", fillRequest())
		assert.ErrorIs(t, err, order.ErrOrderCompleted)
	})

	t.Run("ticket from another order", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetOrderWithTickets", mock.Anything, "o-1").Return(paidOrder(), nil)
		svc := NewService(store, &mockQR{}, nil)

		req := fillRequest()
		req.Tickets[0].TicketID = "t-999"
		_, err := svc.FillTicketDetails(context.Background(), "u-1", req)
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})
}

func TestFillTicketDetailsIssuesCodes(t *testing.T) {
	store := &mockStore{}
	qrGen := &mockQR{}
	store.On("GetOrderWithTickets", mock.Anything, "o-1").Return(paidOrder(), nil)
	store.On("UpdateTicketDetails", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkOrderCompleted", mock.Anything, "o-1").Return(nil)
	qrGen.On("Generate", mock.Anything).Return([]byte("png"), nil)

	svc := NewService(store, qrGen, nil)
	o, err := svc.FillTicketDetails(context.Background(), "u-1", fillRequest())

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, o.Status)
	for _, ticket := range o.Tickets {
		assert.Len(t, ticket.CheckinCode, 12)
		for _, r := range ticket.CheckinCode {
			assert.Contains(t, checkinAlphabet, string(r))
		}
		assert.Equal(t, []byte("png"), ticket.QRCode)
	}
	assert.NotEqual(t, o.Tickets[0].CheckinCode, o.Tickets[1].CheckinCode)
	store.AssertNumberOfCalls(t, "UpdateTicketDetails", 2)
	qrGen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestFillTicketDetailsKeepsExistingCode(t *testing.T) {
	store := &mockStore{}
	qrGen := &mockQR{}
	o := paidOrder()
	o.Tickets[0].CheckinCode = "AAAABBBBCCCC"
	o.Tickets[0].QRCode = []byte("old")
	o.Tickets = o.Tickets[:1]
	store.On("GetOrderWithTickets", mock.Anything, "o-1").Return(o, nil)
	store.On("UpdateTicketDetails", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkOrderCompleted", mock.Anything, "o-1").Return(nil)

	svc := NewService(store, qrGen, nil)
	req := fillRequest()
	req.Tickets = req.Tickets[:1]
	got, err := svc.FillTicketDetails(context.Background(), "u-1", req)

	assert.NoError(t, err)
	assert.Equal(t, "AAAABBBBCCCC", got.Tickets[0].CheckinCode)
	assert.Equal(t, "Ada", got.Tickets[0].FirstName)
	qrGen.AssertNotCalled(t, "Generate", mock.Anything)
}

func TestFillTicketDetailsPartialFillLeavesOrderPending(t *testing.T) {
	store := &mockStore{}
	qrGen := &mockQR{}
	store.On("GetOrderWithTickets", mock.Anything, "o-1").Return(paidOrder(), nil)
	store.On("UpdateTicketDetails", mock.Anything, mock.Anything).Return(nil)
	qrGen.On("Generate", mock.Anything).Return([]byte("png"), nil)

	svc := NewService(store, qrGen, nil)
	req := fillRequest()
	req.Tickets = req.Tickets[:1]
	got, err := svc.FillTicketDetails(context.Background(), "u-1", req)

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	store.AssertNotCalled(t, "MarkOrderCompleted", mock.Anything, mock.Anything)
}

func TestGenerateCheckinCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCheckinCode()
		assert.NoError(t, err)
		assert.Len(t, code, 12)
		for _, r := range code {
			assert.Contains(t, checkinAlphabet, string(r))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestVerifyCheckinCode(t *testing.T) {
	store := &mockStore{}
	store.On("GetTicketByCheckinCode", mock.Anything, "AAAABBBBCCCC").Return(&models.Ticket{ID: "t-1"}, nil)
	store.On("GetTicketByCheckinCode", mock.Anything, "ZZZZZZZZZZZZ").Return(nil, nil)

	svc := NewService(store, &mockQR{}, nil)

	ticket, err := svc.VerifyCheckinCode(context.Background(), "AAAABBBBCCCC")
	assert.NoError(t, err)
	assert.Equal(t, "t-1", ticket.ID)

	_, err = svc.VerifyCheckinCode(context.Background(), "ZZZZZZZZZZZZ")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}
