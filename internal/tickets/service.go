// Package tickets handles post-payment ticket fulfillment: binding
// attendees to tickets and issuing check-in codes.
package tickets

import (
	"context"
	"fmt"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
)

// DBLayer is the slice of the store fulfillment depends on.
type DBLayer interface {
	GetOrderWithTickets(ctx context.Context, orderID string) (*models.Order, error)
	UpdateTicketDetails(ctx context.Context, ticket *models.Ticket) error
	MarkOrderCompleted(ctx context.Context, orderID string) error
	GetTicketByCheckinCode(ctx context.Context, code string) (*models.Ticket, error)
}

// QRGenerator renders a check-in payload as an encrypted QR image.
type QRGenerator interface {
	Generate(payload string) ([]byte, error)
}

type Service struct {
	DB  DBLayer
	QR  QRGenerator
	Log *logger.Logger
}

func NewService(store DBLayer, qr QRGenerator, log *logger.Logger) *Service {
	return &Service{DB: store, QR: qr, Log: log}
}

// FillTicketDetails binds attendee identities to an order's tickets and
// issues check-in codes. Only the buyer can fill, only after payment, and
// never again once the order is completed. Codes already issued to a
// ticket are kept on re-submission.
func (s *Service) FillTicketDetails(ctx context.Context, userID string, req *models.FillTicketDetailsRequest) (*models.Order, error) {
	o, err := s.DB.GetOrderWithTickets(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, order.ErrOrderNotFound
	}
	if o.UserID != userID {
		return nil, order.ErrNotOrderOwner
	}
	if o.PaymentStatus != models.PaymentStatusSuccessful {
		return nil, order.ErrPaymentNotConfirmed
	}
	if o.Status == models.OrderStatusCompleted {
		return nil, order.ErrOrderCompleted
	}

	byID := make(map[string]*models.Ticket, len(o.Tickets))
	for _, t := range o.Tickets {
		byID[t.ID] = t
	}

	for _, details := range req.Tickets {
		ticket, ok := byID[details.TicketID]
		if !ok {
			return nil, fmt.Errorf("ticket %s: %w", details.TicketID, order.ErrOrderNotFound)
		}

		ticket.FirstName = details.FirstName
		ticket.LastName = details.LastName
		ticket.Email = details.Email
		ticket.Phone = details.Phone
		ticket.Gender = details.Gender

		if ticket.CheckinCode == "" {
			code, err := GenerateCheckinCode()
			if err != nil {
				return nil, err
			}
			png, err := s.QR.Generate(checkinPayload(o, ticket, code))
			if err != nil {
				return nil, err
			}
			ticket.CheckinCode = code
			ticket.QRCode = png
		}

		if err := s.DB.UpdateTicketDetails(ctx, ticket); err != nil {
			return nil, err
		}
	}

	if allFulfilled(o.Tickets) {
		if err := s.DB.MarkOrderCompleted(ctx, o.ID); err != nil {
			return nil, err
		}
		o.Status = models.OrderStatusCompleted
		s.Log.LogOrder(o.ID, "all tickets fulfilled, order completed")
	}

	return o, nil
}

// VerifyCheckinCode resolves a code scanned at the gate.
func (s *Service) VerifyCheckinCode(ctx context.Context, code string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByCheckinCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, order.ErrOrderNotFound
	}
	return ticket, nil
}

func allFulfilled(tickets []*models.Ticket) bool {
	for _, t := range tickets {
		if t.CheckinCode == "" {
			return false
		}
	}
	return len(tickets) > 0
}

func checkinPayload(o *models.Order, t *models.Ticket, code string) string {
	return fmt.Sprintf("%s|%s|%s|%s", o.EventID, o.ID, t.ID, code)
}
