// Package db is the ticket fulfillment persistence layer.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

type Store struct {
	Bun *bun.DB
}

func NewStore(bdb *bun.DB) *Store {
	return &Store{Bun: bdb}
}

// GetOrderWithTickets loads an order and its tickets for fulfillment.
func (s *Store) GetOrderWithTickets(ctx context.Context, orderID string) (*models.Order, error) {
	order := &models.Order{}
	err := s.Bun.NewSelect().Model(order).
		Relation("Tickets").
		Relation("Tickets.TicketType").
		Where("\"order\".id = ?", orderID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order with tickets: %w", err)
	}
	return order, nil
}

// UpdateTicketDetails writes the attendee fields and, when set, the
// check-in code and QR image.
func (s *Store) UpdateTicketDetails(ctx context.Context, ticket *models.Ticket) error {
	q := s.Bun.NewUpdate().Model(ticket).
		Column("first_name", "last_name", "email", "phone", "gender").
		Where("id = ?", ticket.ID)
	if ticket.CheckinCode != "" {
		q = q.Column("checkin_code", "qr_code")
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	return nil
}

// MarkOrderCompleted flags an order whose tickets all carry details.
func (s *Store) MarkOrderCompleted(ctx context.Context, orderID string) error {
	_, err := s.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", models.OrderStatusCompleted).
		Where("id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark order completed: %w", err)
	}
	return nil
}

// GetTicketByCheckinCode resolves a scanned code to its ticket.
func (s *Store) GetTicketByCheckinCode(ctx context.Context, code string) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	err := s.Bun.NewSelect().Model(ticket).
		Relation("TicketType").
		Where("checkin_code = ?", code).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select ticket by code: %w", err)
	}
	return ticket, nil
}
