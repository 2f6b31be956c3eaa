// Package db is the order service's persistence layer over bun.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"ms-ordering/internal/models"
)

// Store wraps a bun handle with the queries the order flow needs.
type Store struct {
	Bun *bun.DB
}

func NewStore(bdb *bun.DB) *Store {
	return &Store{Bun: bdb}
}

// Tx is the slice of the store available inside a serializable order
// transaction.
type Tx interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	TicketTypeForUpdate(ctx context.Context, id string) (*models.TicketType, error)
	CountSoldTickets(ctx context.Context, ticketTypeID string) (int, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	InsertOrder(ctx context.Context, order *models.Order, tickets []*models.Ticket, addons []*models.AddonOrder) error
}

type storeTx struct {
	tx bun.Tx
	pg bool
}

// InTx runs fn inside a transaction. The order placement flow does all
// reads and writes through the Tx it receives. On Postgres the transaction
// is serializable; sqlite transactions already are.
func (s *Store) InTx(ctx context.Context, fn func(tx Tx) error) error {
	pg := s.Bun.Dialect().Name() == dialect.PG
	opts := &sql.TxOptions{}
	if pg {
		opts.Isolation = sql.LevelSerializable
	}
	return s.Bun.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		return fn(&storeTx{tx: tx, pg: pg})
	})
}

// GetEvent loads an event with its ticket types and add-ons inside the
// order transaction.
func (t *storeTx) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event := &models.Event{}
	err := t.tx.NewSelect().Model(event).
		Relation("TicketTypes").
		Relation("Addons").
		Where("event.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select event: %w", err)
	}
	return event, nil
}

// TicketTypeForUpdate loads a ticket type, taking a row lock on Postgres so
// concurrent orders for the same type serialize on the inventory check.
func (t *storeTx) TicketTypeForUpdate(ctx context.Context, id string) (*models.TicketType, error) {
	tt := &models.TicketType{}
	q := t.tx.NewSelect().Model(tt).Where("id = ?", id)
	if t.pg {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select ticket type: %w", err)
	}
	return tt, nil
}

// CountSoldTickets counts tickets of the type belonging to orders whose
// payment succeeded. Pending orders do not hold inventory.
func (t *storeTx) CountSoldTickets(ctx context.Context, ticketTypeID string) (int, error) {
	count, err := t.tx.NewSelect().
		Model((*models.Ticket)(nil)).
		Join("JOIN orders AS o ON o.id = ticket.order_id").
		Where("ticket.ticket_type_id = ?", ticketTypeID).
		Where("o.payment_status = ?", models.PaymentStatusSuccessful).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count sold tickets: %w", err)
	}
	return count, nil
}

func (t *storeTx) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := t.tx.NewSelect().Model(user).Where("email = ?", email).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func (t *storeTx) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := t.tx.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func (t *storeTx) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := t.tx.NewInsert().Model(user).Exec(ctx); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// InsertOrder persists the order with its tickets and add-on lines.
func (t *storeTx) InsertOrder(ctx context.Context, order *models.Order, tickets []*models.Ticket, addons []*models.AddonOrder) error {
	if _, err := t.tx.NewInsert().Model(order).Exec(ctx); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if len(tickets) > 0 {
		if _, err := t.tx.NewInsert().Model(&tickets).Exec(ctx); err != nil {
			return fmt.Errorf("insert tickets: %w", err)
		}
	}
	if len(addons) > 0 {
		if _, err := t.tx.NewInsert().Model(&addons).Exec(ctx); err != nil {
			return fmt.Errorf("insert addon orders: %w", err)
		}
	}
	return nil
}

// GetEvent loads an event with its ticket types and add-ons.
func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event := &models.Event{}
	err := s.Bun.NewSelect().Model(event).
		Relation("TicketTypes").
		Relation("Addons").
		Where("event.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select event: %w", err)
	}
	return event, nil
}

func (s *Store) GetPromoCodeByID(ctx context.Context, id string) (*models.PromoCode, error) {
	code := &models.PromoCode{}
	err := s.Bun.NewSelect().Model(code).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select promo code: %w", err)
	}
	return code, nil
}

func (s *Store) GetPromoCodeByKey(ctx context.Context, key string) (*models.PromoCode, error) {
	code := &models.PromoCode{}
	err := s.Bun.NewSelect().Model(code).Where("key = ?", key).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select promo code: %w", err)
	}
	return code, nil
}

// CountPromoRedemptions counts orders referencing the code, regardless of
// payment outcome.
func (s *Store) CountPromoRedemptions(ctx context.Context, promoCodeID string) (int, error) {
	count, err := s.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Where("promo_code_id = ?", promoCodeID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count promo redemptions: %w", err)
	}
	return count, nil
}

// GetOrder loads a bare order row.
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order := &models.Order{}
	err := s.Bun.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	return order, nil
}

// GetOrderWithDetails loads an order with event, tickets (and their types)
// and add-on lines.
func (s *Store) GetOrderWithDetails(ctx context.Context, id string) (*models.Order, error) {
	order := &models.Order{}
	err := s.Bun.NewSelect().Model(order).
		Relation("Event").
		Relation("Tickets").
		Relation("Tickets.TicketType").
		Relation("Addons").
		Relation("Addons.Addon").
		Where("\"order\".id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order with details: %w", err)
	}
	return order, nil
}

// GetUserOrders lists a buyer's orders, newest first.
func (s *Store) GetUserOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.Bun.NewSelect().Model(&orders).
		Relation("Event").
		Relation("Tickets").
		Where("\"order\".user_id = ?", userID).
		OrderExpr("\"order\".created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select user orders: %w", err)
	}
	return orders, nil
}

// SetSessionID records the checkout session created for the order.
func (s *Store) SetSessionID(ctx context.Context, orderID, sessionID string) error {
	_, err := s.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("session_id = ?", sessionID).
		Where("id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set session id: %w", err)
	}
	return nil
}

// MarkOrderPaid flips a pending order to SUCCESSFUL exactly once. The guard
// on the current status makes redelivered webhooks no-ops; the returned
// bool is true only for the delivery that performed the transition.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID, paymentID string, amountCents int64) (bool, error) {
	res, err := s.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("payment_status = ?", models.PaymentStatusSuccessful).
		Set("payment_id = ?", paymentID).
		Set("amount_paid_cents = ?", amountCents).
		Where("id = ?", orderID).
		Where("payment_status <> ?", models.PaymentStatusSuccessful).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	return affected > 0, nil
}

// MarkOrderFailed records a failed payment attempt. Only pending orders
// transition; a later successful attempt can still pay a FAILED order
// through the same session, which MarkOrderPaid permits.
func (s *Store) MarkOrderFailed(ctx context.Context, orderID, paymentID string) (bool, error) {
	res, err := s.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("payment_status = ?", models.PaymentStatusFailed).
		Set("payment_id = ?", paymentID).
		Where("id = ?", orderID).
		Where("payment_status = ?", models.PaymentStatusPending).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("mark order failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark order failed: %w", err)
	}
	return affected > 0, nil
}
