// Package order implements order placement, checkout and payment
// reconciliation.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order/db"
	"ms-ordering/internal/order/discount"
)

// DBLayer is the slice of the store the order service depends on.
type DBLayer interface {
	InTx(ctx context.Context, fn func(tx db.Tx) error) error
	GetPromoCodeByID(ctx context.Context, id string) (*models.PromoCode, error)
	CountPromoRedemptions(ctx context.Context, promoCodeID string) (int, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetOrderWithDetails(ctx context.Context, id string) (*models.Order, error)
	GetUserOrders(ctx context.Context, userID string) ([]*models.Order, error)
	SetSessionID(ctx context.Context, orderID, sessionID string) error
	MarkOrderPaid(ctx context.Context, orderID, paymentID string, amountCents int64) (bool, error)
}

// SessionStarter creates a hosted checkout session for an order.
type SessionStarter interface {
	CreateSession(ctx context.Context, order *models.Order, items []LineItem, successURL, cancelURL string) (sessionID, sessionURL string, err error)
}

// Notifier publishes post-commit order events. Failures are logged, never
// surfaced to the buyer.
type Notifier interface {
	OrderReceived(ctx context.Context, order *models.Order) error
	OrderPaid(ctx context.Context, order *models.Order) error
	AccountInvite(ctx context.Context, user *models.User) error
}

// Service orchestrates order placement.
type Service struct {
	DB       DBLayer
	Checkout SessionStarter
	Notify   Notifier
	Log      *logger.Logger

	// PromoPolicy is "any" or "all", see discount.Active.
	PromoPolicy   string
	FeePercent    int64
	FeeFixedCents int64

	Now func() time.Time
}

func NewService(store DBLayer, checkout SessionStarter, notify Notifier, log *logger.Logger, promoPolicy string, feePercent, feeFixedCents int64) *Service {
	return &Service{
		DB:            store,
		Checkout:      checkout,
		Notify:        notify,
		Log:           log,
		PromoPolicy:   promoPolicy,
		FeePercent:    feePercent,
		FeeFixedCents: feeFixedCents,
		Now:           time.Now,
	}
}

// placeholderPassword seeds auto-created buyer accounts. The buyer sets a
// real password through the account invite flow.
func placeholderPassword() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return ""
	}
	return string(hash)
}

// resolveBuyer binds the order to a user account. An authenticated request
// carries the token subject in buyerID; the account must exist, otherwise
// the token refers to a deleted or stale account and the buyer has to
// re-authenticate. Guest requests resolve by email, creating the account
// on first purchase.
func resolveBuyer(ctx context.Context, tx db.Tx, req *models.CreateOrderRequest, buyerID string, now time.Time) (*models.User, bool, error) {
	if buyerID != "" {
		user, err := tx.GetUserByID(ctx, buyerID)
		if err != nil {
			return nil, false, err
		}
		if user == nil {
			return nil, false, ErrAuthExpired
		}
		return user, false, nil
	}

	user, err := tx.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	user = &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: placeholderPassword(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CreatedAt:    now,
	}
	if err := tx.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// PlaceOrder validates the cart against the event, resolves the buyer,
// checks inventory and persists the order in one serializable transaction.
// After commit it starts a checkout session, or marks the order paid
// outright when the total is zero. A non-empty buyerID comes from a
// verified bearer token and binds the order to that account regardless of
// the contact email in the request.
func (s *Service) PlaceOrder(ctx context.Context, req *models.CreateOrderRequest, buyerID string) (*models.CreateOrderResponse, error) {
	now := s.Now()

	ticketCount := 0
	for _, line := range req.TicketOrders {
		ticketCount += line.Quantity
	}
	if ticketCount == 0 {
		return nil, ErrEmptyOrder
	}

	var promo *models.PromoCode
	if req.PromoCodeID != "" {
		code, err := s.DB.GetPromoCodeByID(ctx, req.PromoCodeID)
		if err != nil {
			return nil, err
		}
		if code == nil {
			return nil, ErrPromoCodeNotFound
		}
		redeemed, err := s.DB.CountPromoRedemptions(ctx, code.ID)
		if err != nil {
			return nil, err
		}
		if discount.Active(code, redeemed, now, s.PromoPolicy) {
			promo = code
		}
	}

	order := &models.Order{
		ID:            uuid.NewString(),
		EventID:       req.EventID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		PaymentStatus: models.PaymentStatusPending,
		Status:        models.OrderStatusPending,
		CreatedAt:     now,
	}
	if promo != nil {
		order.PromoCodeID = promo.ID
	}

	var (
		items       []LineItem
		createdUser *models.User
	)

	err := s.DB.InTx(ctx, func(tx db.Tx) error {
		event, err := tx.GetEvent(ctx, req.EventID)
		if err != nil {
			return err
		}
		if event == nil {
			return ErrEventNotFound
		}
		if !event.IsPublished {
			return ErrEventNotPublished
		}
		if event.Status(now) != models.EventStatusUpcoming {
			return ErrEventClosed
		}

		user, created, err := resolveBuyer(ctx, tx, req, buyerID, now)
		if err != nil {
			return err
		}
		if created {
			createdUser = user
		}
		order.UserID = user.ID

		var tickets []*models.Ticket
		for _, line := range req.TicketOrders {
			if line.Quantity == 0 {
				continue
			}
			tt, err := tx.TicketTypeForUpdate(ctx, line.TicketTypeID)
			if err != nil {
				return err
			}
			if tt == nil || tt.EventID != event.ID {
				return ErrTicketTypeNotFound
			}
			if err := checkQuantityBounds(tt, line.Quantity); err != nil {
				return err
			}

			sold, err := tx.CountSoldTickets(ctx, tt.ID)
			if err != nil {
				return err
			}
			remaining := tt.Quantity - sold
			if line.Quantity > remaining {
				if remaining < 0 {
					remaining = 0
				}
				return &InsufficientInventoryError{
					TicketTypeName: tt.Name,
					Requested:      line.Quantity,
					Remaining:      remaining,
				}
			}

			for i := 0; i < line.Quantity; i++ {
				tickets = append(tickets, &models.Ticket{
					ID:           uuid.NewString(),
					OrderID:      order.ID,
					TicketTypeID: tt.ID,
					CreatedAt:    now,
				})
			}
			unitPrice := tt.PriceCents
			if promo != nil && discount.CoversTicketType(promo, tt.ID) {
				unitPrice = discount.DiscountedUnitPrice(promo, tt.PriceCents)
			}
			items = append(items, LineItem{
				Name:           tt.Name,
				UnitPriceCents: unitPrice,
				Quantity:       line.Quantity,
			})
		}

		var addonOrders []*models.AddonOrder
		for _, line := range req.AddonOrders {
			if line.Quantity == 0 {
				continue
			}
			addon := findAddon(event.Addons, line.AddonID)
			if addon == nil {
				return ErrAddonNotFound
			}
			addonOrders = append(addonOrders, &models.AddonOrder{
				ID:       uuid.NewString(),
				OrderID:  order.ID,
				AddonID:  addon.ID,
				Quantity: line.Quantity,
			})
			items = append(items, LineItem{
				Name:           addon.Name,
				UnitPriceCents: addon.PriceCents,
				Quantity:       line.Quantity,
			})
		}

		return tx.InsertOrder(ctx, order, tickets, addonOrders)
	})
	if err != nil {
		return nil, err
	}

	s.Log.LogOrder(order.ID, fmt.Sprintf("order placed for event %s (%d tickets)", order.EventID, ticketCount))
	s.notifyReceived(ctx, order, createdUser)

	items = AppendFeeLine(items, s.FeePercent, s.FeeFixedCents)

	if TotalCents(items) == 0 {
		transitioned, err := s.DB.MarkOrderPaid(ctx, order.ID, "no-payment-required", 0)
		if err != nil {
			return nil, err
		}
		order.PaymentStatus = models.PaymentStatusSuccessful
		order.AmountPaidCents = 0
		if transitioned {
			s.Log.LogPayment(order.ID, "zero total, confirmed without checkout session")
			if err := s.Notify.OrderPaid(ctx, order); err != nil {
				s.Log.Error("KAFKA", fmt.Sprintf("publish order paid for %s: %v", order.ID, err))
			}
		}
		return &models.CreateOrderResponse{Order: order}, nil
	}

	sessionID, sessionURL, err := s.Checkout.CreateSession(ctx, order, items, req.SuccessURL, req.CancelURL)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if err := s.DB.SetSessionID(ctx, order.ID, sessionID); err != nil {
		return nil, err
	}
	order.SessionID = sessionID

	return &models.CreateOrderResponse{
		Order:      order,
		SessionID:  &sessionID,
		SessionURL: &sessionURL,
	}, nil
}

// GetOrder returns an order with its full detail graph.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.DB.GetOrderWithDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UserOrders lists the authenticated buyer's orders.
func (s *Service) UserOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	return s.DB.GetUserOrders(ctx, userID)
}

func (s *Service) notifyReceived(ctx context.Context, order *models.Order, createdUser *models.User) {
	if err := s.Notify.OrderReceived(ctx, order); err != nil {
		s.Log.Error("KAFKA", fmt.Sprintf("publish order received for %s: %v", order.ID, err))
	}
	if createdUser != nil {
		if err := s.Notify.AccountInvite(ctx, createdUser); err != nil {
			s.Log.Error("KAFKA", fmt.Sprintf("publish account invite for %s: %v", createdUser.ID, err))
		}
	}
}

func checkQuantityBounds(tt *models.TicketType, qty int) error {
	min, max := tt.MinPerOrder, tt.MaxPerOrder
	if min > 0 && qty < min {
		return &QuantityBoundsError{TicketTypeName: tt.Name, Requested: qty, Min: min, Max: max}
	}
	if max > 0 && qty > max {
		return &QuantityBoundsError{TicketTypeName: tt.Name, Requested: qty, Min: min, Max: max}
	}
	return nil
}

func findAddon(addons []*models.Addon, id string) *models.Addon {
	for _, a := range addons {
		if a.ID == id {
			return a
		}
	}
	return nil
}
