// Package events serves buyer-facing event reads.
package events

import (
	"context"
	"errors"
	"time"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order/discount"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrPromoCodeNotFound = errors.New("promo code not found")
)

// DBLayer is the slice of the store event reads depend on.
type DBLayer interface {
	GetPublishedEvent(ctx context.Context, id string) (*models.Event, error)
	GetPromoCodeByKey(ctx context.Context, key string) (*models.PromoCode, error)
	CountPromoRedemptions(ctx context.Context, promoCodeID string) (int, error)
}

type Service struct {
	DB  DBLayer
	Log *logger.Logger

	// PromoPolicy is "any" or "all", see discount.Active.
	PromoPolicy string

	Now func() time.Time
}

func NewService(store DBLayer, log *logger.Logger, promoPolicy string) *Service {
	return &Service{DB: store, Log: log, PromoPolicy: promoPolicy, Now: time.Now}
}

// GetEvent returns a published event with only the ticket types a buyer
// should see right now.
func (s *Service) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.DB.GetPublishedEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	now := s.Now()
	visible := make([]*models.TicketType, 0, len(event.TicketTypes))
	for _, tt := range event.TicketTypes {
		if tt.VisibleAt(now) {
			visible = append(visible, tt)
		}
	}
	event.TicketTypes = visible
	return event, nil
}

// LookupPromoCode resolves a code by key and reports whether it is active.
// When eventID is given the code must cover at least one of that event's
// ticket types.
func (s *Service) LookupPromoCode(ctx context.Context, key, eventID string) (*models.PromoLookupResponse, error) {
	code, err := s.DB.GetPromoCodeByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, ErrPromoCodeNotFound
	}

	if eventID != "" {
		event, err := s.DB.GetPublishedEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if event == nil {
			return nil, ErrEventNotFound
		}
		if !coversEvent(code, event) {
			return nil, ErrPromoCodeNotFound
		}
	}

	redeemed, err := s.DB.CountPromoRedemptions(ctx, code.ID)
	if err != nil {
		return nil, err
	}

	return &models.PromoLookupResponse{
		PromoCode: code,
		Active:    discount.Active(code, redeemed, s.Now(), s.PromoPolicy),
	}, nil
}

func coversEvent(code *models.PromoCode, event *models.Event) bool {
	if len(code.TicketTypeIDs) == 0 {
		return true
	}
	for _, tt := range event.TicketTypes {
		if code.AppliesTo(tt.ID) {
			return true
		}
	}
	return false
}
