// Package db is the events read-side persistence layer.
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

// GetPublishedEvent loads a published event with its ticket types and
// add-ons. Unpublished events are invisible to buyers.
func (s *Store) GetPublishedEvent(ctx context.Context, id string) (*models.Event, error) {
	event := &models.Event{}
	err := s.Bun.NewSelect().Model(event).
		Relation("TicketTypes").
		Relation("Addons").
		Where("event.id = ?", id).
		Where("event.is_published = ?", true).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select event: %w", err)
	}
	return event, nil
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
