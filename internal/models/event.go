package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event lifecycle as seen by buyers. Events are created and edited by an
// external admin service; this service only reads them.
const (
	EventStatusUpcoming = "UPCOMING"
	EventStatusPast     = "PAST"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description,nullzero" json:"description,omitempty"`
	StartTime   time.Time `bun:"start_time,notnull" json:"startTime"`
	EndTime     time.Time `bun:"end_time,notnull" json:"endTime"`
	IsPublished bool      `bun:"is_published,notnull,default:false" json:"isPublished"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`

	TicketTypes []*TicketType `bun:"rel:has-many,join:id=event_id" json:"ticketTypes,omitempty"`
	Addons      []*Addon      `bun:"rel:has-many,join:id=event_id" json:"addons,omitempty"`
}

// Status derives the buyer-facing event status from the end time.
func (e *Event) Status(now time.Time) string {
	if e.EndTime.After(now) {
		return EventStatusUpcoming
	}
	return EventStatusPast
}
