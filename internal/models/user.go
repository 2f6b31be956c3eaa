package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is a buyer account. Accounts are auto-created at checkout for
// first-time buyers with a placeholder password and an unconfirmed email;
// the account-completion flow lives in an external service.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID             string    `bun:"id,pk" json:"id"`
	Email          string    `bun:"email,unique,notnull" json:"email"`
	PasswordHash   string    `bun:"password_hash,notnull" json:"-"`
	FirstName      string    `bun:"first_name,nullzero" json:"firstName,omitempty"`
	LastName       string    `bun:"last_name,nullzero" json:"lastName,omitempty"`
	EmailConfirmed bool      `bun:"email_confirmed,notnull,default:false" json:"emailConfirmed"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
