package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun table model for the users table
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email          string    `bun:"email,notnull,unique"`
	HashedPassword string    `bun:"hashed_password,notnull"`
	FullName       *string   `bun:"full_name"`
	CompanyName    *string   `bun:"company_name"`
	Provider       *string   `bun:"provider"`
	ProviderID     *string   `bun:"provider_id"`
	IsActive       bool      `bun:"is_active,notnull,default:true"`
	IsSuperuser    bool      `bun:"is_superuser,notnull,default:false"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Invoice is the bun table model for the invoices table.
// Content holds the full line-item payload as an opaque jsonb blob.
type Invoice struct {
	bun.BaseModel `bun:"table:invoices,alias:i"`

	ID            uuid.UUID      `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID        uuid.UUID      `bun:"user_id,notnull,type:uuid"`
	InvoiceNumber string         `bun:"invoice_number,notnull"`
	Date          time.Time      `bun:"date,nullzero,notnull,default:current_timestamp"`
	DueDate       *time.Time     `bun:"due_date"`
	ClientName    string         `bun:"client_name,notnull"`
	ClientEmail   *string        `bun:"client_email"`
	TotalAmount   float64        `bun:"total_amount,notnull,default:0"`
	Status        string         `bun:"status,notnull,default:'draft'"`
	Content       map[string]any `bun:"content,type:jsonb"`
	CreatedAt     time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}
