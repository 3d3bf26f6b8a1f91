package invoice

import (
	"time"

	"github.com/google/uuid"
)

// Invoice statuses form a small open-ended set; these are the known values.
const (
	StatusDraft = "draft"
	StatusSent  = "sent"
	StatusPaid  = "paid"
)

type Invoice struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	InvoiceNumber string         `json:"invoice_number"`
	Date          time.Time      `json:"date"`
	DueDate       *time.Time     `json:"due_date,omitempty"`
	ClientName    string         `json:"client_name"`
	ClientEmail   *string        `json:"client_email,omitempty"`
	TotalAmount   float64        `json:"total_amount"`
	Status        string         `json:"status"`
	Content       map[string]any `json:"content"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CreateParams holds the fields for a new invoice; the owner is stamped
// separately from the authenticated user.
type CreateParams struct {
	InvoiceNumber string         `json:"invoice_number"`
	Date          *time.Time     `json:"date"`
	DueDate       *time.Time     `json:"due_date"`
	ClientName    string         `json:"client_name"`
	ClientEmail   *string        `json:"client_email"`
	TotalAmount   float64        `json:"total_amount"`
	Status        string         `json:"status"`
	Content       map[string]any `json:"content"`
}

// UpdateParams is a partial update: nil fields are left untouched
type UpdateParams struct {
	InvoiceNumber *string        `json:"invoice_number"`
	Date          *time.Time     `json:"date"`
	DueDate       *time.Time     `json:"due_date"`
	ClientName    *string        `json:"client_name"`
	ClientEmail   *string        `json:"client_email"`
	TotalAmount   *float64       `json:"total_amount"`
	Status        *string        `json:"status"`
	Content       map[string]any `json:"content"`
}
