package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	FullName       *string   `json:"full_name,omitempty"`
	CompanyName    *string   `json:"company_name,omitempty"`
	Provider       *string   `json:"provider,omitempty"`
	ProviderID     *string   `json:"provider_id,omitempty"`
	IsActive       bool      `json:"is_active"`
	IsSuperuser    bool      `json:"is_superuser"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
