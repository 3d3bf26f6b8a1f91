package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/zheli/invoice-bun/internal/database"
)

var ErrNotFound = errors.New("invoice not found")

// Repository handles invoice data persistence. Every query is scoped by the
// owning user's id; a lookup by a non-owner behaves exactly like a missing row.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns a page of the user's invoices
func (r *Repository) List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*Invoice, error) {
	var dbInvoices []*database.Invoice
	err := r.db.NewSelect().
		Model(&dbInvoices).
		Where("user_id = ?", userID).
		Offset(offset).
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	invoices := make([]*Invoice, 0, len(dbInvoices))
	for _, dbInv := range dbInvoices {
		invoices = append(invoices, mapDBInvoiceToModel(dbInv))
	}

	return invoices, nil
}

// Create inserts a new invoice owned by the given user
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, params CreateParams) (*Invoice, error) {
	dbInvoice := &database.Invoice{
		UserID:        userID,
		InvoiceNumber: params.InvoiceNumber,
		DueDate:       params.DueDate,
		ClientName:    params.ClientName,
		ClientEmail:   params.ClientEmail,
		TotalAmount:   params.TotalAmount,
		Status:        params.Status,
		Content:       params.Content,
	}
	if params.Date != nil {
		dbInvoice.Date = *params.Date
	}
	if dbInvoice.Status == "" {
		dbInvoice.Status = StatusDraft
	}
	if dbInvoice.Content == nil {
		dbInvoice.Content = map[string]any{}
	}

	_, err := r.db.NewInsert().
		Model(dbInvoice).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	return mapDBInvoiceToModel(dbInvoice), nil
}

// GetByID retrieves an invoice by id and owner
func (r *Repository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Invoice, error) {
	dbInvoice, err := r.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	return mapDBInvoiceToModel(dbInvoice), nil
}

// Update applies a partial update to an owned invoice and returns the result
func (r *Repository) Update(ctx context.Context, userID, id uuid.UUID, params UpdateParams) (*Invoice, error) {
	dbInvoice, err := r.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	applyUpdate(dbInvoice, params)
	dbInvoice.UpdatedAt = time.Now()

	_, err = r.db.NewUpdate().
		Model(dbInvoice).
		WherePK().
		Where("user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	return mapDBInvoiceToModel(dbInvoice), nil
}

// Delete removes an owned invoice and returns the deleted record's data
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (*Invoice, error) {
	dbInvoice, err := r.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	_, err = r.db.NewDelete().
		Model(dbInvoice).
		WherePK().
		Where("user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to delete invoice: %w", err)
	}

	return mapDBInvoiceToModel(dbInvoice), nil
}

func (r *Repository) getOwned(ctx context.Context, userID, id uuid.UUID) (*database.Invoice, error) {
	dbInvoice := new(database.Invoice)
	err := r.db.NewSelect().
		Model(dbInvoice).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return dbInvoice, nil
}

// applyUpdate copies only the fields present in params onto the record
func applyUpdate(dbInvoice *database.Invoice, params UpdateParams) {
	if params.InvoiceNumber != nil {
		dbInvoice.InvoiceNumber = *params.InvoiceNumber
	}
	if params.Date != nil {
		dbInvoice.Date = *params.Date
	}
	if params.DueDate != nil {
		dbInvoice.DueDate = params.DueDate
	}
	if params.ClientName != nil {
		dbInvoice.ClientName = *params.ClientName
	}
	if params.ClientEmail != nil {
		dbInvoice.ClientEmail = params.ClientEmail
	}
	if params.TotalAmount != nil {
		dbInvoice.TotalAmount = *params.TotalAmount
	}
	if params.Status != nil {
		dbInvoice.Status = *params.Status
	}
	if params.Content != nil {
		dbInvoice.Content = params.Content
	}
}

// mapDBInvoiceToModel converts database model to domain model
func mapDBInvoiceToModel(dbi *database.Invoice) *Invoice {
	return &Invoice{
		ID:            dbi.ID,
		UserID:        dbi.UserID,
		InvoiceNumber: dbi.InvoiceNumber,
		Date:          dbi.Date,
		DueDate:       dbi.DueDate,
		ClientName:    dbi.ClientName,
		ClientEmail:   dbi.ClientEmail,
		TotalAmount:   dbi.TotalAmount,
		Status:        dbi.Status,
		Content:       dbi.Content,
		CreatedAt:     dbi.CreatedAt,
		UpdatedAt:     dbi.UpdatedAt,
	}
}
