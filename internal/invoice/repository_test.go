package invoice

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheli/invoice-bun/internal/database"
)

var invoiceColumns = []string{
	"id", "user_id", "invoice_number", "date", "due_date", "client_name",
	"client_email", "total_amount", "status", "content", "created_at", "updated_at",
}

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewRepository(database.NewBunDB(sqlDB)), mock
}

func invoiceRow(id, userID uuid.UUID, number string, total float64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(invoiceColumns).
		AddRow(id.String(), userID.String(), number, now, nil, "Acme Corp",
			nil, total, status, []byte(`{"items": []}`), now, now)
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock := newTestRepository(t)

	userID := uuid.New()
	invoiceID := uuid.New()

	// The query must be scoped to both the invoice id and the owner's id
	mock.ExpectQuery(fmt.Sprintf(`SELECT (.+) FROM "invoices"(.+)id = '%s'(.+)user_id = '%s'`, invoiceID, userID)).
		WillReturnRows(invoiceRow(invoiceID, userID, "INV-001", 150.50, StatusSent))

	found, err := repo.GetByID(context.Background(), userID, invoiceID)
	require.NoError(t, err)

	assert.Equal(t, invoiceID, found.ID)
	assert.Equal(t, userID, found.UserID)
	assert.Equal(t, "INV-001", found.InvoiceNumber)
	assert.Equal(t, 150.50, found.TotalAmount)
	assert.Equal(t, StatusSent, found.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotOwnedOrMissing(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM "invoices"`).
		WillReturnRows(sqlmock.NewRows(invoiceColumns))

	_, err := repo.GetByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_List(t *testing.T) {
	repo, mock := newTestRepository(t)

	userID := uuid.New()

	mock.ExpectQuery(fmt.Sprintf(`SELECT (.+) FROM "invoices"(.+)user_id = '%s'(.+)LIMIT 5 OFFSET 10`, userID)).
		WillReturnRows(sqlmock.NewRows(invoiceColumns).
			AddRow(uuid.NewString(), userID.String(), "INV-011", time.Now(), nil, "Acme Corp", nil, 10.0, StatusDraft, []byte(`{}`), time.Now(), time.Now()).
			AddRow(uuid.NewString(), userID.String(), "INV-012", time.Now(), nil, "Globex", nil, 20.0, StatusPaid, []byte(`{}`), time.Now(), time.Now()))

	invoices, err := repo.List(context.Background(), userID, 10, 5)
	require.NoError(t, err)

	require.Len(t, invoices, 2)
	assert.Equal(t, "INV-011", invoices[0].InvoiceNumber)
	assert.Equal(t, "INV-012", invoices[1].InvoiceNumber)
}

func TestRepository_List_Empty(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM "invoices"`).
		WillReturnRows(sqlmock.NewRows(invoiceColumns))

	invoices, err := repo.List(context.Background(), uuid.New(), 0, 100)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newTestRepository(t)

	userID := uuid.New()
	invoiceID := uuid.New()

	mock.ExpectQuery(`INSERT INTO "invoices"(.+)RETURNING \*`).
		WillReturnRows(invoiceRow(invoiceID, userID, "INV-001", 99.90, StatusDraft))

	created, err := repo.Create(context.Background(), userID, CreateParams{
		InvoiceNumber: "INV-001",
		ClientName:    "Acme Corp",
		TotalAmount:   99.90,
	})
	require.NoError(t, err)

	assert.Equal(t, invoiceID, created.ID)
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, StatusDraft, created.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update_PartialFieldsOnly(t *testing.T) {
	repo, mock := newTestRepository(t)

	userID := uuid.New()
	invoiceID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "invoices"`).
		WillReturnRows(invoiceRow(invoiceID, userID, "INV-001", 150.50, StatusDraft))
	mock.ExpectExec(fmt.Sprintf(`UPDATE "invoices"(.+)user_id = '%s'`, userID)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	newStatus := StatusPaid
	updated, err := repo.Update(context.Background(), userID, invoiceID, UpdateParams{
		Status: &newStatus,
	})
	require.NoError(t, err)

	// Fields not present in the update keep their stored values
	assert.Equal(t, StatusPaid, updated.Status)
	assert.Equal(t, "INV-001", updated.InvoiceNumber)
	assert.Equal(t, 150.50, updated.TotalAmount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update_NotOwnedOrMissing(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM "invoices"`).
		WillReturnRows(sqlmock.NewRows(invoiceColumns))

	newStatus := StatusPaid
	_, err := repo.Update(context.Background(), uuid.New(), uuid.New(), UpdateParams{Status: &newStatus})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo, mock := newTestRepository(t)

	userID := uuid.New()
	invoiceID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "invoices"`).
		WillReturnRows(invoiceRow(invoiceID, userID, "INV-001", 150.50, StatusSent))
	mock.ExpectExec(fmt.Sprintf(`DELETE FROM "invoices"(.+)user_id = '%s'`, userID)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), userID, invoiceID)
	require.NoError(t, err)

	// The deleted record's data comes back as confirmation
	assert.Equal(t, invoiceID, deleted.ID)
	assert.Equal(t, "INV-001", deleted.InvoiceNumber)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete_NotOwnedOrMissing(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM "invoices"`).
		WillReturnRows(sqlmock.NewRows(invoiceColumns))

	_, err := repo.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
