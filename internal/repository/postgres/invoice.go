package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
	"github.com/osmanasaf/reindecar-sub001/internal/repository"
)

const invoiceColumns = `id, invoice_number, rental_id, invoice_type, period, currency, monthly_rent, excess_km,
	excess_km_charge, additional_charges, penalty_amount, total, issued_at`

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func scanInvoice(row scanner) (*domain.Invoice, error) {
	var (
		inv                                    domain.Invoice
		rent, excess, additional, penalty, sum decimal.Decimal
	)
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.RentalID, &inv.Type, &inv.Period, &inv.Currency,
		&rent, &inv.ExcessKm, &excess, &additional, &penalty, &sum, &inv.IssuedAt)
	if err != nil {
		return nil, err
	}
	inv.MonthlyRent = domain.NewMoney(rent, inv.Currency)
	inv.ExcessKmCharge = domain.NewMoney(excess, inv.Currency)
	inv.AdditionalCharges = domain.NewMoney(additional, inv.Currency)
	inv.PenaltyAmount = domain.NewMoney(penalty, inv.Currency)
	inv.Total = domain.NewMoney(sum, inv.Currency)
	return &inv, nil
}

// Create relies on the (rental_id, invoice_type, period) unique key so that a
// retried batch never issues the same invoice twice.
func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) (bool, error) {
	query := `INSERT INTO invoices (invoice_number, rental_id, invoice_type, period, currency, monthly_rent,
	          excess_km, excess_km_charge, additional_charges, penalty_amount, total, issued_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          ON CONFLICT (rental_id, invoice_type, period) DO NOTHING
	          RETURNING id`
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = time.Now().UTC()
	}
	logger.DatabaseCall(ctx, "INSERT", "invoices", "rentalID", inv.RentalID, "type", inv.Type, "period", inv.Period)
	err := conn(ctx, r.db).QueryRowContext(ctx, query, inv.InvoiceNumber, inv.RentalID, inv.Type, inv.Period,
		inv.Currency, inv.MonthlyRent.Amount, inv.ExcessKm, inv.ExcessKmCharge.Amount, inv.AdditionalCharges.Amount,
		inv.PenaltyAmount.Amount, inv.Total.Amount, inv.IssuedAt).Scan(&inv.ID)
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult(ctx, "INSERT", 0, nil, "conflict", true)
		return false, nil
	}
	if err != nil {
		err = mapError(err)
		logger.DatabaseResult(ctx, "INSERT", 0, err)
		return false, err
	}
	logger.DatabaseResult(ctx, "INSERT", 1, nil)
	return true, nil
}

func (r *invoiceRepository) GetByPeriod(ctx context.Context, rentalID int32, invoiceType domain.InvoiceType, period domain.Period) (*domain.Invoice, error) {
	inv, err := scanInvoice(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE rental_id = $1 AND invoice_type = $2 AND period = $3`,
		rentalID, invoiceType, period))
	if err != nil {
		return nil, notFound(err, "invoice", string(period))
	}
	return inv, nil
}

func (r *invoiceRepository) ListByRental(ctx context.Context, rentalID int32) ([]domain.Invoice, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE rental_id = $1 ORDER BY period, id`, rentalID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}
