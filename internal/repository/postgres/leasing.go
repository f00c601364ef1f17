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

const (
	kmRecordColumns = `id, rental_id, period, record_date, current_km, previous_km, used_km, monthly_allowance,
	excess_km, rollover_from_previous, rollover_to_next, created_at`
	terminationColumns = `id, rental_id, status, requested_at, termination_date, reason, remaining_months, currency,
	penalty_amount, outstanding_excess_charge, total, decided_at, invoice_id`
)

type leasingRepository struct {
	db *sql.DB
}

func NewLeasingRepository(db *sql.DB) repository.LeasingRepository {
	return &leasingRepository{db: db}
}

func (r *leasingRepository) CreateTerms(ctx context.Context, t *domain.LeasingTerms) error {
	query := `INSERT INTO leasing_terms (rental_id, monthly_rent, monthly_km_allowance, extra_km_rate,
	          term_months, penalty_rate, currency) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	logger.DatabaseCall(ctx, "INSERT", "leasing_terms", "rentalID", t.RentalID)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, t.RentalID, t.MonthlyRent.Amount, t.MonthlyKmAllowance,
		t.ExtraKmRate.Amount, t.TermMonths, t.PenaltyRate, t.MonthlyRent.Currency)
	return mapError(err)
}

func (r *leasingRepository) GetTerms(ctx context.Context, rentalID int32) (*domain.LeasingTerms, error) {
	var (
		t               domain.LeasingTerms
		rent, extraRate decimal.Decimal
		currency        string
	)
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT rental_id, monthly_rent, monthly_km_allowance, extra_km_rate, term_months, penalty_rate, currency
		 FROM leasing_terms WHERE rental_id = $1`, rentalID).
		Scan(&t.RentalID, &rent, &t.MonthlyKmAllowance, &extraRate, &t.TermMonths, &t.PenaltyRate, &currency)
	if err != nil {
		return nil, notFound(err, "leasing terms", rentalID)
	}
	t.MonthlyRent = domain.NewMoney(rent, currency)
	t.ExtraKmRate = domain.NewMoney(extraRate, currency)
	return &t, nil
}

func scanKmRecord(row scanner) (*domain.LeasingKmRecord, error) {
	var rec domain.LeasingKmRecord
	err := row.Scan(&rec.ID, &rec.RentalID, &rec.Period, &rec.RecordDate, &rec.CurrentKm, &rec.PreviousKm,
		&rec.UsedKm, &rec.MonthlyAllowance, &rec.ExcessKm, &rec.RolloverFromPrevious, &rec.RolloverToNext,
		&rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateKmRecord fails with repository.ErrDuplicate when the period is already recorded.
func (r *leasingRepository) CreateKmRecord(ctx context.Context, rec *domain.LeasingKmRecord) error {
	query := `INSERT INTO leasing_km_records (rental_id, period, record_date, current_km, previous_km, used_km,
	          monthly_allowance, excess_km, rollover_from_previous, rollover_to_next, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	rec.CreatedAt = time.Now().UTC()
	logger.DatabaseCall(ctx, "INSERT", "leasing_km_records", "rentalID", rec.RentalID, "period", rec.Period)
	err := conn(ctx, r.db).QueryRowContext(ctx, query, rec.RentalID, rec.Period, rec.RecordDate, rec.CurrentKm,
		rec.PreviousKm, rec.UsedKm, rec.MonthlyAllowance, rec.ExcessKm, rec.RolloverFromPrevious,
		rec.RolloverToNext, rec.CreatedAt).Scan(&rec.ID)
	if err != nil {
		err = mapError(err)
		logger.DatabaseResult(ctx, "INSERT", 0, err)
		return err
	}
	return nil
}

func (r *leasingRepository) GetKmRecord(ctx context.Context, rentalID int32, period domain.Period) (*domain.LeasingKmRecord, error) {
	rec, err := scanKmRecord(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+kmRecordColumns+` FROM leasing_km_records WHERE rental_id = $1 AND period = $2`,
		rentalID, period))
	if err != nil {
		return nil, notFound(err, "km record", string(period))
	}
	return rec, nil
}

func (r *leasingRepository) LatestKmRecord(ctx context.Context, rentalID int32) (*domain.LeasingKmRecord, error) {
	rec, err := scanKmRecord(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+kmRecordColumns+` FROM leasing_km_records WHERE rental_id = $1 ORDER BY period DESC LIMIT 1`,
		rentalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return rec, nil
}

func (r *leasingRepository) ListKmRecords(ctx context.Context, rentalID int32) ([]domain.LeasingKmRecord, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+kmRecordColumns+` FROM leasing_km_records WHERE rental_id = $1 ORDER BY period`, rentalID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var records []domain.LeasingKmRecord
	for rows.Next() {
		rec, err := scanKmRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanTermination(row scanner) (*domain.EarlyTermination, error) {
	var (
		t                         domain.EarlyTermination
		currency                  string
		penalty, outstanding, sum decimal.Decimal
		decidedAt                 sql.NullTime
		invoiceID                 sql.NullInt32
	)
	err := row.Scan(&t.ID, &t.RentalID, &t.Status, &t.RequestedAt, &t.TerminationDate, &t.Reason,
		&t.RemainingMonths, &currency, &penalty, &outstanding, &sum, &decidedAt, &invoiceID)
	if err != nil {
		return nil, err
	}
	t.PenaltyAmount = domain.NewMoney(penalty, currency)
	t.OutstandingExcessCharge = domain.NewMoney(outstanding, currency)
	t.Total = domain.NewMoney(sum, currency)
	t.DecidedAt = timePtr(decidedAt)
	t.InvoiceID = int32Ptr(invoiceID)
	return &t, nil
}

func (r *leasingRepository) CreateEarlyTermination(ctx context.Context, t *domain.EarlyTermination) error {
	query := `INSERT INTO early_terminations (rental_id, status, requested_at, termination_date, reason,
	          remaining_months, currency, penalty_amount, outstanding_excess_charge, total)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if t.RequestedAt.IsZero() {
		t.RequestedAt = time.Now().UTC()
	}
	logger.DatabaseCall(ctx, "INSERT", "early_terminations", "rentalID", t.RentalID)
	err := conn(ctx, r.db).QueryRowContext(ctx, query, t.RentalID, t.Status, t.RequestedAt, t.TerminationDate,
		t.Reason, t.RemainingMonths, t.Total.Currency, t.PenaltyAmount.Amount, t.OutstandingExcessCharge.Amount,
		t.Total.Amount).Scan(&t.ID)
	return mapError(err)
}

func (r *leasingRepository) GetEarlyTerminationForUpdate(ctx context.Context, id int32) (*domain.EarlyTermination, error) {
	t, err := scanTermination(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+terminationColumns+` FROM early_terminations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "early termination", id)
	}
	return t, nil
}

func (r *leasingRepository) PendingEarlyTermination(ctx context.Context, rentalID int32) (*domain.EarlyTermination, error) {
	t, err := scanTermination(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+terminationColumns+` FROM early_terminations WHERE rental_id = $1 AND status = $2`,
		rentalID, domain.EarlyTerminationPending))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (r *leasingRepository) UpdateEarlyTermination(ctx context.Context, t *domain.EarlyTermination) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE early_terminations SET status = $1, decided_at = $2, invoice_id = $3 WHERE id = $4`,
		t.Status, nullTime(t.DecidedAt), nullInt32(t.InvoiceID), t.ID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("early termination", t.ID)
	}
	return nil
}
