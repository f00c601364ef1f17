package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
	"github.com/osmanasaf/reindecar-sub001/internal/repository"
)

const rentalColumns = `id, rental_number, rental_type, status, vehicle_id, customer_id, primary_driver_id,
	pickup_branch_id, return_branch_id, start_date, end_date, actual_return_date, start_km, end_km,
	km_package_id, currency, daily_price, weekly_price, monthly_price, discount, total_price,
	extra_km_charge, grand_total, notes, activated_at, return_started_at, closed_at, cancelled_at,
	created_at, updated_at`

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

func scanRental(row scanner) (*domain.Rental, error) {
	var (
		rt                                      domain.Rental
		actualReturn                            sql.NullTime
		startKm, endKm                          sql.NullInt64
		kmPackageID                             sql.NullInt32
		daily, discount                         decimal.Decimal
		weekly, monthly, total, extraKm, grand  decimal.NullDecimal
		activatedAt, returnStarted, closed, cxl sql.NullTime
	)
	err := row.Scan(&rt.ID, &rt.RentalNumber, &rt.Type, &rt.Status, &rt.VehicleID, &rt.CustomerID, &rt.PrimaryDriverID,
		&rt.PickupBranchID, &rt.ReturnBranchID, &rt.StartDate, &rt.EndDate, &actualReturn, &startKm, &endKm,
		&kmPackageID, &rt.Currency, &daily, &weekly, &monthly, &discount, &total,
		&extraKm, &grand, &rt.Notes, &activatedAt, &returnStarted, &closed, &cxl,
		&rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rt.ActualReturnDate = timePtr(actualReturn)
	rt.StartKm = int64Ptr(startKm)
	rt.EndKm = int64Ptr(endKm)
	rt.KmPackageID = int32Ptr(kmPackageID)
	rt.DailyPrice = domain.NewMoney(daily, rt.Currency)
	rt.WeeklyPrice = moneyPtr(weekly, rt.Currency)
	rt.MonthlyPrice = moneyPtr(monthly, rt.Currency)
	rt.Discount = domain.NewMoney(discount, rt.Currency)
	rt.TotalPrice = moneyPtr(total, rt.Currency)
	rt.ExtraKmCharge = moneyPtr(extraKm, rt.Currency)
	rt.GrandTotal = moneyPtr(grand, rt.Currency)
	rt.ActivatedAt = timePtr(activatedAt)
	rt.ReturnStartedAt = timePtr(returnStarted)
	rt.ClosedAt = timePtr(closed)
	rt.CancelledAt = timePtr(cxl)
	return &rt, nil
}

func (r *rentalRepository) queryRentals(ctx context.Context, query string, args ...any) ([]domain.Rental, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, rows.Err()
}

// Create inserts the rental and its drivers.
func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod(ctx, "rentalRepository.Create", "rentalNumber", rt.RentalNumber)

	query := `INSERT INTO rentals (rental_number, rental_type, status, vehicle_id, customer_id, primary_driver_id,
	          pickup_branch_id, return_branch_id, start_date, end_date, km_package_id, currency, daily_price,
	          weekly_price, monthly_price, discount, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
	          RETURNING id`
	now := time.Now().UTC()
	logger.DatabaseCall(ctx, "INSERT", "rentals")
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		rt.RentalNumber, rt.Type, rt.Status, rt.VehicleID, rt.CustomerID, rt.PrimaryDriverID,
		rt.PickupBranchID, rt.ReturnBranchID, rt.StartDate, rt.EndDate, nullInt32(rt.KmPackageID), rt.Currency,
		rt.DailyPrice.Amount, nullAmount(rt.WeeklyPrice), nullAmount(rt.MonthlyPrice), rt.Discount.Amount,
		rt.Notes, now).Scan(&rt.ID)
	if err != nil {
		err = mapError(err)
		logger.DatabaseResult(ctx, "INSERT", 0, err)
		return err
	}
	rt.CreatedAt, rt.UpdatedAt = now, now

	for i := range rt.Drivers {
		rt.Drivers[i].RentalID = rt.ID
		if err := r.AddDriver(ctx, &rt.Drivers[i]); err != nil {
			return err
		}
	}

	logger.ExitMethod(ctx, "rentalRepository.Create", "rentalID", rt.ID)
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id int32) (*domain.Rental, error) {
	return r.get(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1`, id)
}

func (r *rentalRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Rental, error) {
	return r.get(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1 FOR UPDATE`, id)
}

func (r *rentalRepository) get(ctx context.Context, query string, id int32) (*domain.Rental, error) {
	rt, err := scanRental(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "rental", id)
	}
	if rt.Drivers, err = r.ListDrivers(ctx, id); err != nil {
		return nil, err
	}
	return rt, nil
}

// Update persists the mutable lifecycle fields. Identity, vehicle, customer
// and the price snapshot never change after creation.
func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental) error {
	query := `UPDATE rentals SET status = $1, primary_driver_id = $2, actual_return_date = $3, start_km = $4,
	          end_km = $5, total_price = $6, extra_km_charge = $7, grand_total = $8, notes = $9,
	          activated_at = $10, return_started_at = $11, closed_at = $12, cancelled_at = $13, updated_at = $14
	          WHERE id = $15`
	rt.UpdatedAt = time.Now().UTC()
	logger.DatabaseCall(ctx, "UPDATE", "rentals", "rentalID", rt.ID, "status", rt.Status)
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		rt.Status, rt.PrimaryDriverID, nullTime(rt.ActualReturnDate), nullInt64(rt.StartKm),
		nullInt64(rt.EndKm), nullAmount(rt.TotalPrice), nullAmount(rt.ExtraKmCharge), nullAmount(rt.GrandTotal), rt.Notes,
		nullTime(rt.ActivatedAt), nullTime(rt.ReturnStartedAt), nullTime(rt.ClosedAt), nullTime(rt.CancelledAt), rt.UpdatedAt,
		rt.ID)
	if err != nil {
		err = mapError(err)
		logger.DatabaseResult(ctx, "UPDATE", 0, err)
		return err
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult(ctx, "UPDATE", n, nil)
	if n == 0 {
		return domain.NotFound("rental", rt.ID)
	}
	return nil
}

func (r *rentalRepository) ListNonTerminalByVehicle(ctx context.Context, vehicleID int32) ([]domain.Rental, error) {
	return r.queryRentals(ctx, `SELECT `+rentalColumns+` FROM rentals
		WHERE vehicle_id = $1 AND status = ANY($2) ORDER BY start_date`,
		vehicleID, statusArray(domain.NonTerminalStatuses))
}

func (r *rentalRepository) ListNonTerminalByDriver(ctx context.Context, driverID int32) ([]domain.Rental, error) {
	return r.queryRentals(ctx, `SELECT `+rentalColumns+` FROM rentals r
		WHERE r.status = ANY($2)
		AND (r.primary_driver_id = $1 OR EXISTS (
			SELECT 1 FROM rental_drivers d WHERE d.rental_id = r.id AND d.driver_id = $1))
		ORDER BY r.start_date`,
		driverID, statusArray(domain.NonTerminalStatuses))
}

func (r *rentalRepository) CountByCustomer(ctx context.Context, customerID int32, statuses []domain.RentalStatus) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT count(*) FROM rentals WHERE customer_id = $1 AND status = ANY($2)`,
		customerID, statusArray(statuses)).Scan(&n)
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

// ListActiveEndingBefore returns the rentals that are overdue on date.
func (r *rentalRepository) ListActiveEndingBefore(ctx context.Context, date time.Time) ([]domain.Rental, error) {
	return r.queryRentals(ctx, `SELECT `+rentalColumns+` FROM rentals
		WHERE status = $1 AND end_date < $2 ORDER BY end_date`,
		domain.RentalStatusActive, domain.DateOnly(date))
}

func (r *rentalRepository) ListActiveByType(ctx context.Context, rentalType domain.RentalType) ([]domain.Rental, error) {
	return r.queryRentals(ctx, `SELECT `+rentalColumns+` FROM rentals
		WHERE status = $1 AND rental_type = $2 ORDER BY id`,
		domain.RentalStatusActive, rentalType)
}

func (r *rentalRepository) AddDriver(ctx context.Context, d *domain.RentalDriver) error {
	if d.AddedAt.IsZero() {
		d.AddedAt = time.Now().UTC()
	}
	query := `INSERT INTO rental_drivers (rental_id, driver_id, is_primary, added_at, added_by, notes)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	logger.DatabaseCall(ctx, "INSERT", "rental_drivers", "rentalID", d.RentalID, "driverID", d.DriverID)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, d.RentalID, d.DriverID, d.Primary, d.AddedAt, d.AddedBy, d.Notes)
	if err != nil {
		err = mapError(err)
		logger.DatabaseResult(ctx, "INSERT", 0, err)
		return err
	}
	return nil
}

// RemoveDriver never removes the primary driver.
func (r *rentalRepository) RemoveDriver(ctx context.Context, rentalID, driverID int32) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM rental_drivers WHERE rental_id = $1 AND driver_id = $2 AND NOT is_primary`,
		rentalID, driverID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("rental driver", driverID)
	}
	return nil
}

// SetPrimaryDriver clears the old flag before setting the new one, since the
// partial unique index is checked row by row.
func (r *rentalRepository) SetPrimaryDriver(ctx context.Context, rentalID, driverID int32) error {
	q := conn(ctx, r.db)
	if _, err := q.ExecContext(ctx,
		`UPDATE rental_drivers SET is_primary = FALSE WHERE rental_id = $1 AND is_primary`, rentalID); err != nil {
		return mapError(err)
	}
	res, err := q.ExecContext(ctx,
		`UPDATE rental_drivers SET is_primary = TRUE WHERE rental_id = $1 AND driver_id = $2`, rentalID, driverID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("rental driver", driverID)
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE rentals SET primary_driver_id = $1, updated_at = $2 WHERE id = $3`,
		driverID, time.Now().UTC(), rentalID); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *rentalRepository) ListDrivers(ctx context.Context, rentalID int32) ([]domain.RentalDriver, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT rental_id, driver_id, is_primary, added_at, added_by, notes
		 FROM rental_drivers WHERE rental_id = $1 ORDER BY is_primary DESC, added_at`, rentalID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var drivers []domain.RentalDriver
	for rows.Next() {
		var d domain.RentalDriver
		if err := rows.Scan(&d.RentalID, &d.DriverID, &d.Primary, &d.AddedAt, &d.AddedBy, &d.Notes); err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}
