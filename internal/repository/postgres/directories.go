package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
	"github.com/osmanasaf/reindecar-sub001/internal/repository"
)

type customerDirectory struct {
	db *sql.DB
}

func NewCustomerDirectory(db *sql.DB) repository.CustomerDirectory {
	return &customerDirectory{db: db}
}

func (r *customerDirectory) GetCustomer(ctx context.Context, id int32) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, customer_type, name, blacklisted FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Type, &c.Name, &c.Blacklisted)
	if err != nil {
		return nil, notFound(err, "customer", id)
	}
	return c, nil
}

type vehicleDirectory struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewVehicleDirectory builds the vehicle store. lockTimeout bounds how long
// LockVehicle waits for a concurrent booking.
func NewVehicleDirectory(db *sql.DB, lockTimeout time.Duration) repository.VehicleDirectory {
	return &vehicleDirectory{db: db, lockTimeout: lockTimeout}
}

const vehicleQuery = `SELECT id, plate, branch_id, last_odometer_km, active FROM vehicles WHERE id = $1`

func (r *vehicleDirectory) scan(ctx context.Context, q querier, query string, id int32) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	err := q.QueryRowContext(ctx, query, id).Scan(&v.ID, &v.Plate, &v.BranchID, &v.LastOdometerKm, &v.Active)
	if err != nil {
		return nil, notFound(err, "vehicle", id)
	}
	return v, nil
}

func (r *vehicleDirectory) GetVehicle(ctx context.Context, id int32) (*domain.Vehicle, error) {
	return r.scan(ctx, conn(ctx, r.db), vehicleQuery, id)
}

func (r *vehicleDirectory) LockVehicle(ctx context.Context, id int32) (*domain.Vehicle, error) {
	if !inTx(ctx) {
		return nil, errors.New("LockVehicle must run inside a transaction")
	}
	q := conn(ctx, r.db)
	if r.lockTimeout > 0 {
		// SET does not take bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return nil, mapError(err)
		}
	}
	logger.DatabaseCall(ctx, "SELECT FOR UPDATE", "vehicles", "vehicleID", id)
	v, err := r.scan(ctx, q, vehicleQuery+" FOR UPDATE", id)
	if err != nil {
		logger.DatabaseResult(ctx, "SELECT FOR UPDATE", 0, err)
		return nil, err
	}
	return v, nil
}

// RecordOdometer only moves the odometer forward.
func (r *vehicleDirectory) RecordOdometer(ctx context.Context, id int32, km int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE vehicles SET last_odometer_km = GREATEST(last_odometer_km, $1) WHERE id = $2`, km, id)
	return mapError(err)
}

type contractDirectory struct {
	db *sql.DB
}

func NewContractDirectory(db *sql.DB) repository.ContractDirectory {
	return &contractDirectory{db: db}
}

func (r *contractDirectory) GetByRental(ctx context.Context, rentalID int32) (*domain.Contract, error) {
	var (
		c        domain.Contract
		signedAt sql.NullTime
	)
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, rental_id, status, signed_at FROM contracts WHERE rental_id = $1`, rentalID).
		Scan(&c.ID, &c.RentalID, &c.Status, &signedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	c.SignedAt = timePtr(signedAt)
	return &c, nil
}

type branchDirectory struct {
	db *sql.DB
}

func NewBranchDirectory(db *sql.DB) repository.BranchDirectory {
	return &branchDirectory{db: db}
}

func (r *branchDirectory) Exists(ctx context.Context, id int32) (bool, error) {
	var ok bool
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM branches WHERE id = $1 AND active)`, id).Scan(&ok)
	if err != nil {
		return false, mapError(err)
	}
	return ok, nil
}

type kmPackageRepository struct {
	db *sql.DB
}

func NewKmPackageRepository(db *sql.DB) repository.KmPackageRepository {
	return &kmPackageRepository{db: db}
}

func (r *kmPackageRepository) GetByID(ctx context.Context, id int32) (*domain.KmPackage, error) {
	var (
		p        domain.KmPackage
		price    decimal.Decimal
		currency string
	)
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name, included_km, extra_km_price, currency, unlimited FROM km_packages WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.IncludedKm, &price, &currency, &p.Unlimited)
	if err != nil {
		return nil, notFound(err, "km package", id)
	}
	p.ExtraKmPrice = domain.NewMoney(price, currency)
	return &p, nil
}
