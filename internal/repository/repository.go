package repository

import (
	"context"
	"errors"
	"time"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
)

var (
	// ErrLockTimeout covers lock-wait timeouts, deadlocks and serialization
	// failures. The whole transaction may be retried.
	ErrLockTimeout = errors.New("lock not acquired")
	// ErrDuplicate is a unique constraint violation.
	ErrDuplicate = errors.New("duplicate key")
)

// TransactionManager runs fn in a transaction carried by txCtx. Repositories
// called with txCtx join it.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id int32) (*domain.Rental, error)
	// GetByIDForUpdate locks the rental row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Rental, error)
	Update(ctx context.Context, rental *domain.Rental) error
	ListNonTerminalByVehicle(ctx context.Context, vehicleID int32) ([]domain.Rental, error)
	ListNonTerminalByDriver(ctx context.Context, driverID int32) ([]domain.Rental, error)
	CountByCustomer(ctx context.Context, customerID int32, statuses []domain.RentalStatus) (int, error)
	ListActiveEndingBefore(ctx context.Context, date time.Time) ([]domain.Rental, error)
	ListActiveByType(ctx context.Context, rentalType domain.RentalType) ([]domain.Rental, error)

	// Drivers
	AddDriver(ctx context.Context, driver *domain.RentalDriver) error
	RemoveDriver(ctx context.Context, rentalID, driverID int32) error
	SetPrimaryDriver(ctx context.Context, rentalID, driverID int32) error
	ListDrivers(ctx context.Context, rentalID int32) ([]domain.RentalDriver, error)
}

// SequenceRepository hands out gap-free numbers per scope and year.
type SequenceRepository interface {
	Next(ctx context.Context, scope string, year int) (int64, error)
}

type LeasingRepository interface {
	CreateTerms(ctx context.Context, terms *domain.LeasingTerms) error
	GetTerms(ctx context.Context, rentalID int32) (*domain.LeasingTerms, error)

	// Km records are append-only.
	CreateKmRecord(ctx context.Context, record *domain.LeasingKmRecord) error
	GetKmRecord(ctx context.Context, rentalID int32, period domain.Period) (*domain.LeasingKmRecord, error)
	// LatestKmRecord returns nil when the rental has no record yet.
	LatestKmRecord(ctx context.Context, rentalID int32) (*domain.LeasingKmRecord, error)
	ListKmRecords(ctx context.Context, rentalID int32) ([]domain.LeasingKmRecord, error)

	CreateEarlyTermination(ctx context.Context, t *domain.EarlyTermination) error
	GetEarlyTerminationForUpdate(ctx context.Context, id int32) (*domain.EarlyTermination, error)
	// PendingEarlyTermination returns nil when nothing is pending.
	PendingEarlyTermination(ctx context.Context, rentalID int32) (*domain.EarlyTermination, error)
	UpdateEarlyTermination(ctx context.Context, t *domain.EarlyTermination) error
}

type InvoiceRepository interface {
	// Create reports false without error when an invoice for the same
	// rental, type and period already exists.
	Create(ctx context.Context, invoice *domain.Invoice) (bool, error)
	GetByPeriod(ctx context.Context, rentalID int32, invoiceType domain.InvoiceType, period domain.Period) (*domain.Invoice, error)
	ListByRental(ctx context.Context, rentalID int32) ([]domain.Invoice, error)
}

// Collaborators owned outside the rental core.

type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id int32) (*domain.Customer, error)
}

type VehicleDirectory interface {
	GetVehicle(ctx context.Context, id int32) (*domain.Vehicle, error)
	// LockVehicle takes a row lock on the vehicle for the rest of the
	// transaction, failing with ErrLockTimeout when it cannot be had in time.
	LockVehicle(ctx context.Context, id int32) (*domain.Vehicle, error)
	RecordOdometer(ctx context.Context, id int32, km int64) error
}

type ContractDirectory interface {
	// GetByRental returns nil when the rental has no contract.
	GetByRental(ctx context.Context, rentalID int32) (*domain.Contract, error)
}

type BranchDirectory interface {
	Exists(ctx context.Context, id int32) (bool, error)
}

type KmPackageRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.KmPackage, error)
}
