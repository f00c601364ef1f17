package service

import (
	"context"
	"time"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/repository"
)

type RentalService interface {
	CreateRental(ctx context.Context, req *domain.RentalRequest) (*domain.Rental, error)
	Reserve(ctx context.Context, id int32) (*domain.Rental, error)
	Activate(ctx context.Context, id int32, startKm int64) (*domain.Rental, error)
	StartReturn(ctx context.Context, id int32) (*domain.Rental, error)
	Complete(ctx context.Context, id int32, actualReturnDate time.Time, endKm int64) (*domain.Rental, error)
	Cancel(ctx context.Context, id int32) (*domain.Rental, error)

	AddDriver(ctx context.Context, rentalID, driverID int32, primary bool, notes string) (*domain.Rental, error)
	RemoveDriver(ctx context.Context, rentalID, driverID int32) (*domain.Rental, error)
	SetPrimaryDriver(ctx context.Context, rentalID, driverID int32) (*domain.Rental, error)

	GetRental(ctx context.Context, id int32) (*domain.Rental, error)
	// CheckVehicleAvailability returns nil when the vehicle is free for the
	// whole period, or a *domain.RentalOverlapError.
	CheckVehicleAvailability(ctx context.Context, vehicleID int32, period domain.DateRange, excludeRentalID int32) error
	CheckDriverAvailability(ctx context.Context, driverID int32, excludeRentalID int32) error
	ListOverdue(ctx context.Context, today time.Time) ([]domain.Rental, error)
}

type LeasingService interface {
	RecordLeasingKm(ctx context.Context, rentalID int32, currentKm int64, recordDate time.Time) (*domain.LeasingKmRecord, error)
	GenerateLeasingInvoice(ctx context.Context, rentalID int32, year int, month time.Month, additionalCharges *domain.Money) (*domain.Invoice, error)
	RequestEarlyTermination(ctx context.Context, rentalID int32, terminationDate time.Time, reason string) (*domain.EarlyTermination, error)
	ApproveEarlyTermination(ctx context.Context, id int32) (*domain.EarlyTermination, *domain.Invoice, error)
	RejectEarlyTermination(ctx context.Context, id int32) (*domain.EarlyTermination, error)
	ListActiveLeases(ctx context.Context) ([]domain.Rental, error)
}

// Repositories groups the stores the services work against.
type Repositories struct {
	Tx        repository.TransactionManager
	Rentals   repository.RentalRepository
	Sequences repository.SequenceRepository
	Leasing   repository.LeasingRepository
	Invoices  repository.InvoiceRepository
	Vehicles  repository.VehicleDirectory
	Contracts repository.ContractDirectory
	Packages  repository.KmPackageRepository
	Customers repository.CustomerDirectory
}

// Options tune document numbering and the clock.
type Options struct {
	RentalNumberPrefix  string
	InvoiceNumberPrefix string
	Now                 func() time.Time
}

func (o Options) withDefaults() Options {
	if o.RentalNumberPrefix == "" {
		o.RentalNumberPrefix = "RNT"
	}
	if o.InvoiceNumberPrefix == "" {
		o.InvoiceNumberPrefix = "INV"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
