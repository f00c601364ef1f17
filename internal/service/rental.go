package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/osmanasaf/reindecar-sub001/internal/availability"
	"github.com/osmanasaf/reindecar-sub001/internal/billing"
	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
	"github.com/osmanasaf/reindecar-sub001/internal/repository"
	"github.com/osmanasaf/reindecar-sub001/internal/validation"
)

// lockAttempts is how many times a booking tries to take the vehicle lock.
const lockAttempts = 2

type rentalService struct {
	repos    Repositories
	checker  *availability.Checker
	pipeline *validation.Pipeline
	limit    *validation.PersonalCustomerLimitRule
	opts     Options
}

func NewRentalService(repos Repositories, pipeline *validation.Pipeline, opts Options) RentalService {
	return &rentalService{
		repos:    repos,
		checker:  availability.NewChecker(repos.Rentals),
		pipeline: pipeline,
		limit:    validation.NewPersonalCustomerLimitRule(repos.Customers, repos.Rentals),
		opts:     opts.withDefaults(),
	}
}

func (s *rentalService) now() time.Time {
	return s.opts.Now().UTC()
}

func (s *rentalService) today() time.Time {
	return domain.DateOnly(s.now())
}

// withVehicleLock runs fn in a transaction holding the vehicle row lock. A
// lock timeout is retried once; the second one is reported as a booking
// conflict.
func (s *rentalService) withVehicleLock(ctx context.Context, vehicleID int32, fn func(txCtx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			if _, err := s.repos.Vehicles.LockVehicle(txCtx, vehicleID); err != nil {
				return err
			}
			return fn(txCtx)
		})
		if !errors.Is(err, repository.ErrLockTimeout) {
			return err
		}
		if attempt >= lockAttempts {
			return fmt.Errorf("%w: vehicle %d", domain.ErrBookingConflict, vehicleID)
		}
		logger.WarnContext(ctx, "Vehicle lock not acquired, retrying", "vehicleID", vehicleID, "attempt", attempt)
	}
}

// withRental loads the rental under a row lock and runs fn in the same
// transaction. fn is responsible for persisting its changes.
func (s *rentalService) withRental(ctx context.Context, id int32, fn func(txCtx context.Context, r *domain.Rental) error) (*domain.Rental, error) {
	var rental *domain.Rental
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.repos.Rentals.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := fn(txCtx, r); err != nil {
			return err
		}
		rental = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *rentalService) CreateRental(ctx context.Context, req *domain.RentalRequest) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "rentalService.CreateRental", "vehicleID", req.VehicleID, "customerID", req.CustomerID, "type", req.Type)

	if err := req.Validate(); err != nil {
		logger.ExitMethodWithError(ctx, "rentalService.CreateRental", err, "vehicleID", req.VehicleID)
		return nil, err
	}

	var rental *domain.Rental
	err := s.withVehicleLock(ctx, req.VehicleID, func(txCtx context.Context) error {
		if err := s.pipeline.Validate(txCtx, req); err != nil {
			return err
		}
		r, err := s.insertRental(txCtx, req)
		if err != nil {
			return err
		}
		rental = r
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "rentalService.CreateRental", err, "vehicleID", req.VehicleID)
		return nil, err
	}

	logger.ExitMethod(ctx, "rentalService.CreateRental", "rentalID", rental.ID, "rentalNumber", rental.RentalNumber)
	return rental, nil
}

func (s *rentalService) insertRental(ctx context.Context, req *domain.RentalRequest) (*domain.Rental, error) {
	now := s.now()
	number, err := nextNumber(ctx, s.repos.Sequences, rentalSequence, s.opts.RentalNumberPrefix, now)
	if err != nil {
		return nil, err
	}

	currency := req.DailyPrice.Currency
	discount := domain.Zero(currency)
	if req.Discount != nil {
		discount = *req.Discount
	}

	rental := &domain.Rental{
		RentalNumber:    number,
		Type:            req.Type,
		Status:          domain.RentalStatusDraft,
		VehicleID:       req.VehicleID,
		CustomerID:      req.CustomerID,
		PrimaryDriverID: req.PrimaryDriverID,
		PickupBranchID:  req.PickupBranchID,
		ReturnBranchID:  req.ReturnBranchID,
		StartDate:       domain.DateOnly(req.StartDate),
		EndDate:         domain.DateOnly(req.EndDate),
		KmPackageID:     req.KmPackageID,
		DailyPrice:      req.DailyPrice,
		WeeklyPrice:     req.WeeklyPrice,
		MonthlyPrice:    req.MonthlyPrice,
		Discount:        discount,
		Currency:        currency,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	actor := ActorFrom(ctx)
	for _, driverID := range req.DriverIDs() {
		rental.Drivers = append(rental.Drivers, domain.RentalDriver{
			DriverID: driverID,
			Primary:  driverID == req.PrimaryDriverID,
			AddedAt:  now,
			AddedBy:  actor,
		})
	}

	if err := s.repos.Rentals.Create(ctx, rental); err != nil {
		return nil, err
	}

	if req.Type == domain.RentalTypeLeasing {
		terms := *req.Leasing
		terms.RentalID = rental.ID
		if err := s.repos.Leasing.CreateTerms(ctx, &terms); err != nil {
			return nil, err
		}
	}
	return rental, nil
}

// Reserve confirms a draft. The vehicle and the customer's open rentals are
// checked again under the vehicle lock since both may have changed after the
// draft.
func (s *rentalService) Reserve(ctx context.Context, id int32) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "rentalService.Reserve", "rentalID", id)

	current, err := s.repos.Rentals.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError(ctx, "rentalService.Reserve", err, "rentalID", id)
		return nil, err
	}

	var rental *domain.Rental
	err = s.withVehicleLock(ctx, current.VehicleID, func(txCtx context.Context) error {
		r, err := s.repos.Rentals.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := r.TransitionTo(domain.RentalStatusReserved, s.today()); err != nil {
			return err
		}
		if err := s.checker.VehicleAvailable(txCtx, r.VehicleID, r.Period(), r.ID); err != nil {
			return err
		}
		if err := s.limit.Check(txCtx, r.CustomerID); err != nil {
			return err
		}
		r.UpdatedAt = s.now()
		if err := s.repos.Rentals.Update(txCtx, r); err != nil {
			return err
		}
		rental = r
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "rentalService.Reserve", err, "rentalID", id)
		return nil, err
	}

	logger.ExitMethod(ctx, "rentalService.Reserve", "rentalID", id)
	return rental, nil
}

func (s *rentalService) Activate(ctx context.Context, id int32, startKm int64) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "rentalService.Activate", "rentalID", id, "startKm", startKm)

	if startKm < 0 {
		err := domain.InvalidInput("start km cannot be negative")
		logger.ExitMethodWithError(ctx, "rentalService.Activate", err, "rentalID", id)
		return nil, err
	}

	rental, err := s.withRental(ctx, id, func(txCtx context.Context, r *domain.Rental) error {
		if err := r.TransitionTo(domain.RentalStatusActive, s.today()); err != nil {
			return err
		}

		vehicle, err := s.repos.Vehicles.GetVehicle(txCtx, r.VehicleID)
		if err != nil {
			return err
		}
		if startKm < vehicle.LastOdometerKm {
			return domain.InvalidInput("start km %d is below the last recorded odometer %d of vehicle %d",
				startKm, vehicle.LastOdometerKm, vehicle.ID)
		}

		contract, err := s.repos.Contracts.GetByRental(txCtx, r.ID)
		if err != nil {
			return err
		}
		if contract == nil || !contract.IsSigned() {
			return fmt.Errorf("%w: rental %d has no signed contract", domain.ErrBusinessRuleViolation, r.ID)
		}

		now := s.now()
		r.StartKm = &startKm
		r.ActivatedAt = &now
		r.UpdatedAt = now
		return s.repos.Rentals.Update(txCtx, r)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "rentalService.Activate", err, "rentalID", id)
		return nil, err
	}

	logger.ExitMethod(ctx, "rentalService.Activate", "rentalID", id)
	return rental, nil
}

func (s *rentalService) StartReturn(ctx context.Context, id int32) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "rentalService.StartReturn", "rentalID", id)

	rental, err := s.withRental(ctx, id, func(txCtx context.Context, r *domain.Rental) error {
		if err := r.TransitionTo(domain.RentalStatusReturnPending, s.today()); err != nil {
			return err
		}
		now := s.now()
		r.ReturnStartedAt = &now
		r.UpdatedAt = now
		return s.repos.Rentals.Update(txCtx, r)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "rentalService.StartReturn", err, "rentalID", id)
		return nil, err
	}

	logger.ExitMethod(ctx, "rentalService.StartReturn", "rentalID", id)
	return rental, nil
}

// Complete closes a returned rental and fixes its charges. Term rentals are
// priced by the billing engine; a lease bills its last months and totals its
// invoices.
func (s *rentalService) Complete(ctx context.Context, id int32, actualReturnDate time.Time, endKm int64) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "rentalService.Complete", "rentalID", id, "endKm", endKm)

	rental, err := s.withRental(ctx, id, func(txCtx context.Context, r *domain.Rental) error {
		if err := r.TransitionTo(domain.RentalStatusClosed, s.today()); err != nil {
			return err
		}

		returned := domain.DateOnly(actualReturnDate)
		if returned.Before(domain.DateOnly(r.StartDate)) {
			return domain.InvalidInput("return date %s is before the start date", returned.Format(domain.DateLayout))
		}
		if r.StartKm == nil {
			return fmt.Errorf("%w: rental %d was never given a start km", domain.ErrMissingBillingInput, r.ID)
		}
		if endKm < *r.StartKm {
			return domain.InvalidInput("end km %d is below start km %d", endKm, *r.StartKm)
		}
		r.ActualReturnDate = &returned
		r.EndKm = &endKm

		var err error
		if r.IsLeasing() {
			err = s.closeLease(txCtx, r, returned, endKm)
		} else {
			err = s.applyTermCharges(txCtx, r)
		}
		if err != nil {
			return err
		}

		if err := s.repos.Vehicles.RecordOdometer(txCtx, r.VehicleID, endKm); err != nil {
			return err
		}

		now := s.now()
		r.ClosedAt = &now
		r.UpdatedAt = now
		return s.repos.Rentals.Update(txCtx, r)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "rentalService.Complete", err, "rentalID", id)
		return nil, err
	}

	logger.ExitMethod(ctx, "rentalService.Complete", "rentalID", id, "grandTotal", rental.GrandTotal)
	return rental, nil
}

func (s *rentalService) applyTermCharges(ctx context.Context, r *domain.Rental) error {
	var pkg *domain.KmPackage
	if r.KmPackageID != nil {
		p, err := s.repos.Packages.GetByID(ctx, *r.KmPackageID)
		if err != nil {
			return err
		}
		pkg = p
	}

	charges, err := billing.TermCharges(r, pkg)
	if err != nil {
		return err
	}
	r.TotalPrice = &charges.TotalPrice
	r.ExtraKmCharge = &charges.ExtraKmCharge
	r.GrandTotal = &charges.GrandTotal
	return nil
}

// closeLease takes the closing odometer reading as the km record of the
// return month and invoices every recorded month that has no invoice yet.
// When the return month already has a reading, the km driven since then are
// charged against the rollover it left. The lease total is the sum of its
// invoices.
func (s *rentalService) closeLease(ctx context.Context, r *domain.Rental, returned time.Time, endKm int64) error {
	terms, err := s.repos.Leasing.GetTerms(ctx, r.ID)
	if err != nil {
		return err
	}
	latest, err := s.repos.Leasing.LatestKmRecord(ctx, r.ID)
	if err != nil {
		return err
	}

	extra := domain.Zero(r.Currency)
	period := domain.PeriodOf(returned)
	if latest == nil || latest.Period < period {
		rec, err := billing.NewKmRecord(r.ID, period, returned, endKm, terms, latest, *r.StartKm)
		if err != nil {
			return err
		}
		if err := s.repos.Leasing.CreateKmRecord(ctx, rec); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("%w: lease %d period %s", domain.ErrDuplicateKmRecord, r.ID, period)
			}
			return err
		}
	} else {
		usage, err := billing.ComputeKmUsage(latest.CurrentKm, endKm, 0, latest.RolloverToNext)
		if err != nil {
			return err
		}
		extra = terms.ExtraKmRate.MulInt(usage.ExcessKm).ClampZero()
	}

	open, err := uninvoicedKmRecords(ctx, s.repos, r.ID)
	if err != nil {
		return err
	}
	now := s.now()
	for i := range open {
		inv, created, err := issueMonthlyInvoice(ctx, s.repos, s.opts.InvoiceNumberPrefix, now, r, terms, &open[i], nil)
		if err != nil {
			return err
		}
		if created {
			logger.InfoContext(ctx, "Closing invoice issued", "rentalID", r.ID, "period", inv.Period, "invoiceNumber", inv.InvoiceNumber)
		}
	}

	invoices, err := s.repos.Invoices.ListByRental(ctx, r.ID)
	if err != nil {
		return err
	}
	total, err := billing.LeaseTotal(invoices, r.Currency)
	if err != nil {
		return err
	}
	grand, err := total.Add(extra)
	if err != nil {
		return err
	}
	r.TotalPrice = &total
	r.ExtraKmCharge = &extra
	r.GrandTotal = &grand
	return nil
}

func (s *rentalService) Cancel(ctx context.Context, id int32) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "rentalService.Cancel", "rentalID", id)

	rental, err := s.withRental(ctx, id, func(txCtx context.Context, r *domain.Rental) error {
		if err := r.TransitionTo(domain.RentalStatusCancelled, s.today()); err != nil {
			return err
		}
		now := s.now()
		r.CancelledAt = &now
		r.UpdatedAt = now
		return s.repos.Rentals.Update(txCtx, r)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "rentalService.Cancel", err, "rentalID", id)
		return nil, err
	}

	logger.ExitMethod(ctx, "rentalService.Cancel", "rentalID", id)
	return rental, nil
}

func (s *rentalService) ensureDriversEditable(r *domain.Rental) error {
	if status := r.EffectiveStatus(s.today()); !status.AllowsDriverChanges() {
		return domain.InvalidOperation("drivers of rental %d cannot change while it is %s", r.ID, status)
	}
	return nil
}

func (s *rentalService) AddDriver(ctx context.Context, rentalID, driverID int32, primary bool, notes string) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "rentalService.AddDriver", "rentalID", rentalID, "driverID", driverID, "primary", primary)

	if driverID <= 0 {
		err := domain.InvalidInput("invalid driver id %d", driverID)
		logger.ExitMethodWithError(ctx, "rentalService.AddDriver", err, "rentalID", rentalID)
		return nil, err
	}

	rental, err := s.withRental(ctx, rentalID, func(txCtx context.Context, r *domain.Rental) error {
		if err := s.ensureDriversEditable(r); err != nil {
			return err
		}
		if r.HasDriver(driverID) {
			return domain.InvalidOperation("driver %d is already on rental %d", driverID, r.ID)
		}
		if err := s.checker.DriverAvailable(txCtx, driverID, r.ID); err != nil {
			return err
		}

		d := &domain.RentalDriver{
			RentalID: r.ID,
			DriverID: driverID,
			AddedAt:  s.now(),
			AddedBy:  ActorFrom(ctx),
			Notes:    notes,
		}
		if err := s.repos.Rentals.AddDriver(txCtx, d); err != nil {
			return err
		}
		if primary {
			if err := s.repos.Rentals.SetPrimaryDriver(txCtx, r.ID, driverID); err != nil {
				return err
			}
			r.PrimaryDriverID = driverID
		}
		return s.reloadDrivers(txCtx, r)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "rentalService.AddDriver", err, "rentalID", rentalID, "driverID", driverID)
		return nil, err
	}

	logger.ExitMethod(ctx, "rentalService.AddDriver", "rentalID", rentalID, "driverCount", len(rental.Drivers))
	return rental, nil
}

// RemoveDriver drops an additional driver. The primary driver has to be
// replaced with SetPrimaryDriver first.
func (s *rentalService) RemoveDriver(ctx context.Context, rentalID, driverID int32) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "rentalService.RemoveDriver", "rentalID", rentalID, "driverID", driverID)

	rental, err := s.withRental(ctx, rentalID, func(txCtx context.Context, r *domain.Rental) error {
		if err := s.ensureDriversEditable(r); err != nil {
			return err
		}
		if !r.HasDriver(driverID) {
			return domain.NotFound("rental driver", driverID)
		}
		if driverID == r.PrimaryDriverID {
			return domain.InvalidOperation("driver %d is the primary driver of rental %d", driverID, r.ID)
		}
		if err := s.repos.Rentals.RemoveDriver(txCtx, r.ID, driverID); err != nil {
			return err
		}
		return s.reloadDrivers(txCtx, r)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "rentalService.RemoveDriver", err, "rentalID", rentalID, "driverID", driverID)
		return nil, err
	}

	logger.ExitMethod(ctx, "rentalService.RemoveDriver", "rentalID", rentalID, "driverCount", len(rental.Drivers))
	return rental, nil
}

func (s *rentalService) SetPrimaryDriver(ctx context.Context, rentalID, driverID int32) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "rentalService.SetPrimaryDriver", "rentalID", rentalID, "driverID", driverID)

	rental, err := s.withRental(ctx, rentalID, func(txCtx context.Context, r *domain.Rental) error {
		if err := s.ensureDriversEditable(r); err != nil {
			return err
		}
		if !r.HasDriver(driverID) {
			return domain.NotFound("rental driver", driverID)
		}
		if driverID == r.PrimaryDriverID {
			return nil
		}
		if err := s.repos.Rentals.SetPrimaryDriver(txCtx, r.ID, driverID); err != nil {
			return err
		}
		r.PrimaryDriverID = driverID
		return s.reloadDrivers(txCtx, r)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "rentalService.SetPrimaryDriver", err, "rentalID", rentalID, "driverID", driverID)
		return nil, err
	}

	logger.ExitMethod(ctx, "rentalService.SetPrimaryDriver", "rentalID", rentalID)
	return rental, nil
}

func (s *rentalService) reloadDrivers(ctx context.Context, r *domain.Rental) error {
	drivers, err := s.repos.Rentals.ListDrivers(ctx, r.ID)
	if err != nil {
		return err
	}
	r.Drivers = drivers
	return nil
}

func (s *rentalService) GetRental(ctx context.Context, id int32) (*domain.Rental, error) {
	return s.repos.Rentals.GetByID(ctx, id)
}

func (s *rentalService) CheckVehicleAvailability(ctx context.Context, vehicleID int32, period domain.DateRange, excludeRentalID int32) error {
	if err := period.Validate(); err != nil {
		return err
	}
	return s.checker.VehicleAvailable(ctx, vehicleID, period, excludeRentalID)
}

func (s *rentalService) CheckDriverAvailability(ctx context.Context, driverID int32, excludeRentalID int32) error {
	return s.checker.DriverAvailable(ctx, driverID, excludeRentalID)
}

// ListOverdue returns the active rentals whose end date lies before today.
func (s *rentalService) ListOverdue(ctx context.Context, today time.Time) ([]domain.Rental, error) {
	return s.repos.Rentals.ListActiveEndingBefore(ctx, domain.DateOnly(today))
}
