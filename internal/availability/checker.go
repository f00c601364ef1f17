// Package availability answers whether a vehicle or a driver is free. The
// checks are plain reads; callers that act on the answer run them inside the
// transaction holding the vehicle lock.
package availability

import (
	"context"
	"fmt"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
)

// RentalReader is the slice of the rental repository the checker needs.
type RentalReader interface {
	ListNonTerminalByVehicle(ctx context.Context, vehicleID int32) ([]domain.Rental, error)
	ListNonTerminalByDriver(ctx context.Context, driverID int32) ([]domain.Rental, error)
}

type Checker struct {
	rentals RentalReader
}

func NewChecker(rentals RentalReader) *Checker {
	return &Checker{rentals: rentals}
}

// VehicleConflict returns the first open rental of the vehicle that overlaps
// period, or nil. excludeRentalID skips the rental being re-checked; pass 0
// for a new booking.
func (c *Checker) VehicleConflict(ctx context.Context, vehicleID int32, period domain.DateRange, excludeRentalID int32) (*domain.Rental, error) {
	rentals, err := c.rentals.ListNonTerminalByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list rentals of vehicle %d: %w", vehicleID, err)
	}
	for i := range rentals {
		r := &rentals[i]
		if r.ID == excludeRentalID || r.Status.IsTerminal() {
			continue
		}
		if r.Period().Overlaps(period) {
			return r, nil
		}
	}
	return nil, nil
}

// VehicleAvailable fails with *domain.RentalOverlapError when the vehicle is taken.
func (c *Checker) VehicleAvailable(ctx context.Context, vehicleID int32, period domain.DateRange, excludeRentalID int32) error {
	conflict, err := c.VehicleConflict(ctx, vehicleID, period, excludeRentalID)
	if err != nil {
		return err
	}
	if conflict != nil {
		return &domain.RentalOverlapError{
			VehicleID:           vehicleID,
			Start:               conflict.StartDate,
			End:                 conflict.EndDate,
			ConflictingRentalID: conflict.ID,
		}
	}
	return nil
}

// DriverConflict returns an open rental the driver is attached to, or nil.
func (c *Checker) DriverConflict(ctx context.Context, driverID int32, excludeRentalID int32) (*domain.Rental, error) {
	rentals, err := c.rentals.ListNonTerminalByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("list rentals of driver %d: %w", driverID, err)
	}
	for i := range rentals {
		if rentals[i].ID != excludeRentalID && !rentals[i].Status.IsTerminal() {
			return &rentals[i], nil
		}
	}
	return nil, nil
}

// DriverAvailable fails with domain.ErrDriverUnavailable when the driver holds an open rental.
func (c *Checker) DriverAvailable(ctx context.Context, driverID int32, excludeRentalID int32) error {
	conflict, err := c.DriverConflict(ctx, driverID, excludeRentalID)
	if err != nil {
		return err
	}
	if conflict != nil {
		return fmt.Errorf("%w: driver %d on rental %s", domain.ErrDriverUnavailable, driverID, conflict.RentalNumber)
	}
	return nil
}
