package jobs

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
)

// MockRentalService
type MockRentalService struct {
	mock.Mock
}

func rentalResult(args mock.Arguments) (*domain.Rental, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalService) CreateRental(ctx context.Context, req *domain.RentalRequest) (*domain.Rental, error) {
	return rentalResult(m.Called(ctx, req))
}
func (m *MockRentalService) Reserve(ctx context.Context, id int32) (*domain.Rental, error) {
	return rentalResult(m.Called(ctx, id))
}
func (m *MockRentalService) Activate(ctx context.Context, id int32, startKm int64) (*domain.Rental, error) {
	return rentalResult(m.Called(ctx, id, startKm))
}
func (m *MockRentalService) StartReturn(ctx context.Context, id int32) (*domain.Rental, error) {
	return rentalResult(m.Called(ctx, id))
}
func (m *MockRentalService) Complete(ctx context.Context, id int32, actualReturnDate time.Time, endKm int64) (*domain.Rental, error) {
	return rentalResult(m.Called(ctx, id, actualReturnDate, endKm))
}
func (m *MockRentalService) Cancel(ctx context.Context, id int32) (*domain.Rental, error) {
	return rentalResult(m.Called(ctx, id))
}
func (m *MockRentalService) AddDriver(ctx context.Context, rentalID, driverID int32, primary bool, notes string) (*domain.Rental, error) {
	return rentalResult(m.Called(ctx, rentalID, driverID, primary, notes))
}
func (m *MockRentalService) RemoveDriver(ctx context.Context, rentalID, driverID int32) (*domain.Rental, error) {
	return rentalResult(m.Called(ctx, rentalID, driverID))
}
func (m *MockRentalService) SetPrimaryDriver(ctx context.Context, rentalID, driverID int32) (*domain.Rental, error) {
	return rentalResult(m.Called(ctx, rentalID, driverID))
}
func (m *MockRentalService) GetRental(ctx context.Context, id int32) (*domain.Rental, error) {
	return rentalResult(m.Called(ctx, id))
}
func (m *MockRentalService) CheckVehicleAvailability(ctx context.Context, vehicleID int32, period domain.DateRange, excludeRentalID int32) error {
	args := m.Called(ctx, vehicleID, period, excludeRentalID)
	return args.Error(0)
}
func (m *MockRentalService) CheckDriverAvailability(ctx context.Context, driverID int32, excludeRentalID int32) error {
	args := m.Called(ctx, driverID, excludeRentalID)
	return args.Error(0)
}
func (m *MockRentalService) ListOverdue(ctx context.Context, today time.Time) ([]domain.Rental, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

// MockLeasingService
type MockLeasingService struct {
	mock.Mock
}

func (m *MockLeasingService) RecordLeasingKm(ctx context.Context, rentalID int32, currentKm int64, recordDate time.Time) (*domain.LeasingKmRecord, error) {
	args := m.Called(ctx, rentalID, currentKm, recordDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeasingKmRecord), args.Error(1)
}
func (m *MockLeasingService) GenerateLeasingInvoice(ctx context.Context, rentalID int32, year int, month time.Month, additionalCharges *domain.Money) (*domain.Invoice, error) {
	args := m.Called(ctx, rentalID, year, month, additionalCharges)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockLeasingService) RequestEarlyTermination(ctx context.Context, rentalID int32, terminationDate time.Time, reason string) (*domain.EarlyTermination, error) {
	args := m.Called(ctx, rentalID, terminationDate, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EarlyTermination), args.Error(1)
}
func (m *MockLeasingService) ApproveEarlyTermination(ctx context.Context, id int32) (*domain.EarlyTermination, *domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.EarlyTermination), args.Get(1).(*domain.Invoice), args.Error(2)
}
func (m *MockLeasingService) RejectEarlyTermination(ctx context.Context, id int32) (*domain.EarlyTermination, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EarlyTermination), args.Error(1)
}
func (m *MockLeasingService) ListActiveLeases(ctx context.Context) ([]domain.Rental, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}
