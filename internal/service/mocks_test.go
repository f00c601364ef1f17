package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
)

// MockTx runs fn inline and counts the transactions started.
type MockTx struct {
	Calls int
}

func (m *MockTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

// MockRentalRepo
type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id int32) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) Update(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) ListNonTerminalByVehicle(ctx context.Context, vehicleID int32) ([]domain.Rental, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) ListNonTerminalByDriver(ctx context.Context, driverID int32) ([]domain.Rental, error) {
	args := m.Called(ctx, driverID)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) CountByCustomer(ctx context.Context, customerID int32, statuses []domain.RentalStatus) (int, error) {
	args := m.Called(ctx, customerID, statuses)
	return args.Int(0), args.Error(1)
}
func (m *MockRentalRepo) ListActiveEndingBefore(ctx context.Context, date time.Time) ([]domain.Rental, error) {
	args := m.Called(ctx, date)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) ListActiveByType(ctx context.Context, rentalType domain.RentalType) ([]domain.Rental, error) {
	args := m.Called(ctx, rentalType)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) AddDriver(ctx context.Context, driver *domain.RentalDriver) error {
	args := m.Called(ctx, driver)
	return args.Error(0)
}
func (m *MockRentalRepo) RemoveDriver(ctx context.Context, rentalID, driverID int32) error {
	args := m.Called(ctx, rentalID, driverID)
	return args.Error(0)
}
func (m *MockRentalRepo) SetPrimaryDriver(ctx context.Context, rentalID, driverID int32) error {
	args := m.Called(ctx, rentalID, driverID)
	return args.Error(0)
}
func (m *MockRentalRepo) ListDrivers(ctx context.Context, rentalID int32) ([]domain.RentalDriver, error) {
	args := m.Called(ctx, rentalID)
	return args.Get(0).([]domain.RentalDriver), args.Error(1)
}

// MockSequenceRepo
type MockSequenceRepo struct {
	mock.Mock
}

func (m *MockSequenceRepo) Next(ctx context.Context, scope string, year int) (int64, error) {
	args := m.Called(ctx, scope, year)
	return args.Get(0).(int64), args.Error(1)
}

// MockLeasingRepo
type MockLeasingRepo struct {
	mock.Mock
}

func (m *MockLeasingRepo) CreateTerms(ctx context.Context, terms *domain.LeasingTerms) error {
	args := m.Called(ctx, terms)
	return args.Error(0)
}
func (m *MockLeasingRepo) GetTerms(ctx context.Context, rentalID int32) (*domain.LeasingTerms, error) {
	args := m.Called(ctx, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeasingTerms), args.Error(1)
}
func (m *MockLeasingRepo) CreateKmRecord(ctx context.Context, record *domain.LeasingKmRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
func (m *MockLeasingRepo) GetKmRecord(ctx context.Context, rentalID int32, period domain.Period) (*domain.LeasingKmRecord, error) {
	args := m.Called(ctx, rentalID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeasingKmRecord), args.Error(1)
}
func (m *MockLeasingRepo) LatestKmRecord(ctx context.Context, rentalID int32) (*domain.LeasingKmRecord, error) {
	args := m.Called(ctx, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeasingKmRecord), args.Error(1)
}
func (m *MockLeasingRepo) ListKmRecords(ctx context.Context, rentalID int32) ([]domain.LeasingKmRecord, error) {
	args := m.Called(ctx, rentalID)
	return args.Get(0).([]domain.LeasingKmRecord), args.Error(1)
}
func (m *MockLeasingRepo) CreateEarlyTermination(ctx context.Context, t *domain.EarlyTermination) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockLeasingRepo) GetEarlyTerminationForUpdate(ctx context.Context, id int32) (*domain.EarlyTermination, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EarlyTermination), args.Error(1)
}
func (m *MockLeasingRepo) PendingEarlyTermination(ctx context.Context, rentalID int32) (*domain.EarlyTermination, error) {
	args := m.Called(ctx, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EarlyTermination), args.Error(1)
}
func (m *MockLeasingRepo) UpdateEarlyTermination(ctx context.Context, t *domain.EarlyTermination) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// MockInvoiceRepo
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) (bool, error) {
	args := m.Called(ctx, invoice)
	return args.Bool(0), args.Error(1)
}
func (m *MockInvoiceRepo) GetByPeriod(ctx context.Context, rentalID int32, invoiceType domain.InvoiceType, period domain.Period) (*domain.Invoice, error) {
	args := m.Called(ctx, rentalID, invoiceType, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceRepo) ListByRental(ctx context.Context, rentalID int32) ([]domain.Invoice, error) {
	args := m.Called(ctx, rentalID)
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

// MockVehicleDirectory
type MockVehicleDirectory struct {
	mock.Mock
}

func (m *MockVehicleDirectory) GetVehicle(ctx context.Context, id int32) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}
func (m *MockVehicleDirectory) LockVehicle(ctx context.Context, id int32) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}
func (m *MockVehicleDirectory) RecordOdometer(ctx context.Context, id int32, km int64) error {
	args := m.Called(ctx, id, km)
	return args.Error(0)
}

// MockContractDirectory
type MockContractDirectory struct {
	mock.Mock
}

func (m *MockContractDirectory) GetByRental(ctx context.Context, rentalID int32) (*domain.Contract, error) {
	args := m.Called(ctx, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contract), args.Error(1)
}

// MockKmPackageRepo
type MockKmPackageRepo struct {
	mock.Mock
}

func (m *MockKmPackageRepo) GetByID(ctx context.Context, id int32) (*domain.KmPackage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KmPackage), args.Error(1)
}

// MockCustomerDirectory
type MockCustomerDirectory struct {
	mock.Mock
}

func (m *MockCustomerDirectory) GetCustomer(ctx context.Context, id int32) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

// MockBranchDirectory
type MockBranchDirectory struct {
	mock.Mock
}

func (m *MockBranchDirectory) Exists(ctx context.Context, id int32) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
