package postgres

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/osmanasaf/reindecar-sub001/internal/repository"
)

// Store bundles every repository backed by one database.
type Store struct {
	db *sql.DB
	repository.TransactionManager
	Rentals   repository.RentalRepository
	Sequences repository.SequenceRepository
	Leasing   repository.LeasingRepository
	Invoices  repository.InvoiceRepository
	Customers repository.CustomerDirectory
	Vehicles  repository.VehicleDirectory
	Contracts repository.ContractDirectory
	Branches  repository.BranchDirectory
	Packages  repository.KmPackageRepository
}

func NewStore(db *sql.DB, lockTimeout time.Duration) *Store {
	return &Store{
		db:                 db,
		TransactionManager: NewTransactionManager(db),
		Rentals:            NewRentalRepository(db),
		Sequences:          NewSequenceRepository(db),
		Leasing:            NewLeasingRepository(db),
		Invoices:           NewInvoiceRepository(db),
		Customers:          NewCustomerDirectory(db),
		Vehicles:           NewVehicleDirectory(db, lockTimeout),
		Contracts:          NewContractDirectory(db),
		Branches:           NewBranchDirectory(db),
		Packages:           NewKmPackageRepository(db),
	}
}

func (s *Store) DB() *sql.DB {
	return s.db
}
