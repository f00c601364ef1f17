package validation

import (
	"context"
	"fmt"

	"github.com/osmanasaf/reindecar-sub001/internal/availability"
	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/repository"
)

// RentalCounter counts a customer's rentals in the given statuses.
type RentalCounter interface {
	CountByCustomer(ctx context.Context, customerID int32, statuses []domain.RentalStatus) (int, error)
}

// openStatuses are the stored statuses a personal customer may hold only once.
// OVERDUE rentals are stored as ACTIVE.
var openStatuses = []domain.RentalStatus{domain.RentalStatusReserved, domain.RentalStatusActive}

type PersonalCustomerLimitRule struct {
	customers repository.CustomerDirectory
	rentals   RentalCounter
}

func NewPersonalCustomerLimitRule(customers repository.CustomerDirectory, rentals RentalCounter) *PersonalCustomerLimitRule {
	return &PersonalCustomerLimitRule{customers: customers, rentals: rentals}
}

func (r *PersonalCustomerLimitRule) Name() string { return "personal_customer_limit" }

func (r *PersonalCustomerLimitRule) Validate(ctx context.Context, req *domain.RentalRequest) error {
	return r.Check(ctx, req.CustomerID)
}

// Check fails with domain.ErrRentalLimitReached when a personal customer
// already holds an open rental. Drafts do not count, so a draft is checked
// again when it is reserved.
func (r *PersonalCustomerLimitRule) Check(ctx context.Context, customerID int32) error {
	customer, err := r.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if !customer.IsPersonal() {
		return nil
	}
	n, err := r.rentals.CountByCustomer(ctx, customerID, openStatuses)
	if err != nil {
		return fmt.Errorf("count rentals of customer %d: %w", customerID, err)
	}
	if n > 0 {
		return fmt.Errorf("%w: customer %d holds %d", domain.ErrRentalLimitReached, customerID, n)
	}
	return nil
}

type DriverAvailabilityRule struct {
	checker *availability.Checker
}

func NewDriverAvailabilityRule(checker *availability.Checker) *DriverAvailabilityRule {
	return &DriverAvailabilityRule{checker: checker}
}

func (r *DriverAvailabilityRule) Name() string { return "driver_availability" }

func (r *DriverAvailabilityRule) Validate(ctx context.Context, req *domain.RentalRequest) error {
	for _, id := range req.DriverIDs() {
		if err := r.checker.DriverAvailable(ctx, id, 0); err != nil {
			return err
		}
	}
	return nil
}

type VehicleAvailabilityRule struct {
	checker *availability.Checker
}

func NewVehicleAvailabilityRule(checker *availability.Checker) *VehicleAvailabilityRule {
	return &VehicleAvailabilityRule{checker: checker}
}

func (r *VehicleAvailabilityRule) Name() string { return "vehicle_availability" }

func (r *VehicleAvailabilityRule) Validate(ctx context.Context, req *domain.RentalRequest) error {
	return r.checker.VehicleAvailable(ctx, req.VehicleID, req.Period(), 0)
}

type CustomerStandingRule struct {
	customers repository.CustomerDirectory
}

func NewCustomerStandingRule(customers repository.CustomerDirectory) *CustomerStandingRule {
	return &CustomerStandingRule{customers: customers}
}

func (r *CustomerStandingRule) Name() string { return "customer_standing" }

func (r *CustomerStandingRule) Validate(ctx context.Context, req *domain.RentalRequest) error {
	customer, err := r.customers.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return err
	}
	if customer.Blacklisted {
		return fmt.Errorf("%w: customer %d", domain.ErrCustomerBlacklisted, customer.ID)
	}
	return nil
}

type BranchExistenceRule struct {
	branches repository.BranchDirectory
}

func NewBranchExistenceRule(branches repository.BranchDirectory) *BranchExistenceRule {
	return &BranchExistenceRule{branches: branches}
}

func (r *BranchExistenceRule) Name() string { return "branch_existence" }

func (r *BranchExistenceRule) Validate(ctx context.Context, req *domain.RentalRequest) error {
	for _, id := range []int32{req.PickupBranchID, req.ReturnBranchID} {
		ok, err := r.branches.Exists(ctx, id)
		if err != nil {
			return fmt.Errorf("look up branch %d: %w", id, err)
		}
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrUnknownBranch, id)
		}
	}
	return nil
}

// Dependencies are the stores the standard rule set reads from.
type Dependencies struct {
	Customers repository.CustomerDirectory
	Branches  repository.BranchDirectory
	Rentals   RentalCounter
	Checker   *availability.Checker
}

// NewRentalPipeline registers the standard rules. Cheap lookups run first.
func NewRentalPipeline(deps Dependencies) *Pipeline {
	return NewPipeline(
		NewCustomerStandingRule(deps.Customers),
		NewBranchExistenceRule(deps.Branches),
		NewPersonalCustomerLimitRule(deps.Customers, deps.Rentals),
		NewDriverAvailabilityRule(deps.Checker),
		NewVehicleAvailabilityRule(deps.Checker),
	)
}
