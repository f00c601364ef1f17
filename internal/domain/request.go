package domain

import "time"

// RentalRequest is a booking request as it enters the validation pipeline.
type RentalRequest struct {
	Type                RentalType    `json:"rental_type"`
	VehicleID           int32         `json:"vehicle_id"`
	CustomerID          int32         `json:"customer_id"`
	PrimaryDriverID     int32         `json:"primary_driver_id"`
	AdditionalDriverIDs []int32       `json:"additional_driver_ids"`
	PickupBranchID      int32         `json:"pickup_branch_id"`
	ReturnBranchID      int32         `json:"return_branch_id"`
	StartDate           time.Time     `json:"start_date"`
	EndDate             time.Time     `json:"end_date"`
	KmPackageID         *int32        `json:"km_package_id,omitempty"`
	DailyPrice          Money         `json:"daily_price"`
	WeeklyPrice         *Money        `json:"weekly_price,omitempty"`
	MonthlyPrice        *Money        `json:"monthly_price,omitempty"`
	Discount            *Money        `json:"discount,omitempty"`
	Notes               string        `json:"notes"`
	Leasing             *LeasingTerms `json:"leasing,omitempty"`
}

func (r *RentalRequest) Period() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// DriverIDs lists the primary driver first.
func (r *RentalRequest) DriverIDs() []int32 {
	return append([]int32{r.PrimaryDriverID}, r.AdditionalDriverIDs...)
}

// Validate checks the request on its own, without consulting any store.
func (r *RentalRequest) Validate() error {
	if !r.Type.IsValid() {
		return InvalidInput("unknown rental type %q", r.Type)
	}
	if r.VehicleID <= 0 || r.CustomerID <= 0 || r.PrimaryDriverID <= 0 {
		return InvalidInput("vehicle, customer and primary driver are required")
	}
	if r.PickupBranchID <= 0 || r.ReturnBranchID <= 0 {
		return InvalidInput("pickup and return branch are required")
	}
	if err := r.Period().Validate(); err != nil {
		return err
	}
	if r.DailyPrice.Currency == "" || !r.DailyPrice.IsPositive() {
		return InvalidInput("daily price must be positive")
	}
	for _, block := range []*Money{r.WeeklyPrice, r.MonthlyPrice, r.Discount} {
		if block == nil {
			continue
		}
		if block.Currency != r.DailyPrice.Currency {
			return ErrCurrencyMismatch
		}
		if block.IsNegative() {
			return InvalidInput("prices and discount cannot be negative")
		}
	}

	seen := map[int32]bool{}
	for _, id := range r.DriverIDs() {
		if id <= 0 {
			return InvalidInput("invalid driver id %d", id)
		}
		if seen[id] {
			return InvalidInput("driver %d listed twice", id)
		}
		seen[id] = true
	}

	if r.Type == RentalTypeLeasing {
		if r.Leasing == nil {
			return InvalidInput("leasing rentals require leasing terms")
		}
		if err := r.Leasing.Validate(); err != nil {
			return err
		}
		if r.Leasing.MonthlyRent.Currency != r.DailyPrice.Currency ||
			r.Leasing.ExtraKmRate.Currency != r.DailyPrice.Currency {
			return ErrCurrencyMismatch
		}
	}
	return nil
}
