package domain

import "time"

type RentalType string

const (
	RentalTypeDaily   RentalType = "DAILY"
	RentalTypeWeekly  RentalType = "WEEKLY"
	RentalTypeMonthly RentalType = "MONTHLY"
	RentalTypeLeasing RentalType = "LEASING"
)

func (t RentalType) IsValid() bool {
	switch t {
	case RentalTypeDaily, RentalTypeWeekly, RentalTypeMonthly, RentalTypeLeasing:
		return true
	}
	return false
}

type RentalStatus string

const (
	RentalStatusDraft         RentalStatus = "DRAFT"
	RentalStatusReserved      RentalStatus = "RESERVED"
	RentalStatusActive        RentalStatus = "ACTIVE"
	RentalStatusReturnPending RentalStatus = "RETURN_PENDING"
	RentalStatusClosed        RentalStatus = "CLOSED"
	RentalStatusCancelled     RentalStatus = "CANCELLED"
	// RentalStatusOverdue is never stored. It is derived from ACTIVE rentals
	// whose end date has passed.
	RentalStatusOverdue RentalStatus = "OVERDUE"
)

// IsTerminal reports whether a rental in this status no longer holds its vehicle or drivers.
func (s RentalStatus) IsTerminal() bool {
	return s == RentalStatusClosed || s == RentalStatusCancelled
}

// AllowsDriverChanges reports whether drivers may be added, removed or re-ranked.
func (s RentalStatus) AllowsDriverChanges() bool {
	switch s {
	case RentalStatusDraft, RentalStatusReserved, RentalStatusActive, RentalStatusOverdue:
		return true
	}
	return false
}

// NonTerminalStatuses are the stored statuses that block a vehicle or a driver.
var NonTerminalStatuses = []RentalStatus{
	RentalStatusDraft,
	RentalStatusReserved,
	RentalStatusActive,
	RentalStatusReturnPending,
}

type Rental struct {
	ID              int32          `json:"id"`
	RentalNumber    string         `json:"rental_number"`
	Type            RentalType     `json:"rental_type"`
	Status          RentalStatus   `json:"status"`
	VehicleID       int32          `json:"vehicle_id"`
	CustomerID      int32          `json:"customer_id"`
	PrimaryDriverID int32          `json:"primary_driver_id"`
	Drivers         []RentalDriver `json:"drivers,omitempty"`
	PickupBranchID  int32          `json:"pickup_branch_id"`
	ReturnBranchID  int32          `json:"return_branch_id"`
	StartDate       time.Time      `json:"start_date"`
	EndDate         time.Time      `json:"end_date"`
	// ActualReturnDate is set only when the rental is closed.
	ActualReturnDate *time.Time `json:"actual_return_date,omitempty"`
	StartKm          *int64     `json:"start_km,omitempty"`
	EndKm            *int64     `json:"end_km,omitempty"`
	KmPackageID      *int32     `json:"km_package_id,omitempty"`
	// Price snapshot captured at booking time. Weekly and monthly block
	// prices are optional and derived from the daily price when absent.
	DailyPrice   Money  `json:"daily_price"`
	WeeklyPrice  *Money `json:"weekly_price,omitempty"`
	MonthlyPrice *Money `json:"monthly_price,omitempty"`
	Discount     Money  `json:"discount"`
	// Charges computed at completion.
	TotalPrice      *Money     `json:"total_price,omitempty"`
	ExtraKmCharge   *Money     `json:"extra_km_charge,omitempty"`
	GrandTotal      *Money     `json:"grand_total,omitempty"`
	Currency        string     `json:"currency"`
	Notes           string     `json:"notes"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`
	ReturnStartedAt *time.Time `json:"return_started_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// EffectiveStatus is the stored status with OVERDUE derived for active
// rentals whose end date lies before today.
func (r *Rental) EffectiveStatus(today time.Time) RentalStatus {
	if r.Status == RentalStatusActive && DateOnly(today).After(DateOnly(r.EndDate)) {
		return RentalStatusOverdue
	}
	return r.Status
}

func (r *Rental) IsLeasing() bool {
	return r.Type == RentalTypeLeasing
}

func (r *Rental) Period() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

func (r *Rental) HasDriver(driverID int32) bool {
	return r.Driver(driverID) != nil
}

func (r *Rental) Driver(driverID int32) *RentalDriver {
	for i := range r.Drivers {
		if r.Drivers[i].DriverID == driverID {
			return &r.Drivers[i]
		}
	}
	return nil
}

// DriverIDs returns the primary driver followed by the additional drivers.
func (r *Rental) DriverIDs() []int32 {
	ids := []int32{r.PrimaryDriverID}
	for _, d := range r.Drivers {
		if d.DriverID != r.PrimaryDriverID {
			ids = append(ids, d.DriverID)
		}
	}
	return ids
}

type RentalDriver struct {
	RentalID int32     `json:"rental_id"`
	DriverID int32     `json:"driver_id"`
	Primary  bool      `json:"primary"`
	AddedAt  time.Time `json:"added_at"`
	AddedBy  int32     `json:"added_by"`
	Notes    string    `json:"notes"`
}
