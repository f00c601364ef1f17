// Package billing prices rentals: term rentals once at completion, leasing
// rentals per calendar month.
package billing

import (
	"fmt"
	"time"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
)

const (
	daysPerWeek  = 7
	daysPerMonth = 30
)

// DateDifference is the distance between two dates in whole calendar months
// plus remaining days, end date exclusive.
type DateDifference struct {
	Months int
	Days   int
}

// Breakdown itemises a term price.
type Breakdown struct {
	TotalDays  int          `json:"total_days"`
	Months     int          `json:"months"`
	Weeks      int          `json:"weeks"`
	Days       int          `json:"days"`
	MonthsCost domain.Money `json:"months_cost"`
	WeeksCost  domain.Money `json:"weeks_cost"`
	DaysCost   domain.Money `json:"days_cost"`
	Total      domain.Money `json:"total"`
}

// Charges are the final amounts of a completed term rental.
type Charges struct {
	Breakdown     Breakdown    `json:"breakdown"`
	TotalPrice    domain.Money `json:"total_price"`
	Discount      domain.Money `json:"discount"`
	ExcessKm      int64        `json:"excess_km"`
	ExtraKmCharge domain.Money `json:"extra_km_charge"`
	GrandTotal    domain.Money `json:"grand_total"`
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CalculateDateDifference counts whole months from start, then the days left
// before end. Borrowing a month when the day of month runs backwards keeps
// Jan 25 -> Feb 5 at 11 days.
func CalculateDateDifference(start, end time.Time) (DateDifference, error) {
	start, end = domain.DateOnly(start), domain.DateOnly(end)
	if end.Before(start) {
		return DateDifference{}, fmt.Errorf("%w: end date must be >= start date", domain.ErrInvalidInput)
	}

	years := end.Year() - start.Year()
	months := int(end.Month()) - int(start.Month())
	days := end.Day() - start.Day()

	if days < 0 {
		months--
		prev := end.AddDate(0, 0, -end.Day())
		days += DaysInMonth(prev.Year(), prev.Month())
	}
	if months < 0 {
		years--
		months += 12
	}
	return DateDifference{Months: months + 12*years, Days: days}, nil
}

// BilledDays runs from start to the later of end and the actual return,
// end exclusive, and is never less than one.
func BilledDays(start, end time.Time, actualReturn *time.Time) int {
	last := domain.DateOnly(end)
	if actualReturn != nil && domain.DateOnly(*actualReturn).After(last) {
		last = domain.DateOnly(*actualReturn)
	}
	days := int(last.Sub(domain.DateOnly(start)).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

func blockPrices(r *domain.Rental) (weekly, monthly domain.Money) {
	weekly = r.DailyPrice.MulInt(daysPerWeek)
	if r.WeeklyPrice != nil {
		weekly = *r.WeeklyPrice
	}
	monthly = r.DailyPrice.MulInt(daysPerMonth)
	if r.MonthlyPrice != nil {
		monthly = *r.MonthlyPrice
	}
	return weekly, monthly
}

// TermPrice tiers the billed days according to the rental type: DAILY bills
// every day at the daily price, WEEKLY bills whole weeks at the weekly price
// and MONTHLY bills whole calendar months at the monthly price. Any tail is
// billed at the daily price.
func TermPrice(r *domain.Rental) (Breakdown, error) {
	if r.DailyPrice.Currency == "" || !r.DailyPrice.IsPositive() {
		return Breakdown{}, fmt.Errorf("%w: rental %d has no daily price", domain.ErrMissingBillingInput, r.ID)
	}
	weekly, monthly := blockPrices(r)
	if weekly.Currency != r.DailyPrice.Currency || monthly.Currency != r.DailyPrice.Currency {
		return Breakdown{}, domain.ErrCurrencyMismatch
	}

	total := BilledDays(r.StartDate, r.EndDate, r.ActualReturnDate)
	b := Breakdown{TotalDays: total}

	switch r.Type {
	case domain.RentalTypeWeekly:
		b.Weeks = total / daysPerWeek
		b.Days = total % daysPerWeek
	case domain.RentalTypeMonthly:
		end := domain.DateOnly(r.StartDate).AddDate(0, 0, total)
		diff, err := CalculateDateDifference(r.StartDate, end)
		if err != nil {
			return Breakdown{}, err
		}
		b.Months = diff.Months
		b.Days = diff.Days
	case domain.RentalTypeDaily:
		b.Days = total
	default:
		return Breakdown{}, domain.InvalidOperation("%s rentals are not term priced", r.Type)
	}

	b.MonthsCost = monthly.MulInt(int64(b.Months))
	b.WeeksCost = weekly.MulInt(int64(b.Weeks))
	b.DaysCost = r.DailyPrice.MulInt(int64(b.Days))

	sum, err := b.MonthsCost.Add(b.WeeksCost)
	if err != nil {
		return Breakdown{}, err
	}
	if b.Total, err = sum.Add(b.DaysCost); err != nil {
		return Breakdown{}, err
	}
	return b, nil
}

// ExcessKm is the distance driven beyond the package allowance. A nil or
// unlimited package never has excess.
func ExcessKm(startKm, endKm int64, pkg *domain.KmPackage) int64 {
	if pkg == nil || pkg.Unlimited {
		return 0
	}
	if excess := endKm - startKm - pkg.IncludedKm; excess > 0 {
		return excess
	}
	return 0
}

// TermCharges computes the final charges of a term rental whose actual
// return date and odometer readings are set.
func TermCharges(r *domain.Rental, pkg *domain.KmPackage) (*Charges, error) {
	if r.StartKm == nil || r.EndKm == nil {
		return nil, fmt.Errorf("%w: rental %d is missing odometer readings", domain.ErrMissingBillingInput, r.ID)
	}
	if r.ActualReturnDate == nil {
		return nil, fmt.Errorf("%w: rental %d has no actual return date", domain.ErrMissingBillingInput, r.ID)
	}

	breakdown, err := TermPrice(r)
	if err != nil {
		return nil, err
	}

	discount := r.Discount
	if discount.Currency == "" {
		discount = domain.Zero(r.DailyPrice.Currency)
	}

	c := &Charges{
		Breakdown:     breakdown,
		TotalPrice:    breakdown.Total,
		Discount:      discount,
		ExcessKm:      ExcessKm(*r.StartKm, *r.EndKm, pkg),
		ExtraKmCharge: domain.Zero(r.DailyPrice.Currency),
	}
	if c.ExcessKm > 0 {
		c.ExtraKmCharge = pkg.ExtraKmPrice.MulInt(c.ExcessKm)
	}

	net, err := c.TotalPrice.Sub(c.Discount)
	if err != nil {
		return nil, err
	}
	grand, err := net.Add(c.ExtraKmCharge)
	if err != nil {
		return nil, err
	}
	c.GrandTotal = grand.ClampZero()
	return c, nil
}
