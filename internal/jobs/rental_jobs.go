package jobs

import (
	"context"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
)

// ReportOverdueRentals logs every active rental whose end date has passed.
// OVERDUE is derived at read time, so nothing is written.
func (jr *JobRunner) ReportOverdueRentals() {
	jr.runWithRecovery("ReportOverdueRentals", func(ctx context.Context) {
		if _, err := jr.reportOverdueRentals(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to list overdue rentals", "error", err)
		}
	})
}

func (jr *JobRunner) reportOverdueRentals(ctx context.Context) ([]domain.Rental, error) {
	today := domain.DateOnly(jr.now())
	rentals, err := jr.services.Rental.ListOverdue(ctx, today)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Overdue rentals found", "count", len(rentals), "date", today.Format(domain.DateLayout))
	for _, rental := range rentals {
		logger.WarnContext(ctx, "Rental is overdue",
			"rental_id", rental.ID,
			"rental_number", rental.RentalNumber,
			"vehicle_id", rental.VehicleID,
			"customer_id", rental.CustomerID,
			"end_date", rental.EndDate.Format(domain.DateLayout),
			"days_late", int(today.Sub(domain.DateOnly(rental.EndDate)).Hours()/24))
	}
	return rentals, nil
}
