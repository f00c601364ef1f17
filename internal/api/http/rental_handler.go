package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/service"
)

type RentalHandler struct {
	svc service.RentalService
	now func() time.Time
}

func NewRentalHandler(svc service.RentalService, now func() time.Time) *RentalHandler {
	return &RentalHandler{svc: svc, now: now}
}

// rentalResponse adds the status as of today, which reports OVERDUE for
// active rentals past their end date.
type rentalResponse struct {
	*domain.Rental
	EffectiveStatus domain.RentalStatus `json:"effective_status"`
}

func (h *RentalHandler) respond(w http.ResponseWriter, status int, rental *domain.Rental) {
	writeJSON(w, status, rentalResponse{Rental: rental, EffectiveStatus: rental.EffectiveStatus(h.now())})
}

type createRentalBody struct {
	Type                domain.RentalType    `json:"rental_type"`
	VehicleID           int32                `json:"vehicle_id"`
	CustomerID          int32                `json:"customer_id"`
	PrimaryDriverID     int32                `json:"primary_driver_id"`
	AdditionalDriverIDs []int32              `json:"additional_driver_ids"`
	PickupBranchID      int32                `json:"pickup_branch_id"`
	ReturnBranchID      int32                `json:"return_branch_id"`
	StartDate           string               `json:"start_date"`
	EndDate             string               `json:"end_date"`
	KmPackageID         *int32               `json:"km_package_id"`
	DailyPrice          domain.Money         `json:"daily_price"`
	WeeklyPrice         *domain.Money        `json:"weekly_price"`
	MonthlyPrice        *domain.Money        `json:"monthly_price"`
	Discount            *domain.Money        `json:"discount"`
	Notes               string               `json:"notes"`
	Leasing             *domain.LeasingTerms `json:"leasing"`
}

func (b *createRentalBody) toRequest() (*domain.RentalRequest, error) {
	start, err := domain.ParseDate(b.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseDate(b.EndDate)
	if err != nil {
		return nil, err
	}
	return &domain.RentalRequest{
		Type:                b.Type,
		VehicleID:           b.VehicleID,
		CustomerID:          b.CustomerID,
		PrimaryDriverID:     b.PrimaryDriverID,
		AdditionalDriverIDs: b.AdditionalDriverIDs,
		PickupBranchID:      b.PickupBranchID,
		ReturnBranchID:      b.ReturnBranchID,
		StartDate:           start,
		EndDate:             end,
		KmPackageID:         b.KmPackageID,
		DailyPrice:          b.DailyPrice,
		WeeklyPrice:         b.WeeklyPrice,
		MonthlyPrice:        b.MonthlyPrice,
		Discount:            b.Discount,
		Notes:               b.Notes,
		Leasing:             b.Leasing,
	}, nil
}

func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var body createRentalBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(w, r, err)
		return
	}

	rental, err := h.svc.CreateRental(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, rental)
}

func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.GetRental)
}

func (h *RentalHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Reserve)
}

func (h *RentalHandler) StartReturn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.StartReturn)
}

func (h *RentalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

// transition runs a body-less operation on the rental named in the path.
func (h *RentalHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int32) (*domain.Rental, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := op(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rental)
}

type activateBody struct {
	StartKm *int64 `json:"start_km"`
}

func (h *RentalHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body activateBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.StartKm == nil {
		writeError(w, r, domain.InvalidInput("start_km is required"))
		return
	}

	rental, err := h.svc.Activate(r.Context(), id, *body.StartKm)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rental)
}

type completeBody struct {
	ActualReturnDate string `json:"actual_return_date"`
	EndKm            *int64 `json:"end_km"`
}

func (h *RentalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body completeBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	returned, err := domain.ParseDate(body.ActualReturnDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if body.EndKm == nil {
		writeError(w, r, domain.InvalidInput("end_km is required"))
		return
	}

	rental, err := h.svc.Complete(r.Context(), id, returned, *body.EndKm)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rental)
}

type addDriverBody struct {
	DriverID int32  `json:"driver_id"`
	Primary  bool   `json:"primary"`
	Notes    string `json:"notes"`
}

func (h *RentalHandler) AddDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body addDriverBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.DriverID <= 0 {
		writeError(w, r, domain.InvalidInput("driver_id is required"))
		return
	}

	rental, err := h.svc.AddDriver(r.Context(), id, body.DriverID, body.Primary, body.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rental)
}

func (h *RentalHandler) RemoveDriver(w http.ResponseWriter, r *http.Request) {
	h.driverOp(w, r, h.svc.RemoveDriver)
}

func (h *RentalHandler) SetPrimaryDriver(w http.ResponseWriter, r *http.Request) {
	h.driverOp(w, r, h.svc.SetPrimaryDriver)
}

func (h *RentalHandler) driverOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, rentalID, driverID int32) (*domain.Rental, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	driverID, err := pathID(r, "driverId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := op(r.Context(), id, driverID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rental)
}

type availabilityResponse struct {
	Available           bool   `json:"available"`
	VehicleID           int32  `json:"vehicle_id,omitempty"`
	DriverID            int32  `json:"driver_id,omitempty"`
	Start               string `json:"start,omitempty"`
	End                 string `json:"end,omitempty"`
	ConflictingRentalID int32  `json:"conflicting_rental_id,omitempty"`
	Reason              string `json:"reason,omitempty"`
}

func (h *RentalHandler) VehicleAvailability(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := domain.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := domain.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	exclude, err := queryID(r, "exclude")
	if err != nil {
		writeError(w, r, err)
		return
	}
	period := domain.DateRange{Start: start, End: end}
	if err := period.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	resp := availabilityResponse{
		Available: true,
		VehicleID: vehicleID,
		Start:     start.Format(domain.DateLayout),
		End:       end.Format(domain.DateLayout),
	}
	err = h.svc.CheckVehicleAvailability(r.Context(), vehicleID, period, exclude)
	var overlap *domain.RentalOverlapError
	switch {
	case errors.As(err, &overlap):
		resp.Available = false
		resp.ConflictingRentalID = overlap.ConflictingRentalID
		resp.Reason = overlap.Error()
	case err != nil:
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RentalHandler) DriverAvailability(w http.ResponseWriter, r *http.Request) {
	driverID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	exclude, err := queryID(r, "exclude")
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := availabilityResponse{Available: true, DriverID: driverID}
	err = h.svc.CheckDriverAvailability(r.Context(), driverID, exclude)
	switch {
	case errors.Is(err, domain.ErrDriverUnavailable):
		resp.Available = false
		resp.Reason = err.Error()
	case err != nil:
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
