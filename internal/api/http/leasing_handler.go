package http

import (
	"net/http"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/service"
)

type LeasingHandler struct {
	svc service.LeasingService
}

func NewLeasingHandler(svc service.LeasingService) *LeasingHandler {
	return &LeasingHandler{svc: svc}
}

type recordKmBody struct {
	CurrentKm  *int64 `json:"current_km"`
	RecordDate string `json:"record_date"`
}

func (h *LeasingHandler) RecordKm(w http.ResponseWriter, r *http.Request) {
	rentalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body recordKmBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.CurrentKm == nil {
		writeError(w, r, domain.InvalidInput("current_km is required"))
		return
	}
	recordDate, err := domain.ParseDate(body.RecordDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.svc.RecordLeasingKm(r.Context(), rentalID, *body.CurrentKm, recordDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

type generateInvoiceBody struct {
	Period            string        `json:"period"`
	AdditionalCharges *domain.Money `json:"additional_charges"`
}

func (h *LeasingHandler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	rentalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body generateInvoiceBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	period, err := domain.ParsePeriod(body.Period)
	if err != nil {
		writeError(w, r, err)
		return
	}

	start := period.Start()
	invoice, err := h.svc.GenerateLeasingInvoice(r.Context(), rentalID, start.Year(), start.Month(), body.AdditionalCharges)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}

type earlyTerminationBody struct {
	TerminationDate string `json:"termination_date"`
	Reason          string `json:"reason"`
}

func (h *LeasingHandler) RequestEarlyTermination(w http.ResponseWriter, r *http.Request) {
	rentalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body earlyTerminationBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := domain.ParseDate(body.TerminationDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	termination, err := h.svc.RequestEarlyTermination(r.Context(), rentalID, date, body.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, termination)
}

type approvedTermination struct {
	Termination *domain.EarlyTermination `json:"termination"`
	Invoice     *domain.Invoice          `json:"invoice"`
}

func (h *LeasingHandler) ApproveEarlyTermination(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	termination, invoice, err := h.svc.ApproveEarlyTermination(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approvedTermination{Termination: termination, Invoice: invoice})
}

func (h *LeasingHandler) RejectEarlyTermination(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	termination, err := h.svc.RejectEarlyTermination(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, termination)
}
