package domain

import "time"

type InvoiceType string

const (
	InvoiceTypeLeasingMonthly   InvoiceType = "LEASING_MONTHLY"
	InvoiceTypeEarlyTermination InvoiceType = "EARLY_TERMINATION"
)

// Invoice is unique per rental, type and period. Amount columns that do not
// apply to the invoice type are zero.
type Invoice struct {
	ID                int32       `json:"id"`
	InvoiceNumber     string      `json:"invoice_number"`
	RentalID          int32       `json:"rental_id"`
	Type              InvoiceType `json:"invoice_type"`
	Period            Period      `json:"period"`
	MonthlyRent       Money       `json:"monthly_rent"`
	ExcessKm          int64       `json:"excess_km"`
	ExcessKmCharge    Money       `json:"excess_km_charge"`
	AdditionalCharges Money       `json:"additional_charges"`
	PenaltyAmount     Money       `json:"penalty_amount"`
	Total             Money       `json:"total"`
	Currency          string      `json:"currency"`
	IssuedAt          time.Time   `json:"issued_at"`
}
