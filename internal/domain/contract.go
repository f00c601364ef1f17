package domain

import (
	"time"

	"github.com/osmanasaf/reindecar-sub001/internal/statemachine"
)

type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "DRAFT"
	ContractStatusSigned    ContractStatus = "SIGNED"
	ContractStatusExpired   ContractStatus = "EXPIRED"
	ContractStatusRenewed   ContractStatus = "RENEWED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
)

var ContractLifecycle = statemachine.New(statemachine.Table[ContractStatus]{
	ContractStatusDraft:  {ContractStatusSigned, ContractStatusCancelled},
	ContractStatusSigned: {ContractStatusExpired, ContractStatusRenewed, ContractStatusCancelled},
}, nil)

// Contract is the signed agreement a rental needs before it can be activated.
type Contract struct {
	ID       int32          `json:"id"`
	RentalID int32          `json:"rental_id"`
	Status   ContractStatus `json:"status"`
	SignedAt *time.Time     `json:"signed_at,omitempty"`
}

func (c *Contract) IsSigned() bool {
	return c.Status == ContractStatusSigned
}
