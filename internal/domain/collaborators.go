package domain

type CustomerType string

const (
	CustomerTypePersonal CustomerType = "PERSONAL"
	CustomerTypeCompany  CustomerType = "COMPANY"
)

// Customer is the read view of a customer owned by the customer directory.
type Customer struct {
	ID          int32        `json:"id"`
	Type        CustomerType `json:"customer_type"`
	Name        string       `json:"name"`
	Blacklisted bool         `json:"blacklisted"`
}

func (c *Customer) IsPersonal() bool {
	return c.Type == CustomerTypePersonal
}

// Vehicle is the read view of a fleet vehicle.
type Vehicle struct {
	ID             int32  `json:"id"`
	Plate          string `json:"plate"`
	BranchID       int32  `json:"branch_id"`
	LastOdometerKm int64  `json:"last_odometer_km"`
	Active         bool   `json:"active"`
}

type Branch struct {
	ID     int32  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// KmPackage caps the kilometres included in a short-term rental.
type KmPackage struct {
	ID           int32  `json:"id"`
	Name         string `json:"name"`
	IncludedKm   int64  `json:"included_km"`
	ExtraKmPrice Money  `json:"extra_km_price"`
	Unlimited    bool   `json:"unlimited"`
}
