package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityAccess                       // Access token required
	SecurityManager                      // Access token carrying the manager role
)

// ManagerRole is the token role that unlocks SecurityManager routes.
const ManagerRole = "manager"

// EndpointSecurityConfig maps HTTP route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"health": SecurityPublic,

	// Rentals
	"rentals.create":       SecurityAccess,
	"rentals.get":          SecurityAccess,
	"rentals.reserve":      SecurityAccess,
	"rentals.activate":     SecurityAccess,
	"rentals.start-return": SecurityAccess,
	"rentals.complete":     SecurityAccess,
	"rentals.cancel":       SecurityAccess,

	// Drivers
	"rentals.drivers.add":     SecurityAccess,
	"rentals.drivers.remove":  SecurityAccess,
	"rentals.drivers.primary": SecurityAccess,

	// Availability
	"vehicles.availability": SecurityAccess,
	"drivers.availability":  SecurityAccess,

	// Leasing
	"leasing.km":                 SecurityAccess,
	"leasing.invoices":           SecurityAccess,
	"leasing.early-termination":  SecurityAccess,
	"early-terminations.approve": SecurityManager,
	"early-terminations.reject":  SecurityManager,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to access for unknown routes
	return SecurityAccess
}
