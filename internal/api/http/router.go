package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/service"
)

// NewRouter wires every endpoint. Route names key the security table in
// config.EndpointSecurityConfig.
func NewRouter(rentals service.RentalService, leasing service.LeasingService, auth *AuthMiddleware) *mux.Router {
	rh := NewRentalHandler(rentals, time.Now)
	lh := NewLeasingHandler(leasing)

	r := mux.NewRouter()
	r.Use(RequestID, Recover, LogRequests, auth.Handler)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet).Name("health")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/rentals", rh.CreateRental).Methods(http.MethodPost).Name("rentals.create")
	api.HandleFunc("/rentals/{id:[0-9]+}", rh.GetRental).Methods(http.MethodGet).Name("rentals.get")
	api.HandleFunc("/rentals/{id:[0-9]+}/reserve", rh.Reserve).Methods(http.MethodPost).Name("rentals.reserve")
	api.HandleFunc("/rentals/{id:[0-9]+}/activate", rh.Activate).Methods(http.MethodPost).Name("rentals.activate")
	api.HandleFunc("/rentals/{id:[0-9]+}/start-return", rh.StartReturn).Methods(http.MethodPost).Name("rentals.start-return")
	api.HandleFunc("/rentals/{id:[0-9]+}/complete", rh.Complete).Methods(http.MethodPost).Name("rentals.complete")
	api.HandleFunc("/rentals/{id:[0-9]+}/cancel", rh.Cancel).Methods(http.MethodPost).Name("rentals.cancel")

	api.HandleFunc("/rentals/{id:[0-9]+}/drivers", rh.AddDriver).Methods(http.MethodPost).Name("rentals.drivers.add")
	api.HandleFunc("/rentals/{id:[0-9]+}/drivers/{driverId:[0-9]+}", rh.RemoveDriver).Methods(http.MethodDelete).Name("rentals.drivers.remove")
	api.HandleFunc("/rentals/{id:[0-9]+}/drivers/{driverId:[0-9]+}/primary", rh.SetPrimaryDriver).Methods(http.MethodPut).Name("rentals.drivers.primary")

	api.HandleFunc("/vehicles/{id:[0-9]+}/availability", rh.VehicleAvailability).Methods(http.MethodGet).Name("vehicles.availability")
	api.HandleFunc("/drivers/{id:[0-9]+}/availability", rh.DriverAvailability).Methods(http.MethodGet).Name("drivers.availability")

	api.HandleFunc("/rentals/{id:[0-9]+}/leasing/km", lh.RecordKm).Methods(http.MethodPost).Name("leasing.km")
	api.HandleFunc("/rentals/{id:[0-9]+}/leasing/invoices", lh.GenerateInvoice).Methods(http.MethodPost).Name("leasing.invoices")
	api.HandleFunc("/rentals/{id:[0-9]+}/early-termination", lh.RequestEarlyTermination).Methods(http.MethodPost).Name("leasing.early-termination")
	api.HandleFunc("/early-terminations/{id:[0-9]+}/approve", lh.ApproveEarlyTermination).Methods(http.MethodPost).Name("early-terminations.approve")
	api.HandleFunc("/early-terminations/{id:[0-9]+}/reject", lh.RejectEarlyTermination).Methods(http.MethodPost).Name("early-terminations.reject")

	return r
}

func pathID(r *http.Request, name string) (int32, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.InvalidInput("invalid %s", name)
	}
	return int32(id), nil
}

func queryID(r *http.Request, name string) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id < 0 {
		return 0, domain.InvalidInput("invalid %s", name)
	}
	return int32(id), nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.InvalidInput("invalid request body: %v", err)
	}
	return nil
}
