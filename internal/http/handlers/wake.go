package handlers

import (
	"net/http"

	"github.com/micro-ha/wol-server/internal/http/auth"
	"github.com/micro-ha/wol-server/internal/model"
)

// Wake sends a magic packet to the MAC in the body.
func (a *API) Wake(w http.ResponseWriter, r *http.Request) {
	var payload model.WakeRequest
	if !decodeJSON(w, r, &payload, true) {
		return
	}
	result, err := a.wake.Wake(r.Context(), payload)
	if err != nil {
		a.writeServiceError(w, err, "Failed to send WOL packet")
		return
	}
	a.logger.Info("wake requested", "principal", auth.Principal(r.Context()), "mac", result.MACAddress)
	writeJSON(w, http.StatusOK, result)
}

// WakeDevice wakes a registered device; a MAC in the body takes precedence.
func (a *API) WakeDevice(w http.ResponseWriter, r *http.Request, id string) {
	var payload model.WakeRequest
	if !decodeJSON(w, r, &payload, true) {
		return
	}
	result, err := a.wake.WakeDevice(r.Context(), id, payload)
	if err != nil {
		a.writeServiceError(w, err, "Failed to send WOL packet")
		return
	}
	a.logger.Info("wake requested", "principal", auth.Principal(r.Context()), "device_id", id, "mac", result.MACAddress)
	writeJSON(w, http.StatusOK, result)
}
