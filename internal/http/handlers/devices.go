package handlers

import (
	"net/http"

	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
)

// ListDevices returns every registered device as a bare array.
func (a *API) ListDevices(w http.ResponseWriter, r *http.Request) {
	items, err := a.devices.List(r.Context())
	if err != nil {
		a.writeServiceError(w, err, "Failed to load devices")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetDevice returns one device by id.
func (a *API) GetDevice(w http.ResponseWriter, r *http.Request, id string) {
	device, err := a.devices.Get(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err, "Failed to load device")
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// CreateDevice adds a device or merges into the one with the same MAC.
func (a *API) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var payload devicedomain.Input
	if !decodeJSON(w, r, &payload, false) {
		return
	}
	device, err := a.devices.Upsert(r.Context(), payload)
	if err != nil {
		a.writeServiceError(w, err, "Failed to save device")
		return
	}
	writeJSON(w, http.StatusCreated, device)
}

// PatchDevice partially updates a device by id.
func (a *API) PatchDevice(w http.ResponseWriter, r *http.Request, id string) {
	var payload devicedomain.Patch
	if !decodeJSON(w, r, &payload, false) {
		return
	}
	device, err := a.devices.Update(r.Context(), id, payload)
	if err != nil {
		a.writeServiceError(w, err, "Failed to update device")
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// DeleteDevice removes a device by id.
func (a *API) DeleteDevice(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.devices.Delete(r.Context(), id); err != nil {
		a.writeServiceError(w, err, "Failed to delete device")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Device deleted successfully"})
}
