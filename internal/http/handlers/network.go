package handlers

import "net/http"

// ScanNetwork runs a synchronous scan and returns candidates as a bare array.
func (a *API) ScanNetwork(w http.ResponseWriter, r *http.Request) {
	items, err := a.discovery.Scan(r.Context())
	if err != nil {
		a.writeServiceError(w, err, "Failed to scan network")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Refresh triggers a background scan whose result is delivered as an event.
func (a *API) Refresh(w http.ResponseWriter, _ *http.Request) {
	if a.poller == nil {
		writeError(w, http.StatusServiceUnavailable, "Background scanning disabled")
		return
	}
	a.poller.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
