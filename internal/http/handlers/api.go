package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
	discoverydomain "github.com/micro-ha/wol-server/internal/domain/discovery"
	wakedomain "github.com/micro-ha/wol-server/internal/domain/wake"
	"github.com/micro-ha/wol-server/internal/model"
)

const (
	serverVersion   = "1.0.0"
	maxRequestBytes = 1 << 20
)

// Poller triggers an asynchronous network scan.
type Poller interface {
	TriggerRefresh()
}

// API groups HTTP handlers and dependencies.
type API struct {
	devices   devicedomain.Service
	wake      wakedomain.Service
	discovery discoverydomain.Service
	poller    Poller
	logger    *slog.Logger
}

// New creates HTTP handlers with explicit dependencies.
func New(
	devices devicedomain.Service,
	wake wakedomain.Service,
	discovery discoverydomain.Service,
	poller Poller,
	logger *slog.Logger,
) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		devices:   devices,
		wake:      wake,
		discovery: discovery,
		poller:    poller,
		logger:    logger,
	}
}

// Logger returns request logger used by HTTP middleware.
func (a *API) Logger() *slog.Logger {
	return a.logger
}

// Status reports liveness; it is the only unauthenticated API route.
func (a *API) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"message": "WOL Server is running",
		"version": serverVersion,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// writeServiceError is the single place where failure kinds become status codes.
func (a *API) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var (
		validationErr   *model.ValidationError
		transmissionErr *wakedomain.TransmissionError
		platformErr     *discoverydomain.UnsupportedPlatformError
		scanErr         *discoverydomain.ScanFailedError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Reason)
	case errors.Is(err, devicedomain.ErrDuplicateMAC):
		writeError(w, http.StatusBadRequest, "A device with this MAC address already exists")
	case errors.Is(err, devicedomain.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, "Device not found")
	case errors.As(err, &transmissionErr):
		writeError(w, http.StatusInternalServerError, "Failed to send WOL packet")
	case errors.As(err, &platformErr):
		writeError(w, http.StatusBadRequest, platformErr.Error())
	case errors.As(err, &scanErr):
		a.logger.Error("network scan failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to scan network")
	default:
		a.logger.Error(fallback, "err", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads at most maxRequestBytes; an empty body leaves dst untouched when allowEmpty.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(w, http.StatusBadRequest, "Invalid JSON payload")
	return false
}
