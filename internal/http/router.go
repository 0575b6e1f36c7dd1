package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/micro-ha/wol-server/internal/http/auth"
	"github.com/micro-ha/wol-server/internal/http/handlers"
)

const defaultRequestTimeout = 20 * time.Second

// RouterOptions carries the collaborators that sit around the API handlers.
type RouterOptions struct {
	JWTSecret      string
	AllowedOrigins []string
	// RequestTimeout bounds every API call except the event stream.
	RequestTimeout time.Duration
	Metrics        http.Handler
	Events         http.Handler
	Observer       StatusObserver
}

// NewRouter builds full HTTP routing tree for the wake-on-LAN API.
func NewRouter(api *handlers.API, opts RouterOptions) http.Handler {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RecoverJSON)
	r.Use(StripIngressPrefix)
	r.Use(RequestLogger(api, opts.Observer))
	r.Use(CORS(opts.AllowedOrigins))

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api", func(apiRouter chi.Router) {
		apiRouter.Get("/status", api.Status)

		apiRouter.Group(func(protected chi.Router) {
			protected.Use(auth.Middleware(opts.JWTSecret))

			if opts.Events != nil {
				protected.Method(http.MethodGet, "/events", opts.Events)
			}

			protected.Group(func(bounded chi.Router) {
				bounded.Use(middleware.Timeout(timeout))

				bounded.Get("/network/scan", api.ScanNetwork)
				bounded.Post("/network/refresh", api.Refresh)

				bounded.Get("/devices", api.ListDevices)
				bounded.Post("/devices", api.CreateDevice)
				bounded.Get("/devices/{id}", func(w http.ResponseWriter, r *http.Request) {
					api.GetDevice(w, r, chi.URLParam(r, "id"))
				})
				bounded.Patch("/devices/{id}", func(w http.ResponseWriter, r *http.Request) {
					api.PatchDevice(w, r, chi.URLParam(r, "id"))
				})
				bounded.Delete("/devices/{id}", func(w http.ResponseWriter, r *http.Request) {
					api.DeleteDevice(w, r, chi.URLParam(r, "id"))
				})
				bounded.Post("/devices/{id}/wake", func(w http.ResponseWriter, r *http.Request) {
					api.WakeDevice(w, r, chi.URLParam(r, "id"))
				})
				bounded.Post("/wake", api.Wake)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}
