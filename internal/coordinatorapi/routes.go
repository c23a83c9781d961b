package coordinatorapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tinoosan/torrusd/internal/auth"
	"github.com/tinoosan/torrusd/internal/coordinator"
)

// NewRouter builds the mux.Router exposing the coordinator's control, debug, and
// observability surface.
//
// Grounded on the teacher's internal/router/routes.go New: same
// /healthz-before-auth, middleware-then-subrouter structure.
func NewRouter(log *slog.Logger, c *coordinator.Coordinator) *mux.Router {
	if log == nil {
		log = slog.Default()
	}
	api := New(log, c)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")
	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/debug/status", api.DebugStatus).Methods("GET")
	r.HandleFunc("/ws/status", api.WatchStatus)

	r.Use(Log(log))
	r.Use(RequestID)
	r.Use(auth.Middleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	get := v1.Methods("GET").Subrouter()
	get.HandleFunc("/status/{kind}", api.GetStatus)
	get.HandleFunc("/status/{kind}/{id}", api.GetStatus)
	get.HandleFunc("/check/{kind}", api.CheckAvailable)
	get.HandleFunc("/check/{kind}/{id}", api.CheckAvailable)

	post := v1.Methods("POST").Subrouter()
	post.HandleFunc("/check/{kind}", api.Check)
	post.HandleFunc("/check/{kind}/{id}", api.Check)
	post.HandleFunc("/update/{kind}", api.Update)
	post.HandleFunc("/update/{kind}/{id}", api.Update)
	post.HandleFunc("/plugins", api.InstallPlugin)
	post.HandleFunc("/stop/checks", api.StopChecks)
	post.HandleFunc("/stop/updates", api.StopUpdates)
	post.HandleFunc("/stop/check/{kind}", api.StopCheck)
	post.HandleFunc("/stop/check/{kind}/{id}", api.StopCheck)
	post.HandleFunc("/stop/update/{kind}", api.StopUpdate)
	post.HandleFunc("/stop/update/{kind}/{id}", api.StopUpdate)

	return r
}
