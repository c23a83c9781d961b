// Package coordinatorapi exposes the coordinator's control and debug
// surface over HTTP: triggering checks/updates, querying state, and a
// live status stream.
//
// Grounded on the teacher's api/v1 package (Downloads handler type,
// sentinel errors, decodeJSONStrict, middleware chain) and
// internal/router (mux.Router wiring), generalized from the
// download-CRUD domain to the update-coordinator domain.
package coordinatorapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tinoosan/torrusd/internal/coordinator"
	"github.com/tinoosan/torrusd/internal/update"
)

// API holds the coordinator and exposes one handler method per operation.
type API struct {
	log *slog.Logger
	c   *coordinator.Coordinator
}

func New(log *slog.Logger, c *coordinator.Coordinator) *API {
	if log == nil {
		log = slog.Default()
	}
	return &API{log: log, c: c}
}

var kindsByPathSegment = map[string]update.Kind{
	"news":            update.KindNews,
	"router-signed":   update.KindRouterSigned,
	"router-unsigned": update.KindRouterUnsigned,
	"plugin":          update.KindPlugin,
	"dummy":           update.KindDummy,
}

func identityFromVars(r *http.Request) (update.Identity, error) {
	vars := mux.Vars(r)
	seg, ok := vars["kind"]
	if !ok || seg == "" {
		return update.Identity{}, ErrMissingKind
	}
	kind, ok := kindsByPathSegment[seg]
	if !ok {
		return update.Identity{}, ErrInvalidKind
	}
	return update.Identity{Kind: kind, ID: vars["id"]}, nil
}

// snapshotView is the JSON shape status endpoints return for one identity.
type snapshotView struct {
	Kind       string `json:"kind"`
	ID         string `json:"id,omitempty"`
	Installed  string `json:"installed,omitempty"`
	Downloaded string `json:"downloaded,omitempty"`
	Available  string `json:"available,omitempty"`
	Checking   bool   `json:"checking"`
	Updating   bool   `json:"updating"`
}

func (a *API) view(id update.Identity) snapshotView {
	v := snapshotView{
		Kind:     string(id.Kind),
		ID:       id.ID,
		Checking: a.c.IsCheckInProgress(id),
		Updating: a.c.IsUpdateInProgress(id),
	}
	if inst, ok := a.c.Store().Installed(id); ok {
		v.Installed = string(inst)
	}
	if dl, ok := a.c.Store().Downloaded(id); ok {
		v.Downloaded = string(dl)
	}
	if av, ok := a.c.Store().Available(id); ok {
		v.Available = string(av.Version)
	}
	return v
}

// GetStatus reports one identity's state across all three tiers.
func (a *API) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromVars(r)
	if err != nil {
		markErr(w, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, a.view(id))
}

// Check triggers an asynchronous check for one identity.
func (a *API) Check(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromVars(r)
	if err != nil {
		markErr(w, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.c.Check(r.Context(), id); err != nil {
		markErr(w, err)
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// CheckAvailable triggers a check and blocks (bounded by ?maxWaitMs=) until
// it finishes or the wait elapses, returning the resulting view either way.
func (a *API) CheckAvailable(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromVars(r)
	if err != nil {
		markErr(w, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	maxWait := parseMillis(r, "maxWaitMs", 5*time.Second)
	a.c.CheckAvailable(r.Context(), id, maxWait)
	writeJSON(w, http.StatusOK, a.view(id))
}

// Update triggers an asynchronous update for one identity.
func (a *API) Update(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromVars(r)
	if err != nil {
		markErr(w, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	maxTime := parseMillis(r, "maxTimeMs", 0)
	if err := a.c.Update(r.Context(), id, maxTime); err != nil {
		markErr(w, err)
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type installPluginBody struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// InstallPlugin seeds and installs a plugin from the request body.
func (a *API) InstallPlugin(w http.ResponseWriter, r *http.Request) {
	var body installPluginBody
	if err := decodeJSONStrict(w, r, &body, 1<<16); err != nil {
		markErr(w, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.URI == "" {
		markErr(w, ErrMissingURI)
		http.Error(w, ErrMissingURI.Error(), http.StatusBadRequest)
		return
	}
	if err := a.c.InstallPlugin(r.Context(), body.Name, body.URI); err != nil {
		markErr(w, err)
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// StopCheck stops the active checker, if any, for one identity.
func (a *API) StopCheck(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromVars(r)
	if err != nil {
		markErr(w, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.c.StopCheck(id)
	w.WriteHeader(http.StatusNoContent)
}

// StopUpdate stops the active updater, if any, for one identity.
func (a *API) StopUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromVars(r)
	if err != nil {
		markErr(w, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.c.StopUpdate(id)
	w.WriteHeader(http.StatusNoContent)
}

// StopChecks stops every active checker.
func (a *API) StopChecks(w http.ResponseWriter, r *http.Request) {
	a.c.StopChecks()
	w.WriteHeader(http.StatusNoContent)
}

// StopUpdates stops every active updater.
func (a *API) StopUpdates(w http.ResponseWriter, r *http.Request) {
	a.c.StopUpdates()
	w.WriteHeader(http.StatusNoContent)
}

// DebugStatus renders the fixed-shape HTML status page.
func (a *API) DebugStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(a.c.RenderStatusHTML()))
}

func parseMillis(r *http.Request, param string, def time.Duration) time.Duration {
	v := r.URL.Query().Get(param)
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
