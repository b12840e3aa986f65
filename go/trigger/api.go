package trigger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.gazette.dev/core/server"

	"github.com/malawley/hygiene-prediction-clean/go/pipeline"
)

// RegisterAPIs registers all trigger APIs with the *Server instance.
func RegisterAPIs(srv *server.Server, router *Router) {
	srv.HTTPMux.Handle("/", NewHandler(router))
}

// NewHandler returns the trigger's HTTP API surface. The event ingress
// lives at /clean for historical reasons: it predates the trigger
// routing anything but the cleaner.
func NewHandler(router *Router) http.Handler {
	var m = mux.NewRouter()

	m.
		Path("/run").
		Methods("POST").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveRun(router, w, r) })
	m.
		Path("/clean").
		Methods("POST").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveEvent(router, w, r) })
	m.
		Path("/purge").
		Methods("POST").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { servePurge(router, w, r) })
	m.
		Path("/health").
		Methods("GET").
		HandlerFunc(serveHealth)

	return m
}

func serveRun(router *Router, w http.ResponseWriter, r *http.Request) {
	var req pipeline.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.ClampProbabilities()

	log.WithFields(log.Fields{
		"date":      req.Date,
		"maxOffset": req.MaxOffset,
		"api":       req.APIErrorProb,
		"gcs":       req.GCSErrorProb,
		"drop":      req.RowDropProb,
		"delay":     req.DelayProb,
	}).Info("pipeline run requested")

	if err := router.StartRun(r.Context(), req); err != nil {
		log.WithField("err", err).Error("failed to start extractor")
		http.Error(w, "failed to start extractor", http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pipeline started"))
}

func serveEvent(router *Router, w http.ResponseWriter, r *http.Request) {
	var ev pipeline.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if ev.Event == "" {
		http.Error(w, "missing event", http.StatusBadRequest)
		return
	}

	var disposition = router.Route(r.Context(), ev)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(disposition))
}

func servePurge(router *Router, w http.ResponseWriter, _ *http.Request) {
	router.Cache.Purge()
	log.Info("completion cache purged")

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("completion cache purged"))
}

func serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","time":"%s"}`, time.Now().Format(time.RFC3339))
}
