package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.gazette.dev/core/server"

	"github.com/malawley/hygiene-prediction-clean/go/pipeline"
)

// RegisterAPIs registers all extractor APIs with the *Server instance.
func RegisterAPIs(srv *server.Server, extractor *Extractor) {
	srv.HTTPMux.Handle("/", NewHandler(extractor))
}

// NewHandler returns the extractor's HTTP API surface.
func NewHandler(extractor *Extractor) http.Handler {
	var router = mux.NewRouter()

	router.
		Path("/extract").
		Methods("POST").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveExtract(extractor, w, r) })
	router.
		Path("/shutdown").
		Methods("POST").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveShutdown(extractor, w, r) })
	router.
		Path("/health").
		Methods("GET").
		HandlerFunc(serveHealth)

	return router
}

// serveExtract accepts a RunRequest and starts the extraction
// asynchronously. The response doesn't await the run: the manifest and
// the completion event report its outcome.
func serveExtract(extractor *Extractor, w http.ResponseWriter, r *http.Request) {
	var req pipeline.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	go func() {
		// The run outlives the request; don't inherit its context.
		if err := extractor.Extract(context.Background(), req); err != nil {
			log.WithFields(log.Fields{"date": req.Date, "err": err}).Error("extraction run failed")
		}
	}()

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Extractor started"))
}

func serveShutdown(extractor *Extractor, w http.ResponseWriter, _ *http.Request) {
	extractor.RequestShutdown()
	log.Info("shutdown requested via API")

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("shutting down after current chunk"))
}

func serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","time":"%s"}`, time.Now().Format(time.RFC3339))
}
