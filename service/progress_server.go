package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"

	reporter "github.com/testwire/trx-reporter"
)

// ProgressSource is the reporter-side state the progress endpoints serve.
type ProgressSource interface {
	// Snapshot returns the most recently emitted document, nil before the
	// first emission.
	Snapshot() []byte
	// Status returns the run's progress counters.
	Status() reporter.Status
}

// ProgressServer serves the live document at /report.trx and the progress
// counters at /status while a run is being replayed.
type ProgressServer struct {
	ctx    context.Context
	server *http.Server
	source ProgressSource
}

func (p *ProgressServer) Start(ctx context.Context, addr string, source ProgressSource) error {
	p.source = source
	hdlr := http.NewServeMux()
	hdlr.HandleFunc("/report.trx", p.HandleReport)
	hdlr.HandleFunc("/status", p.HandleStatus)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	server := &http.Server{
		Handler: c.Handler(hdlr),
		Addr:    addr,
	}
	p.server = server
	p.ctx = ctx
	return p.server.ListenAndServe()
}

func (p *ProgressServer) Shutdown() error {
	return p.server.Shutdown(p.ctx)
}

func (p *ProgressServer) HandleReport(w http.ResponseWriter, r *http.Request) {
	doc := p.source.Snapshot()
	if len(doc) == 0 {
		http.Error(w, "no document emitted yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Write(doc) //nolint:errcheck
}

func (p *ProgressServer) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p.source.Status()); err != nil {
		log.Error("Failed to encode status response", "err", err)
	}
}
