package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/roadsense/roadsense/pkg/responseformat"
	"go.uber.org/zap"
)

// StatusServer exposes the gateway's receive counters, link quality, and
// last decoded record over HTTP for local diagnostics.
type StatusServer struct {
	gw        *Gateway
	server    *http.Server
	formatter *responseformat.Formatter
	logger    *zap.SugaredLogger
}

// NewStatusServer creates a status server listening on addr.
func NewStatusServer(gw *Gateway, addr string, logger *zap.SugaredLogger) *StatusServer {
	s := &StatusServer{
		gw:        gw,
		formatter: responseformat.NewFormatter(),
		logger:    logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/status", s.handleStatus)
	router.HandleFunc("/latest", s.handleLatest)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	return s
}

// Start launches the server and shuts it down when the context is
// cancelled.
func (s *StatusServer) Start(ctx context.Context) {
	go func() {
		s.logger.Infof("status API listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("status API server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.server.Shutdown(context.Background())
	}()
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if err := s.formatter.WriteResponse(w, r, s.gw.Status()); err != nil {
		s.logger.Errorf("writing status response: %v", err)
	}
}

func (s *StatusServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	rec := s.gw.LastRecord()
	if rec == nil {
		http.Error(w, "no records received yet", http.StatusNotFound)
		return
	}
	if err := s.formatter.WriteResponse(w, r, rec); err != nil {
		s.logger.Errorf("writing latest-record response: %v", err)
	}
}
