// Package admin implements the introspection/reload HTTP surface:
// GET /api/v1 reports the running version and the last applied config,
// POST /api/v1/reload re-parses the config file and hot-swaps the
// Gateway's Runtime. Both routes always answer 200, carrying success in
// the JSON envelope rather than the status line.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ajju10/portiq/internal/config"
	"github.com/ajju10/portiq/internal/gateway"
)

const basePath = "/api/v1"

// response is the envelope every admin route answers with.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// appMetadata is the payload of GET /api/v1.
type appMetadata struct {
	Version       string         `json:"version"`
	APIVersion    string         `json:"api_version"`
	CurrentConfig *config.Config `json:"current_config"`
}

// Server is the admin HTTP surface for one Gateway.
type Server struct {
	gw      *gateway.Gateway
	version string
	logger  *zap.Logger
	server  *http.Server
}

// New builds the admin server bound to addr, reading and reloading
// through gw.
func New(addr, version string, gw *gateway.Gateway, logger *zap.Logger) *Server {
	s := &Server{gw: gw, version: version, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc(basePath, s.handleContext)
	mux.HandleFunc(basePath+"/reload", s.handleReload)

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Serve accepts connections until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.server.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, response{Success: false, Message: "method not allowed"})
		return
	}

	rt := s.gw.Snapshot()
	writeJSON(w, response{
		Success: true,
		Message: "Context fetched successfully",
		Data: appMetadata{
			Version:       s.version,
			APIVersion:    "v1",
			CurrentConfig: rt.AppliedConfig(),
		},
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, response{Success: false, Message: "method not allowed"})
		return
	}

	if err := s.gw.Reload(); err != nil {
		s.logger.Error("config reload failed", zap.Error(err))
		writeJSON(w, response{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, response{Success: true, Message: "Config reloaded successfully"})
}

// writeJSON always answers 200: success or failure is carried in the
// envelope, never the status line.
func writeJSON(w http.ResponseWriter, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
