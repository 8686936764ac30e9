// Package supervisor runs every configured listener's accept loop
// concurrently under one cancellation signal and drains them together
// on shutdown.
package supervisor

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server is anything that runs until ctx is cancelled and then stops,
// returning nil on a clean shutdown. frontend.HTTP, frontend.TCP, and
// admin.Server all satisfy this.
type Server interface {
	Serve(ctx context.Context) error
}

// entry names a Server for logging.
type entry struct {
	name   string
	server Server
}

// Supervisor owns the set of servers started together and stopped
// together.
type Supervisor struct {
	logger  *zap.Logger
	entries []entry
}

// New builds an empty Supervisor.
func New(logger *zap.Logger) *Supervisor {
	return &Supervisor{logger: logger}
}

// Add registers a named server to run when Run is called.
func (s *Supervisor) Add(name string, server Server) {
	s.entries = append(s.entries, entry{name: name, server: server})
}

// Run starts every registered server and blocks until ctx is
// cancelled and all of them have returned, or any one of them fails,
// in which case the rest are cancelled too. A bind failure at startup
// on any listener is therefore fatal to the whole process.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, e := range s.entries {
		e := e
		g.Go(func() error {
			s.logger.Info("starting listener", zap.String("name", e.name))
			if err := e.server.Serve(gctx); err != nil {
				return fmt.Errorf("%s: %w", e.name, err)
			}
			s.logger.Info("listener stopped", zap.String("name", e.name))
			return nil
		})
	}

	return g.Wait()
}
