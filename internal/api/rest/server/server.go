package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/finapp/auth-service/internal/model"
)

// RESTServer wraps an http.Server with address and lifecycle methods.
type RESTServer struct {
	server *http.Server
	addr   string
}

// NewRESTServer creates a RESTServer serving handler on addr.
func NewRESTServer(handler http.Handler, addr string) *RESTServer {
	return &RESTServer{
		server: &http.Server{Handler: handler},
		addr:   addr,
	}
}

var _ model.Server = (*RESTServer)(nil)

// Start serves on the configured address using the provided security layer.
// It blocks until the server stops; a graceful Stop is not an error.
func (s *RESTServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server, waiting for in-flight requests up
// to the context deadline.
func (s *RESTServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *RESTServer) Address() string {
	return s.addr
}
