// Package mcp exposes the question answering pipeline and the ingested
// sources to MCP clients over stdio or streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/logger"
)

const (
	ServerName = "sercha-rag"
	Version    = "0.1.0"

	shutdownTimeout = 5 * time.Second
)

const instructions = `Use the search tool to answer questions from the ingested website content.
Answers are grounded only in indexed pages. Read the sercha-rag://sources
resource to see what has been ingested.`

var log = logger.With("mcp")

// Server wraps an SDK server with the sercha-rag tools and resources.
type Server struct {
	ports *Ports
	sdk   *mcp.Server
}

// NewServer registers tools and resources backed by ports. Ports.Query is
// required.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	sdk := mcp.NewServer(
		&mcp.Implementation{Name: ServerName, Version: Version},
		&mcp.ServerOptions{Instructions: instructions},
	)
	s := &Server{ports: ports, sdk: sdk}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves a single client on stdin/stdout until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	log.Debug("serving over stdio")
	return s.sdk.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves the streamable HTTP transport. Every session shares the
// same server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.sdk }, nil)
}

// RunHTTP listens on addr until ctx is done, then drains open requests.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown: %v", err)
		}
	}()

	log.Debug("serving over http on %s", ln.Addr())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}
