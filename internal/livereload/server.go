package livereload

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/watch"
	"github.com/zishang520/socket.io/v2/socket"
)

// Event names emitted to connected clients.
const (
	EventReload     = "reload"
	EventBuildError = "build_error"
)

// SocketPath is where the socket.io endpoint is mounted.
const SocketPath = "/socket.io/"

// Payload is the data of a reload or build_error event.
type Payload struct {
	Group    string   `json:"group"`
	Class    string   `json:"class"`
	Tasks    []string `json:"tasks"`
	Failed   []string `json:"failed,omitempty"`
	Duration string   `json:"duration"`
}

// Server is the live-reload and health check server.
type Server struct {
	io         *socket.Server
	httpServer *http.Server
	listener   net.Listener
	clients    atomic.Int32
}

// NewServer creates a server that will listen on addr, e.g. ":35729".
func NewServer(addr string) *Server {
	s := &Server{io: socket.NewServer(nil, nil)}
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		s.clients.Add(1)
		client.On("disconnect", func(...any) { s.clients.Add(-1) })
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle(SocketPath, s.io.ServeHandler(nil))
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Clients returns the number of connected live-reload clients.
func (s *Server) Clients() int {
	return int(s.clients.Load())
}

// healthHandler answers liveness probes.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(r.Context()).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("live-reload server: %w", err)
	}
	s.listener = ln

	go func() {
		logger.Info("Live-reload server starting.", "address", fmt.Sprintf("http://%s", ln.Addr()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Live-reload server failed unexpectedly.", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown closes client connections and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Closing live-reload server...")
	s.io.Close(nil)

	if s.listener == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Live-reload server shutdown failed.", "error", err)
		return err
	}
	logger.Debug("Live-reload server shut down gracefully.")
	return nil
}

// Notify broadcasts a finished rebuild: reload when it succeeded,
// build_error otherwise.
func (s *Server) Notify(ctx context.Context, r watch.Rebuild) {
	event := EventReload
	if len(r.Failed) > 0 {
		event = EventBuildError
	}
	ctxlog.FromContext(ctx).Debug("Broadcasting rebuild.", "event", event, "group", r.Group, "clients", s.Clients())
	s.io.Emit(event, NewPayload(r))
}

// NewPayload converts a rebuild into its wire form.
func NewPayload(r watch.Rebuild) Payload {
	return Payload{
		Group:    r.Group,
		Class:    string(r.Class),
		Tasks:    r.Tasks,
		Failed:   r.Failed,
		Duration: r.Duration.Round(time.Millisecond).String(),
	}
}
