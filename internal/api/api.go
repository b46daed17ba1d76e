//nolint:revive // exported
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
)

// Service is one mounted RPC procedure or handler.
type Service struct {
	Handler http.Handler
	Path    string
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Accept-Post",
			"Connect-Accept-Encoding",
			"Connect-Content-Encoding",
			"Content-Encoding",
		},
		MaxAge: int(time.Second),
	})
}

// Server mode constants
const (
	ServerModeUDS = "uds"
	ServerModeTCP = "tcp"
)

func newH2CServer(mux *http.ServeMux) *http.Server {
	return &http.Server{
		// NOTE: ConnectRPC requires an address even for Unix sockets.
		Addr:              "echoline:0",
		ReadHeaderTimeout: 10 * time.Second,
		// INFO: h2c serves HTTP/2 without TLS.
		Handler: h2c.NewHandler(newCORS().Handler(mux), &http2.Server{
			IdleTimeout:          0,
			MaxConcurrentStreams: 100000,
		}),
	}
}

// ListenServices mounts every service on a mux and serves it until ctx is
// canceled, then drains the server.
func ListenServices(ctx context.Context, services []*Service, mode, port, socketPath string) error {
	mux := http.NewServeMux()

	for _, service := range services {
		slog.Info("Registering service", "path", service.Path)
		mux.Handle(service.Path, service.Handler)
	}

	srv := newH2CServer(mux)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		switch mode {
		case ServerModeTCP:
			err = listenTCP(srv, port)
		case ServerModeUDS:
			err = listenIPC(srv, socketPath)
		default:
			slog.Warn("Unknown server mode, falling back to tcp", "mode", mode)
			err = listenTCP(srv, port)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func listenTCP(srv *http.Server, port string) error {
	srv.Addr = ":" + port
	slog.Info("Server listening on TCP", "port", port)
	return srv.ListenAndServe()
}
