// Package server wires storage, services and RPC handlers together.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"

	"github.com/echoline/echoline/internal/api"
	"github.com/echoline/echoline/internal/api/middleware/mwauth"
	"github.com/echoline/echoline/internal/api/middleware/mwcodec"
	"github.com/echoline/echoline/internal/api/rhealth"
	"github.com/echoline/echoline/internal/api/rmembership"
	"github.com/echoline/echoline/internal/api/rorg"
	"github.com/echoline/echoline/internal/config"
	"github.com/echoline/echoline/pkg/service/sorg"
	"github.com/echoline/echoline/pkg/service/ssession"
	"github.com/echoline/echoline/pkg/service/suser"
	"github.com/echoline/echoline/pkg/store"
	"github.com/echoline/echoline/pkg/zstdcompress"
)

// Run starts the server and blocks until SIGINT/SIGTERM.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	db, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	orgService := sorg.New(db)
	userService := suser.New(db)
	resolver := ssession.NewResolver(db)

	options := []connect.HandlerOption{
		connect.WithInterceptors(
			mwauth.NewAuthInterceptor(resolver, userService, []byte(cfg.AuthSecret)),
			connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
				return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
					return mwauth.CrashInterceptor(ctx, req, next)
				}
			}),
		),
		mwcodec.WithJSONCodec(),
		zstdcompress.WithCompression(),
	}

	var services []*api.Service

	orgServices, err := rorg.CreateService(rorg.New(rorg.OrgServiceRPCDeps{
		Reader: orgService.Reader(),
		Writer: orgService.Writer(),
	}), options)
	if err != nil {
		return fmt.Errorf("org service: %w", err)
	}
	services = append(services, orgServices...)

	membershipServices, err := rmembership.CreateService(rmembership.New(rmembership.MembershipServiceRPCDeps{
		Reader: orgService.Reader(),
	}), options)
	if err != nil {
		return fmt.Errorf("membership service: %w", err)
	}
	services = append(services, membershipServices...)

	// Health stays outside the auth interceptor.
	healthServices, err := rhealth.CreateService(rhealth.New(), []connect.HandlerOption{mwcodec.WithJSONCodec()})
	if err != nil {
		return fmt.Errorf("health service: %w", err)
	}
	services = append(services, healthServices...)

	return api.ListenServices(ctx, services, cfg.Mode, cfg.Port, cfg.SocketPath)
}
