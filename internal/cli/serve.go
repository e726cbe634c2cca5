package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/inventory-service/internal/auth"
	"github.com/fairyhunter13/inventory-service/internal/config"
	httpapi "github.com/fairyhunter13/inventory-service/internal/http"
	"github.com/fairyhunter13/inventory-service/internal/inventory"
	"github.com/fairyhunter13/inventory-service/internal/obs"
	"github.com/fairyhunter13/inventory-service/internal/seed"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the inventory HTTP API until SIGINT or SIGTERM.

Example:
  inventory-service serve --addr :8000
  STORAGE_DRIVER=document DOCUMENT_DIR=./data inventory-service serve`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.RootOptions, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, cfg, nil)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides HTTP_ADDR)")

	return cmd
}

// Serve opens storage, builds the service and serves HTTP until ctx is
// done. When ready is non-nil it receives the bound listener address.
func Serve(ctx context.Context, cfg config.Config, ready chan<- string) error {
	obs.Logger.Info("service_starting",
		"storage_driver", cfg.StorageDriver,
		"document_driver", cfg.DocumentDriver,
		"addr", cfg.HTTPAddr,
	)

	svc, closeBackend, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			obs.Logger.Warn("storage_close_error", "error", err)
		}
	}()

	dir := auth.NewDirectory()
	if err := dir.Add(cfg.AdminUsername, cfg.AdminPassword, auth.RoleAdmin); err != nil {
		return fmt.Errorf("admin user: %w", err)
	}

	if cfg.SeedOnStart {
		if _, err := seed.Seed(ctx, svc, seed.Starter()); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	app := httpapi.NewApp(cfg, svc, dir)
	srv := &http.Server{
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}
	obs.Logger.Info("http_listen", "addr", ln.Addr().String(), "storage", svc.Backend().Name())
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errc := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			obs.Logger.Error("http_server_error", "error", err)
			return err
		}
	case <-ctx.Done():
		obs.Logger.Info("shutdown_signal")
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
		return err
	}
	obs.Logger.Info("service_stopped")
	return nil
}

// openService opens the configured backend and wraps it in a Service. The
// returned func closes the backend.
func openService(ctx context.Context, cfg config.Config) (*inventory.Service, func() error, error) {
	policy, err := inventory.ParseNamePolicy(cfg.UpdateNamePolicy)
	if err != nil {
		return nil, nil, err
	}
	b, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return inventory.NewService(b, inventory.WithNamePolicy(policy)), b.Close, nil
}
