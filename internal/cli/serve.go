package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"git.sr.ht/~jakintosh/portal/internal/portals"
	"git.sr.ht/~jakintosh/portal/internal/web"
	"git.sr.ht/~jakintosh/portal/internal/workspace"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the active portal as a web page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				app.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.withPortals(func(ps *portals.Store) error {
				return serve(ctx, app, ps)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func serve(ctx context.Context, app *App, ps *portals.Store) error {
	log := app.logger

	active, err := ps.Active()
	if err != nil {
		return err
	}
	fetcher, sink, err := app.transports()
	if err != nil {
		return err
	}

	ws := workspace.New(active.Name, fetcher, sink, log)
	created, err := ws.OpenOrCreate(ctx, active.Name)
	if err != nil {
		return err
	}
	if created {
		log.Info("Portal has no document yet, starting empty", zap.String("portal", active.Name))
	}

	handler, err := web.NewServer(ws, ps, log)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              app.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting server", zap.String("addr", srv.Addr), zap.String("portal", active.Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("Shutting down server")
		if snap := ws.Snapshot(); snap.Dirty {
			log.Warn("Discarding unsaved changes", zap.String("portal", snap.Portal), zap.Uint64("changes", snap.Changes))
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
