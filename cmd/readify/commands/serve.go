package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"readify/app"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the order events consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply schema migrations before serving")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	log := rt.logger

	a, err := app.New(ctx, rt.cfg, rt.aws, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("Shutdown cleanup failed", zap.Error(err))
		}
	}()

	if migrate {
		if err := runMigrations(ctx, a); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              ":" + rt.cfg.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Readify API started", zap.String("port", rt.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		a.RateLimiter.Run(gctx)
		return nil
	})

	if consumer := a.OrderEventsConsumer(); consumer != nil {
		g.Go(func() error {
			err := consumer.StartPolling(gctx, a.OrderEvents.Handle)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		log.Warn("ORDER_EVENTS_QUEUE_URL not set, order events consumer disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Readify API stopped")
	return nil
}
