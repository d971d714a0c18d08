package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-todos/config"
	"github.com/goliatone/go-todos/logging"
	"github.com/goliatone/go-todos/pkg/di"
)

const shutdownTimeout = 10 * time.Second

func newRootCommand() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:           "todos",
		Short:         "GraphQL todo service with a read-through cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("dsn", "", "store DSN (memory://, sqlite file or postgres:// URL)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = v.BindPFlag(config.KeyDatabaseDSN, root.PersistentFlags().Lookup("dsn"))
	_ = v.BindPFlag(config.KeyLogLevel, root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newServeCommand(v), newMigrateCommand(v))
	return root
}

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Migrate the store and serve the GraphQL API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), v, func(ctx context.Context, c *di.Container) error {
				if err := c.Migrate(ctx); err != nil {
					return errors.Wrap(err, "migrate store")
				}
				return serve(ctx, c)
			})
		},
	}

	cmd.Flags().String("addr", "", "listen address")
	_ = v.BindPFlag(config.KeyServerAddr, cmd.Flags().Lookup("addr"))
	return cmd
}

func newMigrateCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the todos table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), v, func(ctx context.Context, c *di.Container) error {
				if err := c.Migrate(ctx); err != nil {
					return errors.Wrap(err, "migrate store")
				}
				c.Logger().Info("Store migrated")
				return nil
			})
		},
	}
}

func withContainer(ctx context.Context, v *viper.Viper, fn func(context.Context, *di.Container) error) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	c, err := di.NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			c.Logger().Error("Failed to close store", err)
		}
	}()

	return fn(ctx, c)
}

// serve runs the HTTP server until ctx is canceled, then drains it.
func serve(ctx context.Context, c *di.Container) error {
	logger := c.Logger().Named("Server")
	e := c.Server()
	addr := c.Config().Server.Addr

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Listening", logging.Fields{"addr": addr})
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
