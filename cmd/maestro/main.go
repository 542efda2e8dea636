package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"maestro/internal/bot"
	"maestro/internal/config"
	"maestro/internal/metrics"
	"maestro/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maestro",
		Short: "Discord server audit-log bot",
		Long: `maestro watches a Discord server for deleted and edited messages,
member joins and leaves, bans, and deleted channels and threads, and posts
a report for each one to the server's configured log channel.

Running without a subcommand is the same as "maestro run".`,
		SilenceUsage: true,
		RunE:         runBot,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and start reporting events",
		RunE:  runBot,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  migrate,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "servers",
		Short: "List servers with a configured log channel",
		RunE:  listServers,
	})

	return cmd
}

func setup() (config.Config, *zap.Logger, *storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return config.Config{}, nil, nil, errors.New("DATABASE_URL is required")
	}
	store, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("storage init failed: %w", err)
	}
	return cfg, logger, store, nil
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, logger, store, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	defer store.Close()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		logger.Error("migrations failed", zap.Error(err))
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	botSvc, err := bot.New(cfg, logger, store, m)
	if err != nil {
		logger.Error("bot init failed", zap.Error(err))
		return err
	}
	if err := botSvc.Start(); err != nil {
		logger.Error("bot start failed", zap.Error(err))
		return err
	}
	logger.Info("bot started")

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr, Handler: metrics.Router(reg, store)}
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	if err := botSvc.Close(ctx); err != nil {
		logger.Warn("bot shutdown incomplete", zap.Error(err))
	}
	return nil
}

func migrate(cmd *cobra.Command, args []string) error {
	_, logger, store, err := setup()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(cmd.Context()); err != nil {
		logger.Error("migrations failed", zap.Error(err))
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func listServers(cmd *cobra.Command, args []string) error {
	_, _, store, err := setup()
	if err != nil {
		return err
	}
	defer store.Close()

	servers, err := store.ListServers(cmd.Context())
	if err != nil {
		return fmt.Errorf("list servers: %w", err)
	}
	if len(servers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No servers configured.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "GUILD\tLOG CHANNEL\tUPDATED")
	fmt.Fprintln(w, "-----\t-----------\t-------")
	for _, server := range servers {
		fmt.Fprintf(w, "%s\t%s\t%s\n", server.GuildID, server.LogChannel, server.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
