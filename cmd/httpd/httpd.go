// Package httpd implements the httpd command, which serves the scanner API.
package httpd

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/form-scanner/cmd/common"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/api"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/logger"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/metrics"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/scanner"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/store"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Command returns the httpd command.
func Command(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Serve the form scanner HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			if deps.Config.Service.Version == "dev" {
				deps.Config.Service.Version = version
			}
			return Run(cmd.Context(), deps)
		},
	}
}

// Run serves the API until ctx is cancelled or the process is signalled.
func Run(ctx context.Context, deps common.CommandDeps) error {
	if err := deps.Validate(); err != nil {
		return err
	}
	cfg := deps.Config
	log := deps.Logger

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Warn("Failed to close store", logger.Error(closeErr))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := scanner.FromConfig(cfg, log, scanner.WithStore(st), scanner.WithObserver(m))
	handler := api.NewHandler(svc, m, log)

	checks := map[string]api.HealthCheck{}
	if p, ok := st.(pinger); ok {
		checks["store"] = p.Ping
	}

	server := api.NewServer(api.ServerConfig{
		Port:           cfg.Service.Port,
		Debug:          cfg.Service.Debug,
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
	}, log, m, func(router *gin.Engine) {
		api.RegisterHealthRoutes(router, cfg.Service.Name, cfg.Service.Version, checks)
		api.SetupRoutes(router, handler, reg)
	})

	log.Info("Form scanner ready",
		logger.String("store", cfg.Store.Backend),
		logger.Bool("respect_robots", cfg.Fetcher.RespectRobots),
	)
	return server.Run(ctx)
}
