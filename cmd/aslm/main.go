// Package main implements the MCP server for browsing an asset library.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/aslm/internal/booth"
	"github.com/taigrr/aslm/internal/catalog"
	"github.com/taigrr/aslm/internal/config"
	"github.com/taigrr/aslm/internal/filesystem"
	"github.com/taigrr/aslm/internal/logging"
	"github.com/taigrr/aslm/internal/metrics"
	"github.com/taigrr/aslm/internal/navigation"
	"github.com/taigrr/aslm/internal/pathfilter"
)

var (
	navigator      *navigation.Controller
	productCatalog *catalog.Catalog
	settings       *config.Store
	boothClient    *booth.Client
	logger         = zap.NewNop()
)

var (
	configPath  string
	logLevel    string
	metricsAddr string
)

func main() {
	cmd := &cobra.Command{
		Use:   "aslm [home-path]",
		Short: "MCP bridge for browsing an asset library",
		Long: `aslm is a Model Context Protocol (MCP) server for browsing a library
of purchased asset packages. It keeps a current directory with
back/forward history, tracks the product you are browsing inside,
and records product links and tags in a local catalog.`,
		Example: `aslm D:/VRChatAssetPack`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runServer,
	}

	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath(), "path to the config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	if err := fang.Execute(
		context.Background(),
		cmd,
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	config.LoadEnvFile()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.HomePath = args[0]
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()
	logger = logging.L()

	// Initialize services
	productCatalog, err = catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	settings = config.NewStore(configPath, cfg)
	boothClient = booth.New()

	pf := pathfilter.New(cfg.PathFilter())
	fileSystem := filesystem.New(pf, productCatalog,
		filesystem.WithAutoRegister(cfg.AutoRegister),
		filesystem.WithLogger(logger.Named("filesystem")),
	)

	reg := prometheus.NewRegistry()
	recorder := metrics.NewNavigation(reg)
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer srv.Close()
	}

	navigator = navigation.New(cfg.HomePath, fileSystem, productCatalog,
		navigation.WithLogger(logger.Named("navigation")),
		navigation.WithRecorder(recorder),
	)

	if _, err := navigator.Refresh(cmd.Context()); err != nil {
		logger.Warn("initial listing failed", zap.String("homePath", navigator.HomePath()), zap.Error(err))
	}

	logger.Info("starting server",
		zap.String("version", version),
		zap.String("homePath", navigator.HomePath()),
		zap.String("catalog", productCatalog.Path()),
	)

	// Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "aslm",
		Version: version,
	}, nil)

	registerTools(server)

	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("error running server: %w", err)
	}

	return nil
}

func serveMetrics(addr string, g prometheus.Gatherer, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
