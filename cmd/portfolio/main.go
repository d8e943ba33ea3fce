// Package main is the entry point for the LP portfolio service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/lp-portfolio/business/ledger"
	ledgerDI "github.com/fd1az/lp-portfolio/business/ledger/di"
	"github.com/fd1az/lp-portfolio/business/liquidity"
	"github.com/fd1az/lp-portfolio/business/portfolio"
	portfolioDI "github.com/fd1az/lp-portfolio/business/portfolio/di"
	"github.com/fd1az/lp-portfolio/business/portfolio/domain"
	"github.com/fd1az/lp-portfolio/business/portfolio/infra/httpapi"
	"github.com/fd1az/lp-portfolio/business/pricing"
	"github.com/fd1az/lp-portfolio/business/strategy"
	"github.com/fd1az/lp-portfolio/internal/apm"
	"github.com/fd1az/lp-portfolio/internal/config"
	"github.com/fd1az/lp-portfolio/internal/health"
	"github.com/fd1az/lp-portfolio/internal/logger"
	"github.com/fd1az/lp-portfolio/internal/metrics"
	"github.com/fd1az/lp-portfolio/internal/monolith"
	"github.com/fd1az/lp-portfolio/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type options struct {
	configPath string
	account    string
	serve      bool
	tui        bool
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.account, "account", "", "Account address to report on")
	flag.BoolVar(&opts.serve, "serve", false, "Serve the HTTP API")
	flag.BoolVar(&opts.tui, "tui", false, "Show the report in an interactive table (requires -account)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lp-portfolio %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if !opts.serve && opts.account == "" {
		fmt.Fprintln(os.Stderr, "either -serve or -account is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// traceID prefers the active span and falls back to the HTTP request id.
func traceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return httpapi.RequestID(ctx)
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The TUI owns the terminal; logs are discarded.
	var out io.Writer = os.Stderr
	if opts.tui {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, traceID)
	log.Info(ctx, "starting lp-portfolio",
		"version", version,
		"environment", cfg.App.Environment,
	)

	var promServer *metrics.PrometheusServer
	if cfg.Telemetry.Enabled {
		tp, err := apm.NewTraceProvider(ctx, apm.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Provider:    apm.Provider(cfg.Telemetry.Exporter),
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Headers:     cfg.Telemetry.OTLPHeaders,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer tp.Stop()

		mp, err := metrics.NewMetricProvider(ctx,
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
		)
		if err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}
		defer mp.Shutdown(context.Background())

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		promServer = metrics.NewPrometheusServer(metrics.WithPort(strconv.Itoa(port)))
	}

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Modules in dependency order.
	modules := []monolith.Module{
		&ledger.Module{},
		&pricing.Module{},
		&liquidity.Module{},
		&strategy.Module{},
		&portfolio.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	svc := portfolioDI.GetPortfolioService(mono.Services())

	switch {
	case opts.serve:
		return serve(ctx, mono, promServer, log)
	case opts.tui:
		load := func(ctx context.Context) (domain.Report, error) {
			return svc.Report(ctx, opts.account)
		}
		p := tea.NewProgram(ui.New(ctx, opts.account, load), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	default:
		report, err := svc.Report(ctx, opts.account)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
}

func serve(ctx context.Context, mono monolith.Monolith, promServer *metrics.PrometheusServer, log logger.LoggerInterface) error {
	cfg := mono.Config()

	healthServer := health.NewServer(cfg.Server.HealthPort, version)
	ledgerSvc := ledgerDI.GetLedgerService(mono.Services())
	healthServer.RegisterCheck("gateway", func(ctx context.Context) (bool, string) {
		st, err := ledgerSvc.Status(ctx)
		if err != nil {
			return false, err.Error()
		}
		return true, fmt.Sprintf("%s epoch %d", st.Network, st.Epoch)
	})
	if client := mono.Redis(); client != nil {
		healthServer.RegisterCheck("redis", func(ctx context.Context) (bool, string) {
			if err := client.Ping(ctx).Err(); err != nil {
				return false, err.Error()
			}
			return true, ""
		})
	}

	api := portfolioDI.GetHTTPServer(mono.Services())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(api.Start)
	g.Go(func() error {
		if err, ok := <-healthServer.Start(); ok {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	if promServer != nil {
		log.Info(ctx, "serving metrics", "addr", promServer.Addr())
		g.Go(promServer.Start)
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := errors.Join(api.Shutdown(shutdownCtx), healthServer.Stop(shutdownCtx))
		if promServer != nil {
			err = errors.Join(err, promServer.Shutdown(shutdownCtx))
		}
		return err
	})

	return g.Wait()
}
