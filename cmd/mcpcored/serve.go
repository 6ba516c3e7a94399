package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/brennhill/mcpcore/internal/config"
	"github.com/brennhill/mcpcore/internal/dispatcher"
	"github.com/brennhill/mcpcore/internal/gateway"
	"github.com/brennhill/mcpcore/internal/logging"
	"github.com/brennhill/mcpcore/internal/metrics"
	"github.com/brennhill/mcpcore/internal/ratelimit"
	"github.com/brennhill/mcpcore/internal/security"
	"github.com/brennhill/mcpcore/internal/state"
	"github.com/brennhill/mcpcore/internal/template"
	"github.com/brennhill/mcpcore/internal/transport"
	"github.com/brennhill/mcpcore/internal/transport/tcp"
	"github.com/brennhill/mcpcore/internal/transport/ws"
	"github.com/brennhill/mcpcore/internal/ttl"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the mcpcore JSON-RPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	addServerFlags(cmd)
	cmd.Flags().String("transport", "tcp", "reference transport to bind (tcp|ws)")
	cmd.Flags().String("admin-addr", "", "address for the /healthz, /metrics and gateway admin HTTP endpoints (empty disables it)")
	cmd.Flags().String("sweep-interval", "5m", "period between rate-limiter stale-client sweeps and metrics history snapshots (empty disables it)")
	return cmd
}

func runServe(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, flagOverrides(cmd))
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logFile := cfg.LogFile
	if logFile == "" {
		if f, err := state.DefaultLogFile(); err == nil {
			logFile = f
		}
	}
	log, err := logging.New(cfg.LogLevel, logFile)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	collector := metrics.New(metrics.Config{})
	acl := security.New()
	limiter := ratelimit.New(log.WithField("component", "ratelimit"))

	gatewayCfgPath := cfg.GatewayConfig
	if gatewayCfgPath == "" {
		if p, err := state.DefaultGatewayConfigFile(); err == nil {
			gatewayCfgPath = p
		}
	}
	router := gateway.New(log.WithField("component", "gateway"))
	if gatewayCfgPath != "" {
		if err := router.Reload(gatewayCfgPath); err != nil {
			log.WithError(err).Warn("serve: initial gateway config load failed, continuing with no routes")
		}
	}
	var watcher *gateway.Watcher
	if gatewayCfgPath != "" {
		watcher, err = gateway.WatchConfig(router, gatewayCfgPath)
		if err != nil {
			log.WithError(err).Warn("serve: gateway config file watch unavailable")
		}
	}

	tplCache := template.NewCache()
	server := dispatcher.New(dispatcher.Config{
		Name:          "mcpcore",
		Version:       version,
		Pool:          dispatcher.AutoAdjustedPoolConfig(),
		RateLimiter:   limiter,
		Security:      acl,
		TemplateCache: tplCache,
		Metrics:       collector,
		Log:           log.WithField("component", "dispatcher"),
	})

	sweepIntervalFlag, _ := cmd.Flags().GetString("sweep-interval")
	sweepInterval, err := ttl.ParseTTL(sweepIntervalFlag)
	if err != nil {
		return fmt.Errorf("--sweep-interval: %w", err)
	}
	var scheduler *cron.Cron
	if sweepInterval > 0 {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc("@every "+sweepInterval.String(), func() {
			evicted := limiter.SweepStale(sweepInterval)
			collector.RecordSnapshot()
			log.WithField("evicted_clients", evicted).Debug("serve: maintenance sweep complete")
		}); err != nil {
			return fmt.Errorf("schedule maintenance sweep: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	addr := cfg.Addr()
	transportKind, _ := cmd.Flags().GetString("transport")
	var t transport.Transport
	switch transportKind {
	case "ws":
		t = ws.New(ws.Config{Addr: addr, Log: log.WithField("component", "transport.ws")})
	case "tcp", "":
		t = tcp.New(tcp.Config{Addr: addr, Log: log.WithField("component", "transport.tcp")})
	default:
		return fmt.Errorf("unknown --transport %q (want tcp or ws)", transportKind)
	}

	if err := server.Start(t); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}
	defer server.Destroy()

	if pidPath, err := state.PIDFile(cfg.Port); err == nil {
		if werr := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644); werr != nil {
			log.WithError(werr).Warn("serve: could not write PID file")
		} else {
			defer os.Remove(pidPath)
		}
	}

	var adminSrv *http.Server
	if adminAddr, _ := cmd.Flags().GetString("admin-addr"); adminAddr != "" {
		adminSrv = &http.Server{Addr: adminAddr, Handler: newAdminRouter(collector, router)}
		go func() {
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Warn("serve: admin HTTP server stopped")
			}
		}()
		defer adminSrv.Close()
	}

	log.WithField("addr", addr).WithField("transport", transportKind).Info("serve: listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			if gatewayCfgPath != "" {
				if err := router.Reload(gatewayCfgPath); err != nil {
					log.WithError(err).Warn("serve: SIGHUP gateway reload failed, keeping prior configuration")
				} else {
					log.Info("serve: gateway configuration reloaded via SIGHUP")
				}
			}
			continue
		}
		log.WithField("signal", sig.String()).Info("serve: shutting down")
		break
	}

	if watcher != nil {
		watcher.Close()
	}
	return nil
}

// newAdminRouter builds the reference chi HTTP surface for health checks,
// Prometheus scraping, and the gateway's admin reload endpoint (mcpcore
// §6 "reload on SIGHUP or equivalent admin API"). This is outside core
// scope (§1) but mirrors the teacher driver's HTTP routes, continuing
// 68c35183_erauner12-toolbridge-api's chi usage.
func newAdminRouter(collector *metrics.Collector, router *gateway.Router) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
	r.Post("/gateway/reload", func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Query().Get("config")
		if path == "" {
			http.Error(w, "missing config query parameter", http.StatusBadRequest)
			return
		}
		if err := router.Reload(path); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
