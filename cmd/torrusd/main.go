// Command torrusd runs the Update Coordinator as a standalone daemon:
// it wires the coordinator to its host collaborators, registers every
// configured transport, and exposes the control/debug/observability
// surface over HTTP.
//
// Grounded on the teacher's cmd/main.go: construct collaborators, open
// the log and DB, start background goroutines, mount the router, serve
// with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tinoosan/torrusd/internal/coordinator"
	"github.com/tinoosan/torrusd/internal/coordinatorapi"
	"github.com/tinoosan/torrusd/internal/hostapi/simple"
	"github.com/tinoosan/torrusd/internal/journal"
	"github.com/tinoosan/torrusd/internal/metrics"
	"github.com/tinoosan/torrusd/internal/registry"
	"github.com/tinoosan/torrusd/internal/transports/torrentrpc"
	"github.com/tinoosan/torrusd/internal/update"
)

func main() {
	log := newLogger()
	metrics.Register()

	j := openJournal(log)

	c := coordinator.New(coordinator.Deps{
		Log:               log,
		Clock:             simple.Clock{},
		Random:            simple.Random{},
		Scheduler:         simple.Scheduler{},
		Properties:        simple.NewFileProperties(getenv("TORRUS_PROPERTIES_FILE", "torrus-properties.json")),
		InstalledVersions: simple.NewFileVersions(getenv("TORRUS_VERSIONS_FILE", "torrus-versions.json")),
		Translator:        simple.Translator{},
		Journal:           j,
		Policy:            coordinator.ParsePolicy(os.Getenv("TORRUS_UPDATE_POLICY")),
		ManifestURLs: coordinator.ManifestURLs{
			News:           os.Getenv("TORRUS_NEWS_MANIFEST_URL"),
			RouterSigned:   os.Getenv("TORRUS_ROUTER_SIGNED_MANIFEST_URL"),
			RouterUnsigned: os.Getenv("TORRUS_ROUTER_UNSIGNED_MANIFEST_URL"),
			Plugin:         os.Getenv("TORRUS_PLUGIN_MANIFEST_URL"),
		},
		DownloadDir: getenv("TORRUS_DOWNLOAD_DIR", "/tmp/torrusd-downloads"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registerTransports(ctx, c, log)

	if err := c.Bootstrap(ctx); err != nil {
		log.Error("bootstrap failed", "err", err)
		os.Exit(1)
	}

	router := coordinatorapi.NewRouter(log, c)

	srv := &http.Server{
		Addr:              getenv("TORRUS_LISTEN_ADDR", ":8090"),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", "err", err)
	}
	c.StopChecks()
	c.StopUpdates()
	if closer, ok := j.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

// newLogger builds the process-wide structured logger, writing to stderr,
// or, when TORRUS_LOG_FILE is set, to a rotating lumberjack file sink
// instead of stderr — the teacher declares lumberjack in go.mod for exactly this
// purpose but never wires it into its own cmd/main.go.
func newLogger() *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if path := os.Getenv("TORRUS_LOG_FILE"); path != "" {
		rotator := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		handler = slog.NewJSONHandler(rotator, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// openJournal opens the Postgres-backed audit journal if POSTGRES_HOST is
// set, falling back to a no-op journal so a minimal deployment never needs
// a database just to run.
func openJournal(log *slog.Logger) journal.Sink {
	if os.Getenv("POSTGRES_HOST") == "" {
		log.Info("POSTGRES_HOST not set, running without an audit journal")
		return journal.Noop{}
	}
	j, err := journal.OpenFromEnv()
	if err != nil {
		log.Warn("failed to open journal, falling back to noop", "err", err)
		return journal.Noop{}
	}
	return j
}

// registerTransports wires every transport this deployment knows about
// into the coordinator's Checker/Updater registries. The DUMMY pair is
// registered by Bootstrap itself; real transports are registered here
// based on environment configuration, so a deployment with nothing
// configured still boots and serves, with every real check/update simply
// declined for lack of a registered transport.
func registerTransports(ctx context.Context, c *coordinator.Coordinator, log *slog.Logger) {
	manifestURL := os.Getenv("TORRUS_DEVBUILD_MANIFEST_URL")
	if manifestURL == "" {
		return
	}

	rate := parseRate(os.Getenv("TORRUS_DEVBUILD_SAMPLE_RATE"), 0.01)
	gate := registry.SampledPolicy(rate, rand.New(rand.NewSource(time.Now().UnixNano())))

	checker := &torrentrpc.Checker{ManifestURL: manifestURL}
	c.Checkers().Register(checker, update.KindRouterUnsigned, update.MethodTorrent, -10, gate)

	client, err := torrentrpc.NewClientFromEnv()
	if err != nil {
		log.Warn("torrent RPC client unavailable, dev-build updater not registered", "err", err)
		return
	}
	updater := &torrentrpc.Updater{Client: client, Dir: getenv("TORRUS_DEVBUILD_DIR", "/tmp/torrus-devbuild")}
	if notifyURL := os.Getenv("TORRUS_DEVBUILD_NOTIFY_URL"); notifyURL != "" {
		listener := torrentrpc.NewListener(notifyURL, log)
		updater.Notify = listener
		go runNotifyListener(ctx, listener, log)
	}
	c.Updaters().Register(updater, update.KindRouterUnsigned, update.MethodTorrent, -10, gate)

	log.Info("dev-build torrent transport registered", "manifest", manifestURL, "sampleRate", rate)
}

// runNotifyListener keeps listener.Run connected for as long as ctx is
// alive, reconnecting with a short backoff whenever the daemon's socket
// drops — a task's tellStatus polling covers it in the meantime, so a gap
// here costs latency, not correctness.
func runNotifyListener(ctx context.Context, listener *torrentrpc.Listener, log *slog.Logger) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
			log.Warn("torrent RPC notification listener disconnected, reconnecting", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func parseRate(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
