package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"tensord/internal/backend"
	"tensord/internal/common/fsutil"
	"tensord/internal/config"
	"tensord/internal/httpapi"
	"tensord/internal/manager"
	"tensord/internal/registry"
	"tensord/internal/store"
	"tensord/internal/tensor"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tensord:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tensord",
		Short:         "Tensor keyspace with DAG execution over registered models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addFlags(root.PersistentFlags())

	serveCmd := &cobra.Command{Use: "serve", Short: "Run the HTTP server (default)", RunE: runServe}
	root.RunE = runServe
	modelsCmd := &cobra.Command{Use: "models", Short: "List the models found in the models dir", RunE: runModels}
	versionCmd := &cobra.Command{Use: "version", Short: "Print the version", Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tensord %s (llama=%t swagger=%t)\n", version, backend.LlamaBuilt, httpapi.SwaggerEnabled)
	}}
	root.AddCommand(serveCmd, modelsCmd, versionCmd)
	return root
}

// addFlags declares one flag per config key. Only flags set on the command
// line override file and environment values.
func addFlags(f *pflag.FlagSet) {
	d := config.Defaults()
	f.String("config", "", "Path to a YAML, JSON or TOML config file")
	f.String("addr", d.Addr, "HTTP listen address, e.g. :8080")
	f.String("models-dir", d.ModelsDir, "Directory scanned for graph specs (.yaml/.toml/.json) and *.gguf files")
	f.Int("workers", d.Workers, "Run worker goroutines")
	f.Int("max-queue-depth", d.MaxQueueDepth, "Runs that may wait for a worker")
	f.Int("max-wait-ms", d.MaxWaitMS, "How long a DAGRUN waits for a queue slot before 429")
	f.String("log-level", d.LogLevel, "Log level: debug|info|warn|error")
	f.String("snapshot-path", d.SnapshotPath, "bbolt file the keyspace is restored from and saved to")
	f.String("snapshot-schedule", d.SnapshotSchedule, "Cron expression for periodic snapshots, e.g. '*/5 * * * *'")
	f.String("mqtt-broker", d.MQTTBroker, "MQTT broker URL for replication, e.g. tcp://localhost:1883")
	f.String("mqtt-topic", d.MQTTTopic, "MQTT topic prefix; tensors publish to <topic>/<key>")
	f.String("mqtt-client-id", d.MQTTClientID, "MQTT client id")
	f.Int64("max-body-bytes", d.MaxBodyBytes, "Maximum JSON request body size")
	f.Int64("max-tensor-elements", d.MaxTensorElements, "Maximum element count of a single tensor")
	f.Bool("cors-enabled", d.CORSEnabled, "Enable CORS")
	f.String("cors-origins", d.CORSOrigins, "Comma-separated allowed origins")
	f.String("chaining-op", d.ChainingOp, "DAGRUN command separator")
	f.Int("llama-ctx", d.LlamaCtx, "llama.cpp context size")
	f.Int("llama-threads", d.LlamaThreads, "llama.cpp threads")
}

func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	return config.Resolve(path, flags)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func loadRegistry(cfg config.Config) (*registry.Registry, error) {
	return registry.LoadDir(cfg.ModelsDir, backend.LlamaConfig{ContextSize: cfg.LlamaCtx, Threads: cfg.LlamaThreads})
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, m := range reg.List() {
		fmt.Fprintf(out, "%-24s %-9s in=%s out=%s\n", m.Name, m.Backend, strings.Join(m.Inputs, ","), strings.Join(m.Outputs, ","))
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return serve(ctx, cfg, ln, log)
}

// serve runs the server on ln until ctx is done, then drains runs and
// writes the final snapshot.
func serve(ctx context.Context, cfg config.Config, ln net.Listener, log zerolog.Logger) error {
	reg, err := loadRegistry(cfg)
	if err != nil {
		ln.Close()
		return fmt.Errorf("failed to load models: %w", err)
	}
	repl, closeRepl, err := buildReplicator(cfg, log)
	if err != nil {
		ln.Close()
		return err
	}
	defer closeRepl()

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Registry:      reg,
		Store:         store.NewMemory(repl, log),
		Workers:       cfg.Workers,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       time.Duration(cfg.MaxWaitMS) * time.Millisecond,
		ChainingOp:    cfg.ChainingOp,
		Log:           log,
	})

	tensor.SetMaxElements(cfg.MaxTensorElements)
	var snap *store.Snapshotter
	if cfg.SnapshotPath != "" {
		p, err := fsutil.ExpandHome(cfg.SnapshotPath)
		if err != nil {
			ln.Close()
			_ = mgr.Close()
			return err
		}
		snap = store.NewSnapshotter(p, log)
		if _, err := mgr.RestoreSnapshot(snap); err != nil {
			ln.Close()
			_ = mgr.Close()
			return fmt.Errorf("restore snapshot: %w", err)
		}
	}

	httpapi.SetLogger(log)
	if os.Getenv("TENSORD_HTTP_LOG_LEVEL") == "" {
		httpapi.SetDefaultLogLevel(httpLogLevel(cfg.LogLevel))
	}
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, splitCSV(cfg.CORSOrigins), nil, nil)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{Handler: httpapi.NewMux(mgr), ReadHeaderTimeout: 10 * time.Second}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Str("models_dir", cfg.ModelsDir).
			Int("models", reg.Len()).Msg("tensord listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if snap != nil && cfg.SnapshotSchedule != "" {
		g.Go(func() error {
			return store.RunSchedule(gctx, cfg.SnapshotSchedule, func(time.Time) {
				if _, err := mgr.SaveSnapshot(snap); err != nil {
					log.Error().Err(err).Msg("scheduled snapshot failed")
				}
			})
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown error")
		}
		return nil
	})
	err = g.Wait()

	_ = mgr.Close()
	if snap != nil {
		if _, serr := mgr.SaveSnapshot(snap); serr != nil {
			log.Error().Err(serr).Msg("final snapshot failed")
			if err == nil {
				err = serr
			}
		}
	}
	log.Info().Msg("tensord stopped")
	return err
}

// buildReplicator returns the replication chain: a debug log of every
// committed key, plus MQTT when a broker is configured.
func buildReplicator(cfg config.Config, log zerolog.Logger) (store.Replicator, func(), error) {
	chain := store.Multi{store.ReplicatorFunc(func(key string, t *tensor.Handle) error {
		log.Debug().Str("key", key).Str("tensor", t.String()).Msg("tensor committed")
		return nil
	})}
	if cfg.MQTTBroker == "" {
		return chain, func() {}, nil
	}
	mq, err := store.DialMQTT(store.MQTTConfig{
		Broker:   cfg.MQTTBroker,
		Topic:    cfg.MQTTTopic,
		ClientID: cfg.MQTTClientID,
		QoS:      1,
		Timeout:  5 * time.Second,
		Log:      log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("mqtt: %w", err)
	}
	log.Info().Str("broker", cfg.MQTTBroker).Str("topic", cfg.MQTTTopic).Msg("mqtt replication enabled")
	return append(chain, mq), mq.Close, nil
}

// httpLogLevel maps the process log level onto the HTTP layer's levels.
func httpLogLevel(level string) string {
	switch strings.ToLower(level) {
	case "warn", "warning":
		return "error"
	case "trace":
		return "debug"
	}
	return level
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
