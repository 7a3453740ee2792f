// Command airport runs the airport traffic simulator in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/felipedec/airport/internal/config"
	"github.com/felipedec/airport/internal/influx"
	"github.com/felipedec/airport/internal/input"
	"github.com/felipedec/airport/internal/logging"
	"github.com/felipedec/airport/internal/model"
	"github.com/felipedec/airport/internal/monitor"
	intOtel "github.com/felipedec/airport/internal/otel"
	"github.com/felipedec/airport/internal/sim"
	"github.com/felipedec/airport/internal/storage"
	"github.com/felipedec/airport/internal/worker"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	AppName   = "airport"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime = time.Now()

	// LogsDir is the resolved logsDir setting.
	LogsDir string

	// Services
	storageBackend storage.Backend
	journal        *worker.Journal
	influxManager  *influx.Manager
	monitorService *monitor.Service
	simulation     atomic.Pointer[sim.Simulation]
)

func main() {
	configDir := flag.String("config", ".", "directory holding "+config.FileName)
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (built %s)\n", AppName, Version, BuildDate)
		return
	}
	if err := run(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	cfgErr := config.Load(configDir)

	LogsDir = viper.GetString("logsDir")
	if err := os.MkdirAll(LogsDir, 0o755); err != nil {
		return fmt.Errorf("creating logs directory: %w", err)
	}
	logFile := logging.NewRotatingFile(logging.LogFilePath(LogsDir, AppName, SessionStartTime))
	defer logFile.Close()

	closeLogging, err := setupLogging(logFile)
	if err != nil {
		return err
	}
	defer closeLogging()

	if cfgErr != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	} else {
		Logger.Info("Loaded config", "dir", configDir)
	}
	Logger.Info("Starting up", "version", Version, "buildDate", BuildDate, "logFile", logFile.Filename)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := initStorage(); err != nil {
		return err
	}
	defer closeStorage()

	initInflux(logFile)
	defer closeInflux()

	tty, out := openTerminal()

	s, err := sim.New(sim.Dependencies{
		Out:           out,
		LogManager:    SlogManager,
		ConsoleLogger: logging.NewConsoleLogger(logFile, viper.GetString("logLevel")),
		Session:       sessionContext,
		Journal:       journal,
		Tunables:      config.NewTunables(),
	})
	if err != nil {
		return fmt.Errorf("building simulation: %w", err)
	}
	simulation.Store(s)

	if err := startSession(s); err != nil {
		return err
	}
	journal.Start()

	autoexec := viper.GetString("autoexec")
	if err := s.Console().Process("exec " + autoexec + " optional"); err != nil {
		Logger.Error("autoexec failed", "file", autoexec, "error", err)
	}

	startMonitor(s)
	defer stopMonitor()

	if tty != nil {
		listener := input.NewListener(tty, s.Clock(), func() { s.OpenConsole(os.Stdin) }, Logger.With("component", "input"))
		go func() {
			if err := listener.Run(ctx); err != nil {
				Logger.Error("Key listener stopped", "error", err)
			}
		}()
		defer tty.Stop()
	}

	err = s.Run(ctx)
	if errors.Is(err, context.Canceled) {
		Logger.Info("Interrupted")
		err = nil
	}
	Logger.Info("Shutting down", "simTime", s.Clock().Time(), "frames", s.Clock().Frame())
	return err
}

// setupLogging opens OTel and the optional Graylog sink, then rebuilds the
// slog chain on top of them. The returned func releases both.
func setupLogging(logFile io.Writer) (func(), error) {
	SlogManager = logging.NewSlogManager()

	var err error
	OTelProvider, err = intOtel.New(intOtel.Config{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		LogWriter:      logFile,
		MetricWriter:   logFile,
		MetricInterval: viper.GetDuration("otel.metricInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	})
	if err != nil {
		return nil, fmt.Errorf("initializing OTel provider: %w", err)
	}

	opts := []logging.Option{logging.WithContext(logging.SimAttrs(
		func() float64 { return currentSnapshot().SimTime },
		func() uint64 { return uint64(currentSnapshot().Frame) },
	))}

	var (
		closers    []func() error
		graylogErr error
	)
	if viper.GetBool("graylog.enabled") {
		gw, err := logging.NewGraylogWriter(viper.GetString("graylog.address"), AppName)
		if err != nil {
			graylogErr = err
		} else {
			opts = append(opts, logging.WithGraylog(gw))
			closers = append(closers, gw.Close)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider.Enabled() {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(logFile, viper.GetString("logLevel"), otelLogProvider, opts...)
	Logger = SlogManager.Logger()
	if graylogErr != nil {
		Logger.Warn("Graylog disabled", "error", graylogErr)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := SlogManager.Flush(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Error flushing logs:", err)
		}
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Error shutting down OTel:", err)
		}
		for _, c := range closers {
			_ = c()
		}
	}, nil
}

func currentSnapshot() sim.Snapshot {
	if s := simulation.Load(); s != nil {
		return s.Snapshot()
	}
	return sim.Snapshot{}
}

func initInflux(logFile io.Writer) {
	if !viper.GetBool("influx.enabled") {
		return
	}
	log := zerolog.New(logFile).With().Timestamp().Str("component", "influx").Logger()
	backup := filepath.Join(LogsDir, fmt.Sprintf("%s_influx_%s.gz", AppName, SessionStartTime.Format("20060102_150405")))

	influxManager = influx.NewManager(log, backup)
	if err := influxManager.Connect(); err != nil {
		Logger.Error("Failed to set up InfluxDB", "error", err)
		influxManager = nil
	}
}

func closeInflux() {
	if influxManager == nil {
		return
	}
	if err := influxManager.Close(); err != nil {
		Logger.Error("Failed to close InfluxDB", "error", err)
	}
}

func startMonitor(s *sim.Simulation) {
	if !viper.GetBool("monitor.enabled") {
		return
	}
	deps := monitor.Dependencies{
		LogManager: SlogManager,
		Session:    sessionContext,
		Snapshot:   s.Snapshot,
		Journal:    journal,
		StatusFile: filepath.Join(LogsDir, viper.GetString("monitor.statusFile")),
		Interval:   viper.GetDuration("monitor.interval"),
	}
	if influxManager != nil {
		deps.Telemetry = influxManager
	}
	monitorService = monitor.NewService(deps)
	if err := monitorService.Start(); err != nil {
		Logger.Error("Failed to start status monitor", "error", err)
	}
}

func stopMonitor() {
	if monitorService != nil {
		monitorService.Stop()
	}
}

// openTerminal returns the raw terminal for the key listener and the
// writer simulation output should go to.
func openTerminal() (input.Terminal, io.Writer) {
	if !viper.GetBool("input.enabled") {
		return nil, os.Stdout
	}
	if fi, err := os.Stdin.Stat(); err != nil || fi.Mode()&os.ModeCharDevice == 0 {
		Logger.Info("Standard input is not a terminal, keyboard disabled")
		return nil, os.Stdout
	}
	tty, err := input.OpenTerminal()
	if err != nil {
		Logger.Warn("Failed to open terminal, keyboard disabled", "error", err)
		return nil, os.Stdout
	}
	return tty, input.CRLFWriter{W: os.Stdout}
}

func newSession(timeScale float64) *model.Session {
	return &model.Session{
		Name:      viper.GetString("sessionName"),
		StartedAt: SessionStartTime,
		TimeScale: timeScale,
	}
}
