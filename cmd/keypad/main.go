// Command keypad drives a 5x5 illuminated MQTT keypad.
//
// It subscribes to the keypad's key events and per-key control topics,
// runs the configured actions for every press and release, and publishes
// the pressed and released colour frames on a fixed interval so keys can
// blink. An optional SQLite journal, InfluxDB export and HTTP/WebSocket API
// can be enabled in the configuration file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-keypad/internal/api"
	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-keypad/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-keypad/internal/journal"
	"github.com/nerrad567/gray-logic-keypad/internal/keypad"
	"github.com/nerrad567/gray-logic-keypad/migrations"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	configEnv      = "KEYPAD_CONFIG"
	configDirName  = "gray-logic-keypad"
	configFileName = "config.toml"

	// streamBuffer is the per-subscription message buffer.
	streamBuffer = 64

	pruneInterval = 24 * time.Hour
)

// options are the command-line flags.
type options struct {
	configPath  string
	logLevel    string
	interval    time.Duration
	showVersion bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Printf("keypad %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("keypad", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "configuration file (YAML or TOML)")
	fs.StringVarP(&opts.logLevel, "log-level", "l", "", "override logging.level")
	fs.DurationVar(&opts.interval, "interval", 0, "override keypad.interval")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// getConfigPath picks the flag, then KEYPAD_CONFIG, then the per-user
// config directory.
func getConfigPath(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if path := os.Getenv(configEnv); path != "" {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("no --config given and no user config directory: %w", err)
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

// run wires every component and blocks until ctx is cancelled.
func run(ctx context.Context, opts options) error { //nolint:gocognit,gocyclo // startup wiring of optional components
	log := logging.Default()
	log.Info("starting keypad controller",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath, err := getConfigPath(opts.configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.interval > 0 {
		cfg.Keypad.Interval = config.Duration(opts.interval)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "interval", cfg.Keypad.Interval.Std())

	topics := mqtt.Topics{Prefix: cfg.Keypad.SubscribePrefix, ControlPrefix: cfg.Keypad.ControlPrefix}

	// MQTT
	mqttClient, err := mqtt.Connect(cfg.MQTT, topics.Status())
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() { log.Info("MQTT connected") })
	mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT connection lost", "error", err) })
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	qos := byte(cfg.MQTT.QoS) //nolint:gosec // validated 0..2
	events, err := mqttClient.Stream([]string{topics.Events()}, qos, streamBuffer)
	if err != nil {
		return fmt.Errorf("subscribing to key events: %w", err)
	}
	controls, err := mqttClient.Stream(topics.ControlKeys(keypad.KeyCount), qos, streamBuffer)
	if err != nil {
		return fmt.Errorf("subscribing to control topics: %w", err)
	}
	var announces <-chan mqtt.Message
	if cfg.Keypad.Announce.Topic != "" {
		announces, err = mqttClient.Stream([]string{cfg.Keypad.Announce.Topic}, qos, streamBuffer)
		if err != nil {
			return fmt.Errorf("subscribing to announce topic: %w", err)
		}
	}

	checks := map[string]api.HealthChecker{"mqtt": mqttClient}
	var recorders []keypad.Recorder

	// Journal
	var (
		history api.History
		pruner  *journal.Repository
	)
	if cfg.Journal.Enabled {
		db, openErr := database.Open(ctx, cfg.Journal)
		if openErr != nil {
			return fmt.Errorf("opening journal: %w", openErr)
		}
		defer func() {
			log.Info("closing journal")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("migrating journal: %w", migrateErr)
		}

		repo := journal.NewRepository(db.DB)
		recorders = append(recorders, repo)
		history = repo
		checks["journal"] = db
		log.Info("journal enabled", "path", db.Path())

		if cfg.Journal.RetentionDays > 0 {
			pruner = repo
		}
	}

	// InfluxDB
	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
	case err != nil:
		log.Warn("InfluxDB unavailable, key event export disabled", "error", err)
	default:
		defer func() {
			log.Info("closing InfluxDB")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Warn("InfluxDB write failed", "error", err)
		})
		recorders = append(recorders, keypad.RecorderFunc(func(_ context.Context, ev keypad.KeyEvent) error {
			influxClient.WriteKeyEvent(ev.Index, ev.Row, ev.Column, string(ev.Kind), ev.At)
			return nil
		}))
		checks["influxdb"] = influxClient
		log.Info("InfluxDB export enabled", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// Keypad
	grid, err := keypad.NewGrid(cfg.Keypad, keypad.GridOptions{
		Publisher:     keypad.PublisherFunc(mqttClient.PublishDefault),
		PressedTopic:  topics.ColorPressed(),
		ReleasedTopic: topics.ColorReleased(),
		Logger:        log.With("component", "keypad"),
	})
	if err != nil {
		return fmt.Errorf("building keypad: %w", err)
	}

	var hub *api.Hub
	var onFrame func(keypad.Snapshot)
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.WebSocket, log)
		onFrame = hub.BroadcastSnapshot
	}

	controller, err := keypad.NewController(keypad.ControllerOptions{
		Grid:              grid,
		Interval:          cfg.Keypad.Interval.Std(),
		Events:            events,
		Controls:          controls,
		Announces:         announces,
		AnnouncePrefix:    cfg.Keypad.Announce.Prefix,
		PublishOnTickOnly: cfg.Keypad.PublishOnTickOnly,
		Recorders:         recorders,
		OnFrame:           onFrame,
		Logger:            log.With("component", "controller"),
	})
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}

	// API
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			WS:      cfg.WebSocket,
			Logger:  log.With("component", "api"),
			Keypad:  controller,
			History: history,
			Checks:  checks,
			Hub:     hub,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	// Background work starts once every component is built.
	tasks := []func(context.Context){controller.Run}
	if hub != nil {
		tasks = append(tasks, hub.Run)
	}
	if pruner != nil {
		retention := time.Duration(cfg.Journal.RetentionDays) * 24 * time.Hour
		tasks = append(tasks, func(ctx context.Context) {
			pruneLoop(ctx, pruner, retention, log)
		})
	}

	log.Info("keypad controller running",
		"events", topics.Events(),
		"pressed", topics.ColorPressed(),
		"released", topics.ColorReleased(),
		"control", topics.ControlKey(0),
	)

	err = runTasks(ctx, tasks...)
	log.Info("shutting down")
	return err
}

// runTasks runs every task on its own goroutine and waits until all of
// them have returned. Tasks are expected to return when ctx is cancelled.
func runTasks(ctx context.Context, tasks ...func(context.Context)) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			task(gctx)
			return nil
		})
	}
	return g.Wait()
}

// pruneLoop deletes journal entries older than retention once at start
// and then daily until ctx is cancelled.
func pruneLoop(ctx context.Context, repo *journal.Repository, retention time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		n, err := repo.Prune(ctx, time.Now().Add(-retention))
		switch {
		case err != nil && ctx.Err() == nil:
			log.Warn("pruning journal failed", "error", err)
		case n > 0:
			log.Info("pruned journal", "removed", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
