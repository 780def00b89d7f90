package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tidbyt.dev/nearby"
	"tidbyt.dev/nearby/config"
	"tidbyt.dev/nearby/downloader"
	"tidbyt.dev/nearby/parse"
	"tidbyt.dev/nearby/storage"
	"tidbyt.dev/nearby/transit"
)

var rootCmd = &cobra.Command{
	Use:          "nearby",
	Short:        "Nearby departures board",
	Long:         "Shows departures you can still walk to",
	SilenceUsage: true,
}

var (
	configPath  string
	storageFlag string
	verbose     bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&storageFlag, "storage", "", "", "Override storage backend (memory, file, sqlite, postgres)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log upstream failures")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storageFlag != "" {
		cfg.Storage.Backend = storageFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func buildStorage(cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "file":
		return storage.NewFileStorage(cfg.Path), nil
	case "sqlite":
		dir := cfg.Directory
		if dir == "" {
			dir = "."
		}
		return storage.NewSQLiteStorage(storage.SQLiteConfig{OnDisk: true, Directory: dir})
	case "postgres":
		return storage.NewPSQLStorage(cfg.DSN, false)
	}
	return nil, fmt.Errorf("unknown storage backend '%s'", cfg.Backend)
}

func LoadManager() (*nearby.Manager, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	s, err := buildStorage(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("creating storage: %w", err)
	}

	d := downloader.NewHTTP()

	client := transit.NewClient(cfg.Transit.BaseURL, d)
	client.Timeout = cfg.Transit.Timeout
	client.NearbyResults = cfg.Transit.NearbyResults
	client.Duration = cfg.Transit.Duration

	geocoder := transit.NewGeocoder(cfg.Geocoder.URL, d)
	geocoder.UserAgent = cfg.Geocoder.UserAgent
	geocoder.AddressSuffix = cfg.Geocoder.AddressSuffix
	geocoder.Options.Timeout = cfg.Geocoder.Timeout

	var t nearby.Transit = client
	if cfg.Transit.StopsFile != "" {
		stops, err := parse.LoadStops(cfg.Transit.StopsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading stops: %w", err)
		}
		t = &nearby.IndexedTransit{
			Transit: client,
			Index:   nearby.NewStopIndex(stops),
		}
	}

	manager := nearby.NewManager(s, t, geocoder)
	manager.Concurrency = cfg.Board.Concurrency
	manager.StationsTimeout = cfg.Transit.Timeout
	manager.DeparturesTimeout = cfg.Transit.Timeout

	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	manager.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if cfg.Board.AreasFile != "" {
		rules, err := parse.LoadAreaRules(cfg.Board.AreasFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading area rules: %w", err)
		}
		manager.Engine = nearby.NewEngine(nearby.NewAreaClassifier(rules))
	}

	return manager, cfg, nil
}
