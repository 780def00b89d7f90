package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Transit  TransitConfig  `yaml:"transit"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Storage  StorageConfig  `yaml:"storage"`
	Board    BoardConfig    `yaml:"board"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type TransitConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	NearbyResults int           `yaml:"nearby_results"`
	Duration      int           `yaml:"duration"`

	// Optional GTFS zip or stops.txt. If set, nearby stations are
	// looked up there instead of upstream.
	StopsFile string `yaml:"stops_file"`
}

type GeocoderConfig struct {
	URL           string        `yaml:"url"`
	UserAgent     string        `yaml:"user_agent"`
	AddressSuffix string        `yaml:"address_suffix"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Backend is one of "memory", "file", "sqlite" or "postgres".
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	Directory string `yaml:"directory"`
	DSN       string `yaml:"dsn"`
}

type BoardConfig struct {
	Concurrency int `yaml:"concurrency"`

	// Optional CSV file with area rules, replacing the built in
	// ones.
	AreasFile string `yaml:"areas_file"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 5001,
		},
		Transit: TransitConfig{
			BaseURL:       "https://v6.vbb.transport.rest",
			Timeout:       10 * time.Second,
			NearbyResults: 50,
			Duration:      120,
		},
		Geocoder: GeocoderConfig{
			URL:           "https://nominatim.openstreetmap.org/search",
			UserAgent:     "BVG-Departure-Board/1.0",
			AddressSuffix: ", Berlin, Germany",
			Timeout:       10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    "settings.json",
		},
		Board: BoardConfig{
			Concurrency: 8,
		},
	}
}

// Loads configuration from a YAML file on top of the defaults. A
// missing file is not an error. Environment variables, possibly from
// a .env file, override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(buf, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("NEARBY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NEARBY_PORT '%s': %w", v, err)
		}
		cfg.Server.Port = port
	}
	cfg.Storage.Backend = getEnvWithDefault("NEARBY_STORAGE", cfg.Storage.Backend)
	cfg.Storage.DSN = getEnvWithDefault("NEARBY_DSN", cfg.Storage.DSN)
	cfg.Transit.BaseURL = getEnvWithDefault("NEARBY_TRANSIT_URL", cfg.Transit.BaseURL)
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "sqlite":
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for file storage")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage backend '%s'", c.Storage.Backend)
	}

	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Transit.Timeout <= 0 {
		return fmt.Errorf("transit.timeout must be > 0")
	}
	if c.Geocoder.Timeout <= 0 {
		return fmt.Errorf("geocoder.timeout must be > 0")
	}
	if c.Board.Concurrency <= 0 {
		return fmt.Errorf("board.concurrency must be > 0")
	}

	return nil
}
