package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	SourceCSV      = "csv"
	SourceGBFS     = "gbfs"
	SourcePostgres = "postgres"

	DefaultTripsCSV    = "https://dsc106.com/labs/lab07/data/bluebikes-traffic-2024-03.csv"
	DefaultStationsURL = "https://gbfs.bluebikes.com/gbfs/en/station_information.json"
)

var (
	ErrMissingDatabase = errors.New("DATABASE_URL or PGDATABASE must be set when a postgres source is used")
	ErrInvalidSource   = errors.New("invalid source")
	ErrInvalidValue    = errors.New("invalid value")
)

type Config struct {
	DatabaseURL string
	City        string

	TripsSource    string
	TripsCSV       string
	StationsSource string
	StationsURL    string
	FetchTimeout   time.Duration

	NATSURL           string
	NATSSubjectPrefix string
	LogNATSSubjects   bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SnapshotTTL   time.Duration

	PublishInterval time.Duration
	RefreshInterval time.Duration

	HTTPAddr    string
	MetricsAddr string
	Location    *time.Location
	LogLevel    string
}

// UsesPostgres reports whether any dataset source reads from the database.
func (c *Config) UsesPostgres() bool {
	return c.TripsSource == SourcePostgres || c.StationsSource == SourcePostgres
}

// Load reads configuration from .env, an optional YAML file named by
// CONFIG_FILE, and the environment. Environment values win over the file.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	defaults := map[string]string{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		defaults = fc.defaults()
	}
	e := env{defaults: defaults}

	cfg := &Config{}

	cfg.TripsSource = strings.ToLower(e.getDefault("TRIPS_SOURCE", SourceCSV))
	if cfg.TripsSource != SourceCSV && cfg.TripsSource != SourcePostgres {
		return nil, errors.Wrapf(ErrInvalidSource, "TRIPS_SOURCE %q", cfg.TripsSource)
	}
	cfg.TripsCSV = e.getDefault("TRIPS_CSV", DefaultTripsCSV)

	cfg.StationsSource = strings.ToLower(e.getDefault("STATIONS_SOURCE", SourceGBFS))
	if cfg.StationsSource != SourceGBFS && cfg.StationsSource != SourcePostgres {
		return nil, errors.Wrapf(ErrInvalidSource, "STATIONS_SOURCE %q", cfg.StationsSource)
	}
	cfg.StationsURL = e.getDefault("STATIONS_URL", DefaultStationsURL)

	// City name for dynamic DB resolution
	cfg.City = firstNonEmpty(e.get("CITY"), e.get("CITY_NAME"))

	// Database URL: prefer DATABASE_URL / PG_DSN, else build from PG* vars
	dsn := firstNonEmpty(e.get("DATABASE_URL"), e.get("PG_DSN"))
	if dsn == "" {
		db := e.get("PGDATABASE")
		// With CITY the base DB is only used to look up the latest import.
		if db == "" && cfg.City != "" {
			db = "postgres"
		}
		if db != "" {
			host := e.getDefault("PGHOST", "127.0.0.1")
			port := e.getDefault("PGPORT", "5432")
			user := e.getDefault("PGUSER", "postgres")
			pass := e.get("PGPASSWORD")
			sslmode := e.getDefault("PGSSLMODE", "disable")
			if pass != "" {
				dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
			} else {
				dsn = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
			}
		}
	}
	cfg.DatabaseURL = dsn
	if cfg.UsesPostgres() && cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabase
	}

	var err error
	if cfg.FetchTimeout, err = e.seconds("HTTP_TIMEOUT_SEC", 30, false); err != nil {
		return nil, err
	}

	cfg.NATSURL = e.get("NATS_URL")
	cfg.NATSSubjectPrefix = e.getDefault("NATS_SUBJECT_PREFIX", "traffic")
	cfg.LogNATSSubjects = parseBool(e.get("LOG_NATS_SUBJECTS"))

	cfg.RedisAddr = e.get("REDIS_ADDR")
	cfg.RedisPassword = e.get("REDIS_PASSWORD")
	if v := e.get("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errors.Wrapf(ErrInvalidValue, "REDIS_DB %q", v)
		}
		cfg.RedisDB = n
	}
	if cfg.SnapshotTTL, err = e.seconds("SNAPSHOT_TTL_SEC", 3600, false); err != nil {
		return nil, err
	}

	// Publish interval
	if v := e.get("PUBLISH_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, errors.Wrapf(ErrInvalidValue, "PUBLISH_INTERVAL_MS %q", v)
		}
		cfg.PublishInterval = time.Duration(ms) * time.Millisecond
	} else {
		cfg.PublishInterval = time.Minute
	}

	// Dataset refresh interval (seconds); 0 disables reloading
	if cfg.RefreshInterval, err = e.seconds("DATASET_REFRESH_INTERVAL_SEC", 3600, true); err != nil {
		return nil, err
	}

	cfg.HTTPAddr = e.getDefault("HTTP_ADDR", ":8080")
	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = e.get("METRICS_ADDR")
	cfg.LogLevel = e.getDefault("LOG_LEVEL", "INFO")

	// Time zone
	tzName := e.get("TZ")
	if tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidValue, "TZ %q: %v", tzName, err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// env resolves keys from the process environment, falling back to file defaults.
type env struct {
	defaults map[string]string
}

func (e env) get(k string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return e.defaults[k]
}

func (e env) getDefault(k, def string) string {
	if v := e.get(k); v != "" {
		return v
	}
	return def
}

func (e env) seconds(k string, def int, allowZero bool) (time.Duration, error) {
	v := e.get(k)
	if v == "" {
		return time.Duration(def) * time.Second, nil
	}
	sec, err := strconv.Atoi(v)
	if err != nil || sec < 0 || (sec == 0 && !allowZero) {
		return 0, errors.Wrapf(ErrInvalidValue, "%s %q", k, v)
	}
	return time.Duration(sec) * time.Second, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
