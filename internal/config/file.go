package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the environment keys in YAML form.
type fileConfig struct {
	Database struct {
		URL  string `yaml:"url"`
		City string `yaml:"city"`
	} `yaml:"database"`
	Trips struct {
		Source string `yaml:"source"`
		CSV    string `yaml:"csv"`
	} `yaml:"trips"`
	Stations struct {
		Source string `yaml:"source"`
		URL    string `yaml:"url"`
	} `yaml:"stations"`
	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
		LogSubjects   bool   `yaml:"log_subjects"`
	} `yaml:"nats"`
	Redis struct {
		Addr           string `yaml:"addr"`
		Password       string `yaml:"password"`
		DB             *int   `yaml:"db"`
		SnapshotTTLSec *int   `yaml:"snapshot_ttl_sec"`
	} `yaml:"redis"`
	PublishIntervalMS  *int   `yaml:"publish_interval_ms"`
	RefreshIntervalSec *int   `yaml:"refresh_interval_sec"`
	FetchTimeoutSec    *int   `yaml:"fetch_timeout_sec"`
	HTTPAddr           string `yaml:"http_addr"`
	MetricsAddr        string `yaml:"metrics_addr"`
	TZ                 string `yaml:"tz"`
	LogLevel           string `yaml:"log_level"`
}

func loadFile(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	return &fc, nil
}

// defaults flattens the file into environment keys; unset fields are omitted.
func (f *fileConfig) defaults() map[string]string {
	m := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	setInt := func(k string, v *int) {
		if v != nil {
			m[k] = strconv.Itoa(*v)
		}
	}
	set("DATABASE_URL", f.Database.URL)
	set("CITY", f.Database.City)
	set("TRIPS_SOURCE", f.Trips.Source)
	set("TRIPS_CSV", f.Trips.CSV)
	set("STATIONS_SOURCE", f.Stations.Source)
	set("STATIONS_URL", f.Stations.URL)
	set("NATS_URL", f.NATS.URL)
	set("NATS_SUBJECT_PREFIX", f.NATS.SubjectPrefix)
	if f.NATS.LogSubjects {
		m["LOG_NATS_SUBJECTS"] = "true"
	}
	set("REDIS_ADDR", f.Redis.Addr)
	set("REDIS_PASSWORD", f.Redis.Password)
	setInt("REDIS_DB", f.Redis.DB)
	setInt("SNAPSHOT_TTL_SEC", f.Redis.SnapshotTTLSec)
	setInt("PUBLISH_INTERVAL_MS", f.PublishIntervalMS)
	setInt("DATASET_REFRESH_INTERVAL_SEC", f.RefreshIntervalSec)
	setInt("HTTP_TIMEOUT_SEC", f.FetchTimeoutSec)
	set("HTTP_ADDR", f.HTTPAddr)
	set("METRICS_ADDR", f.MetricsAddr)
	set("TZ", f.TZ)
	set("LOG_LEVEL", f.LogLevel)
	return m
}
