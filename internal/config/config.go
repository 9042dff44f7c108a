// Package config loads the server configuration from an optional YAML file
// and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/tckz/go-view-counter/internal/counter"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Counter counter.Config `yaml:"counter"`
}

func Default() Config {
	return Config{
		Listen:   ":8080",
		LogLevel: "info",
		Counter: counter.Config{
			Backend: "local",
			Table:   counter.DefaultTable,
		},
	}
}

// Load reads path (skipped when empty) over the defaults, then applies
// environment overrides.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("os.ReadFile: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("yaml.Unmarshal: %s, %w", path, err)
		}
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(k string) string {
		v, _ := lookup(k)
		return v
	}
	set := func(dst *string, keys ...string) {
		if v, ok := lo.Coalesce(lo.Map(keys, func(k string, _ int) string { return get(k) })...); ok {
			*dst = v
		}
	}

	set(&c.Listen, "LISTEN_ADDR")
	set(&c.LogLevel, "LOG_LEVEL")
	set(&c.LogFile, "LOG_FILE")
	set(&c.Counter.Backend, "COUNTER_BACKEND")
	// Both names were used by earlier deployments.
	set(&c.Counter.Table, "TABLE_NAME", "DYNAMODB_TABLE_NAME")
	set(&c.Counter.Redis.Addr, "REDIS_ADDR")
	set(&c.Counter.Datastore.ProjectID, "PROJECT_ID")
	set(&c.Counter.Datastore.Namespace, "DATASTORE_NAMESPACE")
	set(&c.Counter.SQLite.DSN, "SQLITE_DSN")

	if v := get("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Counter.Redis.DB = db
	}
	if v := get("SQLITE_PROVISION"); v != "" {
		p, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SQLITE_PROVISION: %w", err)
		}
		c.Counter.SQLite.Provision = p
	}
	return nil
}
