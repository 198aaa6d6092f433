/*
Package config loads server configuration from the environment.

All settings carry defaults good enough for local development, so the
server starts with no environment at all. Override with OVERTIME_*
variables, e.g. OVERTIME_PORT=9090 OVERTIME_DB_PATH=/data/overtime.db.
*/
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/warp/overtime-engine/schedule"
)

// Config holds the server configuration.
type Config struct {
	Host string `envconfig:"HOST" default:""`
	Port int    `envconfig:"PORT" default:"8080"`

	DBPath string `envconfig:"DB_PATH" default:"./data/overtime.db"`

	// Night window clocks, HH:MM. The default 21:00-06:00 wraps midnight.
	NightStart string `envconfig:"NIGHT_START" default:"21:00"`
	NightEnd   string `envconfig:"NIGHT_END" default:"06:00"`

	// How many months back the banking allocator looks for days with
	// unallocated overtime.
	AllocationWindowMonths int `envconfig:"ALLOCATION_WINDOW_MONTHS" default:"3"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load reads OVERTIME_* environment variables over the defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("overtime", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NightWindow parses the configured clocks into a schedule window.
func (c *Config) NightWindow() (schedule.NightWindow, error) {
	return schedule.NewNightWindow(c.NightStart, c.NightEnd)
}
