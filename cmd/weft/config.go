package main

import (
	"time"

	"github.com/weftlabs/weft/internal/source"
	"github.com/weftlabs/weft/internal/watch"
)

const (
	defaultNATSURL      = "nats://127.0.0.1:4222"
	defaultBindHost     = "127.0.0.1"
	defaultAPIPort      = 3000
	defaultQueryTimeout = 30 * time.Second
	defaultMaxLineSize  = source.DefaultMaxLineSize
	defaultSettleDelay  = watch.DefaultSettleDelay
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	NATSURL      string        `mapstructure:"nats-url"`
	DBPath       string        `mapstructure:"db-path"`
	QueryTimeout time.Duration `mapstructure:"query-timeout"`
	MaxLineSize  int           `mapstructure:"max-line-size"`
	APIEnabled   bool          `mapstructure:"api-enabled"`
	APIPort      int           `mapstructure:"api-port"`
	APIAddr      string        `mapstructure:"api-addr"`
	SettleDelay  time.Duration `mapstructure:"settle-delay"`
	Debug        bool          `mapstructure:"debug"`
	ConfigPath   string        `mapstructure:"-"` // not from config file
}
