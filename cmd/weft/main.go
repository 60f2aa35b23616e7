package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	var (
		configPath  string
		showVersion bool
		dryRun      bool
		apiEnabled  bool
		watchDir    string
	)

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/weft/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&dryRun, "dry-run", false, "decode and print records without publishing or storing")
	flag.BoolVar(&apiEnabled, "api", false, "serve the diagnostics API")
	flag.StringVar(&watchDir, "watch", "", "process data files as they appear in this directory")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("weft - layout-driven flat-file interpreter\n")
		fmt.Printf("  Version: %s\n", version)
		fmt.Printf("  Commit:  %s\n", commit)
		fmt.Printf("  Built:   %s\n", buildTime)
		return
	}

	// Layout path is always required. The data file comes from the second
	// positional argument, or from the watch directory in watch mode.
	args := flag.Args()
	if len(args) < 1 || (watchDir == "" && len(args) < 2) {
		usage()
		os.Exit(2)
	}
	layoutPath := args[0]
	dataPath := ""
	if len(args) > 1 {
		dataPath = args[1]
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if apiEnabled {
		cfg.APIEnabled = true
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger, runOptions{
		LayoutPath: layoutPath,
		DataPath:   dataPath,
		WatchDir:   watchDir,
		DryRun:     dryRun,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: weft [flags] <layout file> <data file>\n")
	fmt.Fprintf(os.Stderr, "       weft [flags] -watch <dir> <layout file>\n\n")
	flag.PrintDefaults()
}

func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultDBPath := filepath.Join(home, ".local", "share", "weft", "weft.duckdb")

	v := viper.New()
	v.SetEnvPrefix("WEFT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("nats-url", defaultNATSURL)
	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("max-line-size", defaultMaxLineSize)
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("settle-delay", defaultSettleDelay)
	v.SetDefault("debug", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultConfigPath := filepath.Join(home, ".config", "weft", "config.yml")
		v.SetConfigFile(defaultConfigPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}

	// Expand ~ in db-path
	if strings.HasPrefix(cfg.DBPath, "~/") {
		cfg.DBPath = filepath.Join(home, cfg.DBPath[2:])
	}

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}
