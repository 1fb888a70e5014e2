// Package main implements the pressroom CLI: a session-caching client for
// the media portal API and a local JSON gateway in front of it.
package main

import (
	"errors"
	"fmt"
	"os"

	"pressroom/app/config"
	"pressroom/app/logging"
	"pressroom/app/services"
	"pressroom/service"

	"github.com/spf13/cobra"
)

var (
	// cfgPath overrides ~/.config/pressroom/config.yaml
	cfgPath string
	// apiURL overrides api.base_url
	apiURL string
	// cachePath overrides cache.path
	cachePath string
	// logLevel overrides log.level
	logLevel string
	// outputJSON switches every listing to JSON
	outputJSON bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", hint(err))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pressroom",
	Short: "Client for the media portal API",
	Long: `pressroom talks to the media portal API on your behalf. It keeps the
session in a local cache, refreshes tokens when they expire and applies
likes, shares and bookmarks optimistically.

Run "pressroom serve" to expose the same operations as a local JSON gateway.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/pressroom/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "portal API base URL")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "session cache directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output results as JSON")
}

// loadConfig reads the configuration and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if cachePath != "" {
		cfg.Cache.Path = cachePath
		cfg.Cache.InMemory = false
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp builds the application for one command. Callers must Close it.
func openApp() (*service.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openAppWith(cfg)
}

func openAppWith(cfg *config.Config) (*service.App, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return service.New(*cfg, logger)
}

// withApp runs fn with an open application and closes it afterwards.
func withApp(fn func(cmd *cobra.Command, args []string, a *service.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Logger.Sync() }()
		defer a.Close()
		return fn(cmd, args, a)
	}
}

func hint(err error) string {
	if errors.Is(err, services.ErrNotLoggedIn) {
		return "not logged in, run \"pressroom login\" first"
	}
	return err.Error()
}
