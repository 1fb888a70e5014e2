package main

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"pressroom/service"

	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	cacheForce bool
	backupDir  string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to gateway.addr)")

	cacheCmd.PersistentFlags().BoolVarP(&cacheForce, "force", "f", false, "Do not ask for confirmation")
	cacheBackupCmd.Flags().StringVar(&backupDir, "dir", "", "Backup directory (defaults to <cache>/../backups)")

	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cacheBackupCmd)
	cacheCmd.AddCommand(cacheRestoreCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local JSON gateway",
	Long: `Run a local HTTP gateway that exposes the portal operations as JSON
under /api and role dashboards under /dashboard. The gateway shares the
session cache with the CLI. Prometheus metrics are served on /metrics.

Examples:
  pressroom serve
  pressroom serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the local session cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete the cache, logging you out",
	Args:  cobra.NoArgs,
	RunE:  runCacheClean,
}

var cacheBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the cache",
	Args:  cobra.NoArgs,
	RunE:  runCacheBackup,
}

var cacheRestoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Replace the cache with a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheRestore,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		say(cmd, "pressroom version %s", version)
	},
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Gateway.Addr = serveAddr
	}
	a, err := openAppWith(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Logger.Sync() }()
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunAppServer(ctx)
}

func maintenance(cmd *cobra.Command) (*service.Maintenance, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.InMemory {
		return nil, errors.New("the in-memory cache has nothing to maintain")
	}
	return &service.Maintenance{
		Path:  cfg.Cache.Path,
		In:    cmd.InOrStdin(),
		Out:   cmd.OutOrStdout(),
		Force: cacheForce,
	}, nil
}

func runCacheClean(cmd *cobra.Command, _ []string) error {
	m, err := maintenance(cmd)
	if err != nil {
		return err
	}
	return cancelled(cmd, m.Clean())
}

func runCacheBackup(cmd *cobra.Command, _ []string) error {
	m, err := maintenance(cmd)
	if err != nil {
		return err
	}
	dir := backupDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(m.Path), "backups")
	}
	_, err = m.Backup(dir)
	return err
}

func runCacheRestore(cmd *cobra.Command, args []string) error {
	m, err := maintenance(cmd)
	if err != nil {
		return err
	}
	return cancelled(cmd, m.Restore(args[0]))
}

// cancelled turns a declined prompt into a message instead of a failure.
func cancelled(cmd *cobra.Command, err error) error {
	if errors.Is(err, service.ErrCancelled) {
		say(cmd, "Operation cancelled")
		return nil
	}
	return err
}
