package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/filmlog/internal/assets"
	"github.com/marcus/filmlog/internal/db"
	"github.com/marcus/filmlog/internal/gateway"
	"github.com/marcus/filmlog/internal/remote"
	"github.com/marcus/filmlog/internal/sync"
	"github.com/marcus/filmlog/internal/syncconfig"
)

var (
	version string
	baseDir string
)

// SetVersion sets the version string.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "filmlog",
	Short: "Local-first analog photography logbook with background sync",
	Long: `filmlog - a local-first logbook for cameras, lenses, film stocks, rolls
and frames. All edits land in the local database immediately; a background
sync engine reconciles with the remote store whenever connectivity allows.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initBaseDir, initLogging)
	rootCmd.PersistentFlags().StringVar(&baseDir, "dir", "", "base directory (default: current directory)")
}

func initBaseDir() {
	if baseDir != "" {
		return
	}
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot determine working directory:", err)
		os.Exit(1)
	}
	baseDir = wd
}

func initLogging() {
	level := slog.LevelWarn
	switch strings.ToLower(os.Getenv("FILMLOG_LOG")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func openStore() (*db.DB, error) {
	return db.Open(baseDir)
}

func newEngine(store *db.DB) (*sync.Engine, error) {
	url := syncconfig.RemoteURL()
	if url == "" {
		return nil, fmt.Errorf("no remote configured: set FILMLOG_REMOTE_URL or remote.url in config.json")
	}
	client := remote.New(url, syncconfig.APIKey())
	return sync.New(store, client), nil
}

func newAssetPipeline(store *db.DB) (*assets.Pipeline, error) {
	url := syncconfig.RemoteURL()
	if url == "" {
		return nil, fmt.Errorf("no remote configured: set FILMLOG_REMOTE_URL or remote.url in config.json")
	}
	blobs := remote.NewBlobClient(url, syncconfig.APIKey(), syncconfig.Bucket())
	return assets.NewPipeline(store, gateway.New(store), blobs), nil
}
