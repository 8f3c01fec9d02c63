package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/filmlog/internal/syncconfig"
)

var (
	syncUploadOnly   bool
	syncDownloadOnly bool
	syncLoop         bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle (upload then download)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		engine, err := newEngine(store)
		if err != nil {
			return err
		}

		runOnce := func() error {
			if !syncDownloadOnly {
				n, err := engine.RunUploadCycle()
				if err != nil {
					return fmt.Errorf("upload: %w", err)
				}
				fmt.Printf("uploaded %d entities\n", n)
			}
			if !syncUploadOnly {
				res, err := engine.RunDownloadCycle()
				if err != nil {
					return fmt.Errorf("download: %w", err)
				}
				fmt.Printf("downloaded %d rows (%d conflicts)\n", res.Downloaded, res.Conflicts)
			}
			return nil
		}

		if err := runOnce(); err != nil {
			return err
		}
		if !syncLoop {
			return nil
		}

		interval := syncconfig.SyncInterval()
		fmt.Printf("syncing every %s, Ctrl-C to stop\n", interval)
		for range time.Tick(interval) {
			if err := runOnce(); err != nil {
				fmt.Println("sync error:", err)
			}
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncUploadOnly, "upload-only", false, "only drain the outbox")
	syncCmd.Flags().BoolVar(&syncDownloadOnly, "download-only", false, "only pull remote changes")
	syncCmd.Flags().BoolVar(&syncLoop, "interval", false, "keep syncing on the configured interval")
	rootCmd.AddCommand(syncCmd)
}
