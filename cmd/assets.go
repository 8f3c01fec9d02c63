package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/filmlog/internal/syncconfig"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Replicate frame thumbnails",
}

var assetsPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload local thumbnails that have no remote copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner := syncconfig.OwnerID()
		if owner == "" {
			return fmt.Errorf("no owner configured: guest data never syncs")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		pipeline, err := newAssetPipeline(store)
		if err != nil {
			return err
		}
		n, err := pipeline.RunUploadSweep(owner)
		if err != nil {
			return err
		}
		fmt.Printf("uploaded %d thumbnails\n", n)
		return nil
	},
}

var assetsPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download thumbnails for frames missing a local cache copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		pipeline, err := newAssetPipeline(store)
		if err != nil {
			return err
		}
		n, err := pipeline.RunDownloadSweep()
		if err != nil {
			return err
		}
		fmt.Printf("fetched %d thumbnails\n", n)
		return nil
	},
}

func init() {
	assetsCmd.AddCommand(assetsPushCmd)
	assetsCmd.AddCommand(assetsPullCmd)
	rootCmd.AddCommand(assetsCmd)
}
