package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the upload queue",
}

var queueRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Reset all failed entries for another round of attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.RetryFailed()
		if err != nil {
			return err
		}
		fmt.Printf("reset %d failed entries\n", n)
		return nil
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard all failed entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.ClearFailed()
		if err != nil {
			return err
		}
		fmt.Printf("discarded %d failed entries\n", n)
		return nil
	},
}

func init() {
	queueCmd.AddCommand(queueRetryCmd)
	queueCmd.AddCommand(queueClearCmd)
	rootCmd.AddCommand(queueCmd)
}
