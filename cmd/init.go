package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/filmlog/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the local database in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Initialize(baseDir)
		if err != nil {
			return err
		}
		defer store.Close()
		fmt.Println("Initialized filmlog database in .filmlog/")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
