package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var conflictsLimit int

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List recent server-wins overwrites",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		conflicts, err := store.RecentConflicts(conflictsLimit)
		if err != nil {
			return err
		}
		if len(conflicts) == 0 {
			fmt.Println("no conflicts recorded")
			return nil
		}
		for _, c := range conflicts {
			fmt.Printf("%s  %s/%s  %s\n",
				c.CreatedAt.Format("2006-01-02 15:04:05"), c.Table, c.EntityID, c.ResolvedBy)
		}
		return nil
	},
}

func init() {
	conflictsCmd.Flags().IntVar(&conflictsLimit, "limit", 20, "maximum conflicts to show")
	rootCmd.AddCommand(conflictsCmd)
}
