package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/filmlog/internal/gateway"
	"github.com/marcus/filmlog/internal/models"
	"github.com/marcus/filmlog/internal/syncconfig"
)

var putJSON string

var putCmd = &cobra.Command{
	Use:   "put <table>",
	Short: "Create or update an entity from JSON",
	Long: `Writes an entity through the write-through gateway. The change lands
locally right away and is queued for upload unless running as guest.

Example:
  filmlog put cameras --json '{"name":"OM-1","make":"Olympus"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var row models.Row
		if err := json.Unmarshal([]byte(putJSON), &row); err != nil {
			return fmt.Errorf("parse --json: %w", err)
		}
		if row["owner_id"] == nil {
			if owner := syncconfig.OwnerID(); owner != "" {
				row["owner_id"] = owner
			} else {
				row["owner_id"] = models.GuestOwnerID
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		saved, err := gateway.New(store).Put(args[0], row)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s saved\n", args[0], saved["id"])
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <table> <id>",
	Short: "Soft-delete an entity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := gateway.New(store).Delete(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s %s deleted\n", args[0], args[1])
		return nil
	},
}

func init() {
	putCmd.Flags().StringVar(&putJSON, "json", "{}", "entity fields as a JSON object")
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(rmCmd)
}
