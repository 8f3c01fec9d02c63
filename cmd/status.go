package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/marcus/filmlog/internal/db"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync queue and watermark state",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		pending, failed, err := store.QueueStats()
		if err != nil {
			return err
		}
		lastUp, _ := store.GetMeta(db.MetaLastUploadSync)
		lastDown, _ := store.GetMeta(db.MetaLastDownloadSync)

		pendingStr := okStyle.Render(fmt.Sprintf("%d", pending))
		if pending > 0 {
			pendingStr = warnStyle.Render(fmt.Sprintf("%d", pending))
		}
		failedStr := okStyle.Render(fmt.Sprintf("%d", failed))
		if failed > 0 {
			failedStr = errStyle.Render(fmt.Sprintf("%d", failed))
		}

		fmt.Printf("%s %s\n", labelStyle.Render("pending:"), pendingStr)
		fmt.Printf("%s %s\n", labelStyle.Render("failed: "), failedStr)
		fmt.Printf("%s %s\n", labelStyle.Render("last upload:  "), orNever(lastUp))
		fmt.Printf("%s %s\n", labelStyle.Render("last download:"), orNever(lastDown))
		return nil
	},
}

func orNever(s string) string {
	if s == "" {
		return "never"
	}
	return s
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
