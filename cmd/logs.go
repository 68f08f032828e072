package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/door-dashboard/internal/config"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent door access events",
	Long: `Show the most recent door access events recorded by the device,
newest first. Events without an identified person are shown as N/A.`,
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, st, err := buildService(ctx, config.Load())
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := svc.RecentLogs(ctx)
	if err != nil {
		return fmt.Errorf("fetching access logs: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No access events recorded.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Label,
			e.Person,
		})
	}

	fmt.Println(renderTable(
		[]string{"Time", "Event", "Person"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
	return nil
}
