package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bluenyg/BuptManus/internal/cli/ui"
)

// listCmd is the session list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list chat sessions",
	Long:  `List all persisted chat sessions on the backend, newest first as the backend reports them.`,
	Example: `  # List all sessions
  $ manusctl list`,
	RunE: runList,
}

func init() {
	listCmd.SilenceUsage = true
}

func runList(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		ui.PrintError("unexpected argument: %s", args[0])
		fmt.Printf("\nRun '%s --help' for usage.\n", cmd.CommandPath())
		return fmt.Errorf("invalid arguments")
	}

	e, err := setup(false)
	if err != nil {
		ui.PrintError("%v", err)
		return fmt.Errorf("setup failed")
	}

	ctx, cancel := context.WithTimeout(e.commandContext(), 30*time.Second)
	defer cancel()

	sessions, err := e.api.ListSessions(ctx)
	if err != nil {
		ui.PrintError("failed to list sessions: %v", err)
		return fmt.Errorf("list operation failed")
	}

	rows := make([]ui.SessionRow, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, ui.SessionRow{ID: s.ID, Title: s.Title, CreatedAt: s.CreatedAt})
	}

	fmt.Println()
	fmt.Println(ui.RenderSessionList(rows))
	fmt.Printf("\n%d session(s)\n", len(sessions))
	return nil
}
