package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bluenyg/BuptManus/internal/cli/ui"
)

// newCmd creates a session without entering chat
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "create a new chat session",
	Long:  `Create a new empty chat session and print its ID, for use with 'manusctl chat --session' or 'manusctl ask --session'.`,
	Example: `  # Create a session and chat in it later
  $ manusctl new
  $ manusctl chat --session <id>`,
	RunE: runNew,
}

func init() {
	newCmd.SilenceUsage = true
}

func runNew(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		ui.PrintError("unexpected argument: %s", args[0])
		return fmt.Errorf("invalid arguments")
	}

	e, err := setup(false)
	if err != nil {
		ui.PrintError("%v", err)
		return fmt.Errorf("setup failed")
	}

	ctx, cancel := context.WithTimeout(e.commandContext(), 30*time.Second)
	defer cancel()

	created, err := e.api.CreateSession(ctx)
	if err != nil {
		ui.PrintError("failed to create session: %v", err)
		return fmt.Errorf("session creation failed")
	}

	ui.PrintSuccess("Created session %s", created.ID)
	return nil
}
