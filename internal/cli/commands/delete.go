package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/Bluenyg/BuptManus/internal/cli/ui"
)

var deleteForce bool

// deleteCmd is the session delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "delete a chat session",
	Long: `Delete a chat session and all of its messages on the backend.

By default, you will be prompted to confirm the deletion. Use --force to skip confirmation.`,
	Example: `  # Delete a session
  $ manusctl delete 6f1c9d2e

  # Force delete without confirmation
  $ manusctl delete 6f1c9d2e --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")

	// Silence usage to avoid showing help on every error
	deleteCmd.SilenceUsage = true
}

func runDelete(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	e, err := setup(false)
	if err != nil {
		ui.PrintError("%v", err)
		return fmt.Errorf("setup failed")
	}

	ctx, cancel := context.WithTimeout(e.commandContext(), 30*time.Second)
	defer cancel()

	if !deleteForce {
		confirm := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Delete session '%s' and all its messages?", sessionID),
		}
		if err := survey.AskOne(prompt, &confirm); err != nil {
			return fmt.Errorf("confirmation prompt failed: %w", err)
		}
		if !confirm {
			ui.PrintInfo("Deletion cancelled")
			return nil
		}
	}

	if err := e.api.DeleteSession(ctx, sessionID); err != nil {
		ui.PrintError("failed to delete: %v", err)
		return fmt.Errorf("deletion failed")
	}
	e.store.Forget(sessionID)

	ui.PrintSuccess("Deleted session %s", sessionID)
	return nil
}
