package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bluenyg/BuptManus/internal/cli/tui"
	"github.com/Bluenyg/BuptManus/internal/cli/ui"
)

var (
	chatSessionID    string
	chatDeepThinking bool
	chatSearchPlan   bool
	chatDebug        bool
)

// chatCmd is the interactive chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "start interactive chat with the agent team",
	Long: `Start an interactive chat session.

The agent workflow streams live into the terminal: step tree, plan, tool
calls and the final report. Without --session a fresh session is created.`,
	Example: `  # Start a new chat session
  $ manusctl chat

  # Resume an existing session
  $ manusctl chat --session 6f1c9d2e

  # Keyboard controls:
  • Enter sends, Esc cancels a streaming reply (quits when idle)
  • Ctrl+N new session, Ctrl+S switch session`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "Session ID to resume")
	chatCmd.Flags().BoolVar(&chatDeepThinking, "deep-thinking", false, "Enable deep thinking mode")
	chatCmd.Flags().BoolVar(&chatSearchPlan, "search-plan", false, "Search the web before planning")
	chatCmd.Flags().BoolVar(&chatDebug, "debug", false, "Ask the backend for debug-level detail")

	chatCmd.SilenceUsage = true
}

func runChat(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		ui.PrintError("unexpected argument: %s", args[0])
		fmt.Println("\nRun 'manusctl chat' to start interactive session.")
		return fmt.Errorf("invalid arguments")
	}

	e, err := setup(true)
	if err != nil {
		ui.PrintError("%v", err)
		return fmt.Errorf("setup failed")
	}

	ctx, cancel := context.WithTimeout(e.commandContext(), 30*time.Second)
	defer cancel()

	sessionID := chatSessionID
	if sessionID == "" {
		created, err := e.api.CreateSession(ctx)
		if err != nil {
			ui.PrintError("failed to create session: %v", err)
			return fmt.Errorf("session creation failed")
		}
		sessionID = created.ID
	}
	if err := e.store.Switch(ctx, sessionID); err != nil {
		ui.PrintError("failed to load session %s: %v", sessionID, err)
		return fmt.Errorf("session load failed")
	}

	ui.PrintChatWelcomeBanner()

	opts := e.chatOptions(chatDeepThinking, chatSearchPlan, chatDebug)
	program := tui.NewChatProgram(e.store, e.api, opts)
	if err := program.Run(); err != nil {
		return fmt.Errorf("failed to run chat TUI: %w", err)
	}

	return nil
}
