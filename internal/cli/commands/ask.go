package commands

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Bluenyg/BuptManus/internal/cli/ui"
	"github.com/Bluenyg/BuptManus/internal/message"
)

var (
	askSessionID    string
	askImagePath    string
	askDeepThinking bool
	askSearchPlan   bool
	askDebug        bool
)

// askCmd is the one-shot question command
var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "ask a one-shot question and print the result",
	Long: `Send a single prompt, wait for the full agent workflow to finish, and
print the assembled result. Without --session the question runs in a fresh
session, so it still shows up in 'manusctl list' afterwards.`,
	Example: `  # Plain question
  $ manusctl ask "Compare Go and Rust for network services"

  # Attach an image
  $ manusctl ask --image ./chart.png "What does this chart show?"

  # Deeper reasoning
  $ manusctl ask --deep-thinking "Plan a three-city trip for next week"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askSessionID, "session", "", "Session ID to ask in")
	askCmd.Flags().StringVar(&askImagePath, "image", "", "Image file to attach")
	askCmd.Flags().BoolVar(&askDeepThinking, "deep-thinking", false, "Enable deep thinking mode")
	askCmd.Flags().BoolVar(&askSearchPlan, "search-plan", false, "Search the web before planning")
	askCmd.Flags().BoolVar(&askDebug, "debug", false, "Ask the backend for debug-level detail")

	askCmd.SilenceUsage = true
}

func runAsk(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		ui.PrintError("prompt is empty")
		return fmt.Errorf("invalid arguments")
	}

	e, err := setup(false)
	if err != nil {
		ui.PrintError("%v", err)
		return fmt.Errorf("setup failed")
	}

	ctx := e.commandContext()

	sessionID := askSessionID
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

	userMsg, err := buildAskMessage(prompt, askImagePath)
	if err != nil {
		ui.PrintError("%v", err)
		return fmt.Errorf("invalid arguments")
	}

	turn, err := e.store.StartTurn(ctx, sessionID, userMsg, e.chatOptions(askDeepThinking, askSearchPlan, askDebug))
	if err != nil {
		ui.PrintError("failed to start turn: %v", err)
		return fmt.Errorf("chat failed")
	}

	// Plain text streams live; the workflow is rendered once, after the
	// stream ends, when its structure is complete.
	printed := 0
	for range turn.Updates() {
		snap := turn.Snapshot()
		if len(snap.Text) > printed {
			fmt.Print(snap.Text[printed:])
			printed = len(snap.Text)
		}
	}
	<-turn.Done()
	if printed > 0 {
		fmt.Println()
	}
	if snap := turn.Snapshot(); snap.Err != "" {
		ui.PrintWarning("stream ended early, result may be partial: %s", snap.Err)
	}

	msgs := e.store.MessagesFor(sessionID)
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != message.RoleAssistant {
		ui.PrintError("no response received")
		return fmt.Errorf("chat failed")
	}

	last := msgs[len(msgs)-1]
	if last.Type == message.TypeWorkflow {
		fmt.Println(ui.RenderWorkflow(last.Workflow))
	} else if printed == 0 {
		fmt.Println(last.Text)
	}
	fmt.Println(ui.Styles.Bold.Render("Session: ") + sessionID)
	return nil
}

// buildAskMessage turns the prompt, plus an optional image file, into the
// outgoing user message. Images are inlined as data URLs.
func buildAskMessage(prompt, imagePath string) (message.Message, error) {
	msg := message.Message{
		ID:   uuid.New().String(),
		Role: message.RoleUser,
	}

	if imagePath == "" {
		msg.Type = message.TypeText
		msg.Text = prompt
		return msg, nil
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return message.Message{}, fmt.Errorf("failed to read image: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if !strings.HasPrefix(mimeType, "image/") {
		return message.Message{}, fmt.Errorf("unsupported image type: %s", imagePath)
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	msg.Type = message.TypeMultimodal
	msg.Parts = []message.Part{
		{Kind: message.PartText, Text: prompt},
		{Kind: message.PartImage, ImageURL: dataURL},
	}
	return msg, nil
}
