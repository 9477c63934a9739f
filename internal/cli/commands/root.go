// Package commands wires the CLI surface: interactive chat, one-shot asks,
// and session management against the agent backend.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Bluenyg/BuptManus/internal/cli/ui"
)

const version = "0.1.0"

var (
	cfgFile    string
	flagServer string
)

// rootCmd is the root command
var rootCmd = &cobra.Command{
	Use:     "manusctl",
	Short:   "BuptManus multi-agent chat CLI",
	Version: version,
	Long: `A command-line client for the BuptManus multi-agent backend. Streams agent
workflows live into your terminal: planning, research, coding, browsing and
tool calls, with the final report at the end.`,
	Example: `  # Start interactive chat (creates a new session)
  $ manusctl chat

  # Resume an existing session
  $ manusctl chat --session 6f1c9d2e

  # One-shot question, prints the result and exits
  $ manusctl ask "What do the latest sales numbers look like?"

  # Ask about an image
  $ manusctl ask --image ./chart.png "Summarize this chart"

  # Manage sessions
  $ manusctl list
  $ manusctl new
  $ manusctl delete 6f1c9d2e`,
}

// Execute executes the root command
func Execute() error {
	rootCmd.SetVersionTemplate(formatVersion())
	return rootCmd.Execute()
}

func init() {
	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.manusctl/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "backend base URL (overrides config)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(deleteCmd)

	// Set custom template with bold uppercase headers
	rootCmd.SetUsageTemplate(usageTemplate())
	rootCmd.SetHelpTemplate(usageTemplate())
}

func usageTemplate() string {
	return `{{if .Long}}{{.Long}}

{{end}}` + ui.Styles.Bold.Render("USAGE") + `
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasExample}}` + ui.Styles.Bold.Render("EXAMPLES") + `
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}` + ui.Styles.Bold.Render("COMMANDS") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableLocalFlags}}` + ui.Styles.Bold.Render("OPTIONS") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}

// formatVersion formats the version output
func formatVersion() string {
	return fmt.Sprintf("manusctl version %s\n", version)
}
