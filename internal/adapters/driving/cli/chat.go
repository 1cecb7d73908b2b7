package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui"
)

// runChatApp runs the TUI program. Tests replace it.
var runChatApp = func(app *tui.App) error {
	return app.Run()
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal interface.

Ask questions, find members by skill and browse, train or delete
documents without leaving the terminal.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Ask / Select
  Esc      - Back
  q        - Quit (from the menu)`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if askService == nil || skillMatcher == nil || documentService == nil {
		return errors.New("services not configured")
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Ask:       askService,
		Skills:    skillMatcher,
		Documents: documentService,
		Ingestion: ingestionService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := runChatApp(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
