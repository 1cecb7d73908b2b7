// Package cli implements the sage command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sage-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services are the core services the commands drive.
type Services struct {
	Documents driving.DocumentService
	Importer  driving.FileImporter
	Ingestion driving.IngestionController
	Ask       driving.AskService
	Skills    driving.SkillMatcher
	Settings  driving.SettingsService

	// Members, when set, accepts `sage members import`.
	Members driven.MemberWriter

	// Shutdown waits for background work such as a running ingestion job.
	Shutdown func() error
}

// Bootstrap builds the services for a data directory.
type Bootstrap func(dataDir string) (*Services, error)

var (
	documentService  driving.DocumentService
	fileImporter     driving.FileImporter
	ingestionService driving.IngestionController
	askService       driving.AskService
	skillMatcher     driving.SkillMatcher
	settingsService  driving.SettingsService
	memberWriter     driven.MemberWriter
	shutdownServices func() error

	bootstrap Bootstrap
	dataDir   string
	verbose   bool
)

// skipServices marks commands that run without the core services.
const skipServices = "skip-services"

var rootCmd = &cobra.Command{
	Use:   "sage",
	Short: "Answer community questions from your own documents",
	Long: `Sage indexes community documents locally and answers questions from them.

Upload documents, train the index, then ask questions or find members by
skill. Run 'sage serve' to expose the same operations over HTTP.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.sage)")
}

// SetServices injects the services used by every command.
func SetServices(s *Services) {
	documentService = s.Documents
	fileImporter = s.Importer
	ingestionService = s.Ingestion
	askService = s.Ask
	skillMatcher = s.Skills
	settingsService = s.Settings
	memberWriter = s.Members
	shutdownServices = s.Shutdown
}

// SetBootstrap registers the function that builds services once flags are parsed.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if shutdownServices != nil {
			if err := shutdownServices(); err != nil {
				logger.Warn("shutdown: %v", err)
			}
		}
	}()
	return rootCmd.Execute()
}

// DefaultDataDir returns ~/.sage, or SAGE_HOME when set.
func DefaultDataDir() (string, error) {
	if dir := os.Getenv("SAGE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".sage"), nil
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[skipServices] == "true" {
		return nil
	}

	dir := dataDir
	if dir == "" {
		var err error
		if dir, err = DefaultDataDir(); err != nil {
			return err
		}
	}

	s, err := bootstrap(dir)
	if err != nil {
		return fmt.Errorf("starting sage: %w", err)
	}
	SetServices(s)
	return nil
}
