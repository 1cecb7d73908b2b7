package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sage-cli/internal/adapters/driven/config/file"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage the member registry",
	Long: `Members are read from the file named by the members.file setting, or from
the local database when no file is configured.`,
	RunE: runMembersSkills,
}

var membersSkillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List every known skill",
	Args:  cobra.NoArgs,
	RunE:  runMembersSkills,
}

var membersImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import members from a members.json file",
	Long: `Copies members from a JSON array into the local database. Each record has
name, skills, projects, availability, twitter_handle and telegram_id; records
without an id are numbered by position.`,
	Args: cobra.ExactArgs(1),
	RunE: runMembersImport,
}

func init() {
	membersCmd.AddCommand(membersSkillsCmd)
	membersCmd.AddCommand(membersImportCmd)
	rootCmd.AddCommand(membersCmd)
}

func runMembersSkills(cmd *cobra.Command, _ []string) error {
	if skillMatcher == nil {
		return errors.New("skill matcher not configured")
	}

	skills, err := skillMatcher.Skills(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list skills: %w", err)
	}
	if len(skills) == 0 {
		cmd.Println("No members registered. Run 'sage members import <file>'.")
		return nil
	}

	cmd.Printf("Known skills (%d):\n", len(skills))
	cmd.Printf("  %s\n", strings.Join(skills, ", "))
	return nil
}

func runMembersImport(cmd *cobra.Command, args []string) error {
	if memberWriter == nil {
		return errors.New("member registry is read-only (members.file is set)")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	members, err := file.ParseMembers(data)
	if err != nil {
		return err
	}

	if err := memberWriter.SaveMembers(context.Background(), members); err != nil {
		return fmt.Errorf("failed to save members: %w", err)
	}

	cmd.Printf("Imported %d members.\n", len(members))
	return nil
}
