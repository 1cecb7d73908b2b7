package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

var (
	findAvailable bool
	findLimit     int
	findJSON      bool
)

var findCmd = &cobra.Command{
	Use:   "find [skills]",
	Short: "Find members by skill",
	Long: `Ranks community members by how many of the given skills they have.
Skills are separated by commas or spaces; a member whose skill equals the
whole query ranks above members matching single words.

Example:
  sage find rust, go`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().BoolVar(&findAvailable, "available", false, "only members marked available")
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 0, "maximum number of members (0 = all)")
	findCmd.Flags().BoolVar(&findJSON, "json", false, "output matches as JSON")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	if skillMatcher == nil {
		return errors.New("skill matcher not configured")
	}

	ctx := context.Background()
	query := strings.Join(args, " ")
	matches, err := skillMatcher.Find(ctx, query, domain.FindOptions{
		AvailableOnly: findAvailable,
		Limit:         findLimit,
	})
	if err != nil {
		return fmt.Errorf("find failed: %w", err)
	}

	if findJSON {
		data, err := json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal matches: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(matches) == 0 {
		cmd.Printf("No members found with skills: %s\n", query)
		skills, err := skillMatcher.Skills(ctx)
		if err == nil && len(skills) > 0 {
			cmd.Printf("Known skills: %s\n", strings.Join(skills, ", "))
		}
		return nil
	}

	for i := range matches {
		printMatch(cmd, i+1, &matches[i])
	}
	return nil
}

func printMatch(cmd *cobra.Command, rank int, m *domain.SkillMatch) {
	availability := "available"
	if !m.Member.Available {
		availability = "busy"
	}
	cmd.Printf("  [%d] %s (%s, score %d)\n", rank, m.Member.Name, availability, m.Score)
	cmd.Printf("      Matched: %s\n", strings.Join(m.MatchedSkills, ", "))
	if len(m.Member.Projects) > 0 {
		cmd.Printf("      Projects: %s\n", strings.Join(m.Member.Projects, ", "))
	}
	if m.Member.TelegramHandle != "" {
		cmd.Printf("      Telegram: %s\n", m.Member.TelegramHandle)
	}
	if m.Member.TwitterHandle != "" {
		cmd.Printf("      Twitter: %s\n", m.Member.TwitterHandle)
	}
}
