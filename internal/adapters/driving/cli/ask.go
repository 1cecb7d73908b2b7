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

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the trained documents",
	Long: `Retrieves the most relevant chunks of the trained documents and asks the
language model to answer from them. Sources are listed with their
similarity scores. When the sources match too weakly (see the
retrieval.confidence_threshold setting) the model is not asked.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	question := strings.Join(args, " ")
	answer, err := askService.Ask(context.Background(), question)
	if errors.Is(err, domain.ErrNoKnowledge) {
		answer = &domain.Answer{Question: question, Text: domain.NoKnowledgeAnswer, Sources: []domain.SourceRef{}}
		err = nil
	}
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) == 0 {
		return nil
	}

	cmd.Println()
	if answer.LowConfidence {
		cmd.Println("The closest sources were below the confidence threshold:")
	}
	cmd.Printf("Sources (confidence %.2f):\n", answer.Confidence)
	for i, s := range answer.Sources {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, s.Title, s.Score)
	}
	return nil
}
