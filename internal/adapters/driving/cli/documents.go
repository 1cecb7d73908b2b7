package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

var (
	docsCategory   string
	docsStatus     string
	docsJSON       bool
	docsShowText   bool
	docsShowChunks bool
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"document", "docs"},
	Short:   "Manage uploaded documents",
	Long:    `List, view, or delete uploaded documents.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsGet,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its index entries",
	Long: `Removes a document together with its chunks and vectors.
Deleting a document that the running training job is processing fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentsDelete,
}

func init() {
	documentsListCmd.Flags().StringVar(&docsCategory, "category", "", "filter by category")
	documentsListCmd.Flags().StringVar(&docsStatus, "status", "", "filter by status (uploaded, indexing, indexed, failed)")
	documentsListCmd.Flags().BoolVar(&docsJSON, "json", false, "output documents as JSON")
	documentsGetCmd.Flags().BoolVar(&docsShowText, "content", false, "print the document text")
	documentsGetCmd.Flags().BoolVar(&docsShowChunks, "chunks", false, "print the indexed chunks")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsGetCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	var filter domain.DocumentFilter
	if docsCategory != "" {
		category, err := domain.ParseCategory(docsCategory)
		if err != nil {
			return err
		}
		filter.Category = category
	}
	if docsStatus != "" {
		status, err := domain.ParseDocumentStatus(docsStatus)
		if err != nil {
			return err
		}
		filter.Status = status
	}

	docs, err := documentService.List(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if docsJSON {
		for i := range docs {
			docs[i].Content = ""
		}
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title:    %s\n", docs[i].Title)
		cmd.Printf("    Category: %s\n", docs[i].Category)
		cmd.Printf("    Status:   %s\n", statusLine(&docs[i]))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentsGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()
	doc, err := documentService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:       %s\n", doc.Title)
	if doc.Description != "" {
		cmd.Printf("  Description: %s\n", doc.Description)
	}
	cmd.Printf("  Category:    %s\n", doc.Category)
	cmd.Printf("  Status:      %s\n", statusLine(doc))
	cmd.Printf("  Chunks:      %d\n", doc.ChunkCount)
	cmd.Printf("  Created:     %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:     %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if docsShowText {
		cmd.Println("\n" + doc.Content)
	}

	if docsShowChunks {
		chunks, err := documentService.Chunks(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("failed to get chunks: %w", err)
		}
		cmd.Println()
		for i := range chunks {
			cmd.Printf("--- chunk %d (%s)\n%s\n", chunks[i].Ordinal, chunks[i].ID, chunks[i].Content)
		}
	}

	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	if err := documentService.Delete(context.Background(), docID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("document %s is being trained; try again when the job finishes", docID)
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s\n", docID)
	return nil
}

func statusLine(doc *domain.Document) string {
	if doc.Status == domain.StatusFailed && doc.FailureReason != "" {
		return fmt.Sprintf("%s (%s)", doc.Status, doc.FailureReason)
	}
	return doc.Status.String()
}
