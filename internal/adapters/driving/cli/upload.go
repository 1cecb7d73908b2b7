package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

var (
	uploadFile        string
	uploadTitle       string
	uploadCategory    string
	uploadDescription string
	uploadTrain       bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [content]",
	Short: "Upload a document",
	Long: `Stores a document for training. Content comes from the argument,
from --file, or from stdin when the argument is "-".

Files are converted to text by format: Markdown, HTML, DOCX, EML and plain
text are supported. Uploaded documents are not searchable until trained.

Examples:
  sage upload --file handbook.md --category training
  sage upload --title "Office hours" "We meet every Tuesday at 5pm."
  cat faq.txt | sage upload --title FAQ -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadFile, "file", "f", "", "read the document from a file")
	uploadCmd.Flags().StringVarP(&uploadTitle, "title", "t", "", "document title (default: from the file)")
	uploadCmd.Flags().StringVarP(&uploadCategory, "category", "c", "knowledge", "knowledge, training or reference")
	uploadCmd.Flags().StringVarP(&uploadDescription, "description", "d", "", "short description")
	uploadCmd.Flags().BoolVar(&uploadTrain, "train", false, "start training the document right away")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	category, err := domain.ParseCategory(uploadCategory)
	if err != nil {
		return err
	}
	meta := domain.NewDocument{
		Title:       uploadTitle,
		Description: uploadDescription,
		Category:    category,
	}

	ctx := context.Background()
	var doc *domain.Document

	switch {
	case uploadFile != "" && len(args) > 0:
		return errors.New("use either --file or a content argument, not both")

	case uploadFile != "":
		doc, err = uploadFromFile(ctx, uploadFile, meta)

	case len(args) == 1:
		content := args[0]
		if content == "-" {
			data, readErr := io.ReadAll(cmd.InOrStdin())
			if readErr != nil {
				return fmt.Errorf("reading stdin: %w", readErr)
			}
			content = string(data)
		}
		meta.Content = content
		doc, err = documentService.Add(ctx, meta)

	default:
		return errors.New("nothing to upload: pass content, - for stdin, or --file")
	}
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	cmd.Printf("Uploaded %q as %s (%s)\n", doc.Title, doc.ID, doc.Category)

	if !uploadTrain {
		cmd.Printf("Run 'sage train %s' to make it searchable.\n", doc.ID)
		return nil
	}
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	jobID, err := ingestionService.Submit(ctx, []string{doc.ID})
	if err != nil {
		return fmt.Errorf("failed to start training: %w", err)
	}
	cmd.Printf("Training started: %s\n", jobID)
	return nil
}

func uploadFromFile(ctx context.Context, path string, meta domain.NewDocument) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if fileImporter != nil {
		return fileImporter.Import(ctx, domain.RawFile{Filename: filepath.Base(path), Content: data}, meta)
	}

	if strings.TrimSpace(meta.Title) == "" {
		base := filepath.Base(path)
		meta.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	meta.Content = string(data)
	return documentService.Add(ctx, meta)
}
