package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/logger"
)

// pollInterval is how often --wait checks job progress.
var pollInterval = 500 * time.Millisecond

var (
	trainAll     bool
	trainRebuild bool
	trainWait    bool
	jobsJSON  bool
	jobsLimit int
)

var trainCmd = &cobra.Command{
	Use:   "train [document-id...]",
	Short: "Index documents so they can be asked about",
	Long: `Starts an ingestion job that chunks, embeds and indexes documents.
Training an already indexed document re-indexes it. After switching the
embedding model, use --rebuild to withdraw every vector and re-index all
documents with the new model.

Only one job runs at a time; a second request fails while one is running.`,
	RunE: runTrain,
}

var trainStatusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show the progress of a training job",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrainStatus,
}

var trainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent training jobs",
	Args:  cobra.NoArgs,
	RunE:  runTrainList,
}

func init() {
	trainCmd.Flags().BoolVarP(&trainAll, "all", "a", false, "train every uploaded document")
	trainCmd.Flags().BoolVar(&trainRebuild, "rebuild", false, "drop the index and re-index every document")
	trainCmd.PersistentFlags().BoolVarP(&trainWait, "wait", "w", false, "wait for the job to finish")
	trainListCmd.Flags().BoolVar(&jobsJSON, "json", false, "output jobs as JSON")
	trainListCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 10, "maximum number of jobs")

	trainCmd.AddCommand(trainStatusCmd)
	trainCmd.AddCommand(trainListCmd)
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	ctx := context.Background()
	ids := args

	if trainRebuild {
		if len(args) > 0 {
			return errors.New("--rebuild always covers every document")
		}
		return rebuildIndex(ctx, cmd)
	}

	if trainAll {
		if len(args) > 0 {
			return errors.New("use either --all or document IDs, not both")
		}
		if documentService == nil {
			return errors.New("document service not configured")
		}
		docs, err := documentService.List(ctx, domain.DocumentFilter{})
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		for i := range docs {
			ids = append(ids, docs[i].ID)
		}
	}
	if len(ids) == 0 {
		return errors.New("nothing to train: pass document IDs or --all")
	}

	if err := ingestionService.Recover(ctx); err != nil {
		logger.Warn("recovering training jobs: %v", err)
	}

	jobID, err := ingestionService.Submit(ctx, ids)
	if errors.Is(err, domain.ErrBusy) {
		if current := ingestionService.Current(); current != nil {
			return fmt.Errorf("training job %s is still running (%d%%)", current.ID, current.Progress)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to start training: %w", err)
	}

	cmd.Printf("Training %d documents as job %s\n", len(ids), jobID)
	if !trainWait {
		cmd.Printf("Run 'sage train status %s' to follow progress.\n", jobID)
		return nil
	}
	return waitForJob(ctx, cmd, jobID)
}

func rebuildIndex(ctx context.Context, cmd *cobra.Command) error {
	if err := ingestionService.Recover(ctx); err != nil {
		logger.Warn("recovering training jobs: %v", err)
	}

	jobID, err := ingestionService.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("failed to start rebuild: %w", err)
	}

	cmd.Printf("Rebuilding the index as job %s\n", jobID)
	if !trainWait {
		cmd.Printf("Run 'sage train status %s' to follow progress.\n", jobID)
		return nil
	}
	return waitForJob(ctx, cmd, jobID)
}

func runTrainStatus(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	ctx := context.Background()
	if trainWait {
		return waitForJob(ctx, cmd, args[0])
	}

	job, err := ingestionService.Status(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	printJob(cmd, job)
	return nil
}

func runTrainList(cmd *cobra.Command, _ []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	jobs, err := ingestionService.List(context.Background(), jobsLimit)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if jobsJSON {
		data, err := json.MarshalIndent(jobs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal jobs: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(jobs) == 0 {
		cmd.Println("No training jobs yet.")
		return nil
	}
	for i := range jobs {
		cmd.Printf("  %s  %-9s %3d%%  %s\n", jobs[i].ID, jobs[i].State, jobs[i].Progress, jobs[i].Message)
	}
	return nil
}

// waitForJob polls the job until it completes, rendering progress in place
// on a terminal and as one line per change otherwise.
func waitForJob(ctx context.Context, cmd *cobra.Command, jobID string) error {
	out := cmd.OutOrStdout()
	inPlace := isTerminal(out)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	last := ""
	for {
		job, err := ingestionService.Status(ctx, jobID)
		if err != nil {
			return fmt.Errorf("failed to get job: %w", err)
		}

		line := fmt.Sprintf("[%3d%%] %s", job.Progress, job.Message)
		if line != last {
			if inPlace {
				cmd.Printf("\r\033[K%s", line)
			} else {
				cmd.Println(line)
			}
			last = line
		}

		if job.Completed() {
			if inPlace {
				cmd.Println()
			}
			return reportJob(cmd, job)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func reportJob(cmd *cobra.Command, job *domain.IngestionJob) error {
	for _, f := range job.Failures {
		cmd.Printf("  failed: %s (%s)\n", failureName(f), f.Reason)
	}
	if job.State == domain.JobFailed {
		return fmt.Errorf("training failed: %s", job.Message)
	}
	if err := job.Err(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	}
	cmd.Println("Training complete.")
	return nil
}

func printJob(cmd *cobra.Command, job *domain.IngestionJob) {
	cmd.Printf("Job: %s\n\n", job.ID)
	cmd.Printf("  State:     %s\n", job.State)
	cmd.Printf("  Progress:  %d%% (%d of %d documents)\n", job.Progress, job.Processed, job.Total)
	cmd.Printf("  Message:   %s\n", job.Message)
	cmd.Printf("  Completed: %t\n", job.Completed())
	if job.Completed() {
		cmd.Printf("  Success:   %t\n", job.Success)
	}
	for _, f := range job.Failures {
		cmd.Printf("  Failed:    %s (%s)\n", failureName(f), f.Reason)
	}
}

func failureName(f domain.DocumentFailure) string {
	if f.Title != "" {
		return f.Title
	}
	return f.DocumentID
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
