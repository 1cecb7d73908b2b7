package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sage-cli/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/watcher"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/logger"
)

var (
	serveAddr  string
	serveInbox string
	serveMCP   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts the HTTP API on server.addr (default :8080).

When inbox.dir is set, or --inbox is given, files dropped into that
directory are uploaded and trained automatically. With --mcp the MCP
server is mounted at /mcp on the same port.

Routes:
  POST   /api/upload             upload a document (JSON or multipart "file")
  POST   /api/train              start a training job
  GET    /api/train/:id/status   job progress
  GET    /api/documents          list documents
  GET    /api/documents/:id      show a document
  DELETE /api/documents/:id      delete a document
  POST   /api/ask                ask a question
  GET    /api/find?skills=       find members by skill
  GET    /healthz                liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().StringVar(&serveInbox, "inbox", "", "watch this directory for new documents")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "mount the MCP server at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if documentService == nil || ingestionService == nil || askService == nil || skillMatcher == nil {
		return errors.New("services not configured")
	}

	settings := domain.DefaultAppSettings()
	if settingsService != nil {
		s, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		settings = *s
	}

	addr := settings.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	inbox := settings.Inbox.Dir
	if serveInbox != "" {
		inbox = serveInbox
	}

	cfg := httpapi.Config{
		AskPerMinute: settings.Server.AskPerMinute,
		AskBurst:     settings.Server.AskBurst,
		AllowOrigins: settings.Server.CORSOrigins,
	}
	if serveMCP {
		server, err := mcp.NewServer(&mcp.Ports{Ask: askService, Skills: skillMatcher, Document: documentService})
		if err != nil {
			return err
		}
		cfg.MCP = server.Handler()
	}

	router, err := httpapi.NewRouter(&httpapi.Ports{
		Documents: documentService,
		Ingestion: ingestionService,
		Ask:       askService,
		Skills:    skillMatcher,
		Importer:  fileImporter,
	}, cfg)
	if err != nil {
		return err
	}

	if inbox != "" && fileImporter == nil {
		return errors.New("file importer not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ingestionService.Recover(ctx); err != nil {
		logger.Warn("recovering training jobs: %v", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpapi.NewServer(addr, router).Run(ctx)
	})

	if inbox != "" {
		w := watcher.New(inbox, settings.Inbox.Category, documentService, fileImporter,
			watcher.WithAutoTrain(ingestionService))
		g.Go(func() error {
			return w.Run(ctx)
		})
		cmd.Printf("Watching %s for new documents\n", inbox)
	}

	cmd.Printf("Serving on %s (Ctrl-C to stop)\n", addr)
	return g.Wait()
}
