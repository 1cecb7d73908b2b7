// Command sage answers community questions from locally indexed documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sage-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/sage-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sage-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/core/services"
	"github.com/custodia-labs/sage-cli/internal/logger"
	"github.com/custodia-labs/sage-cli/internal/normalisers"
	"github.com/custodia-labs/sage-cli/internal/postprocessors/chunker"
)

// shutdownTimeout bounds how long exit waits for a running training job.
const shutdownTimeout = 30 * time.Second

func main() {
	cli.SetBootstrap(bootstrap)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

func bootstrap(dataDir string) (*cli.Services, error) {
	ctx := context.Background()

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewProbe(0))
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	aiServices, err := ai.NewServices(ctx, settings)
	if err != nil {
		// Training and ask report the embedder as unavailable; settings
		// commands still work so the provider can be fixed.
		logger.Warn("embedding: %v", err)
		aiServices = &ai.Services{}
	}
	for _, w := range aiServices.Warnings {
		logger.Debug("ai: %s", w)
	}

	store, err := sqlite.NewStore(filepath.Join(dataDir, "data"))
	if err != nil {
		aiServices.Close()
		return nil, err
	}

	docs := store.DocumentStore()
	index := store.VectorIndex()
	settingsService.WithIndex(index)
	controller := services.NewIngestionController(
		docs,
		store.JobStore(),
		index,
		aiServices.Embedding,
		chunker.New(
			chunker.WithChunkSize(settings.Chunking.Size),
			chunker.WithOverlap(settings.Chunking.Overlap),
		),
	).WithLock(store.JobLock(), services.DefaultLeaseTTL)

	documents := services.NewDocumentService(docs, index, controller)
	retriever := services.NewRetriever(docs, index, aiServices.Embedding)
	gateway := services.NewGenerationGateway(aiServices.LLM)

	var registry driven.MemberRegistry = store.MemberStore()
	var writer driven.MemberWriter = store.MemberStore()
	if settings.Members.File != "" {
		registry = file.NewMemberFile(settings.Members.File)
		writer = nil
	}

	return &cli.Services{
		Documents: documents,
		Importer:  services.NewFileImporter(documents, normalisers.Default()),
		Ingestion: controller,
		Ask:       services.NewAskService(retriever, gateway, services.AskConfigFromSettings(settings)),
		Skills:    services.NewSkillMatcher(registry),
		Settings:  settingsService,
		Members:   writer,
		Shutdown: func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if job := controller.Current(); job != nil {
				logger.Info("waiting for training job %s to finish", job.ID)
			}
			err := controller.Shutdown(shutdownCtx)
			aiServices.Close()
			return errors.Join(err, store.Close())
		},
	}, nil
}
