package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studyforge/studyforge-backend/internal/config"
	"github.com/studyforge/studyforge-backend/internal/data/store"
	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/modules/generate"
	"github.com/studyforge/studyforge-backend/internal/modules/knowledge"
	"github.com/studyforge/studyforge-backend/internal/modules/knowledge/steps"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
	"github.com/studyforge/studyforge-backend/internal/platform/openai"
)

// Category subdirectories scanned under the input dir. Files directly in
// the input dir fall into Miscellaneous.
var categories = []string{"Lectures", "Tutorials", "Labs", "Miscellaneous"}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// OpenAI (optional; pipeline degrades to heuristic analysis without it)
	var ai openai.Client
	if cfg.OpenAIAPIKey != "" {
		ai, err = openai.NewClient(log, openai.Config{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
		})
		if err != nil {
			log.Warn("OpenAI init failed, continuing without LLM", "error", err)
		}
	} else {
		log.Info("no OpenAI key configured, using heuristic analysis and fallback rendering")
	}

	// Store
	log.Info("Opening run manifest store...", "path", cfg.DBPath)
	db, err := store.Open(cfg.DBPath)
	var manifests store.RunManifestRepo
	if err != nil {
		log.Warn("sqlite init failed, runs will not be recorded", "error", err)
	} else {
		manifests = store.NewRunManifestRepo(db, log)
	}

	// Pipeline wiring
	var analyzer steps.DocumentAnalyzer
	var summarizer steps.TopicSummarizer
	var generator generate.Generator
	if ai != nil {
		analyzer = knowledge.NewLLMAnalyzer(log, ai)
		summarizer = knowledge.NewLLMTopicSummarizer(log, ai)
		generator = generate.NewLLMGenerator(log, ai)
	} else {
		analyzer = knowledge.NewPageAnalyzer(log)
		generator = generate.NewLatexGenerator()
	}

	usecases, err := knowledge.NewUsecases(knowledge.UsecasesDeps{
		Log:                 log,
		Analyzer:            analyzer,
		Summarizer:          summarizer,
		Generator:           generator,
		SimilarityThreshold: cfg.SimilarityThreshold,
		MaxWorkers:          cfg.MaxWorkers,
		PerDocTimeout:       cfg.PerDocTimeout(),
	})
	if err != nil {
		log.Fatal("pipeline wiring failed", "error", err)
	}

	docs, err := collectDocuments(cfg.InputDir)
	if err != nil {
		log.Fatal("failed to scan input directory", "input_dir", cfg.InputDir, "error", err)
	}
	if len(docs) == 0 {
		log.Fatal("no documents found", "input_dir", cfg.InputDir)
	}
	log.Info("collected documents", "count", len(docs), "input_dir", cfg.InputDir)

	ctx := context.Background()
	result := usecases.RunPipeline(ctx, docs)
	if result.Failed() {
		log.Error("pipeline failed", "stage", result.Stage, "error", result.Err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatal("failed to create output dir", "output_dir", cfg.OutputDir, "error", err)
	}
	outputPath := filepath.Join(cfg.OutputDir, "main.tex")
	if err := os.WriteFile(outputPath, []byte(result.Content), 0o644); err != nil {
		log.Fatal("failed to write output", "path", outputPath, "error", err)
	}
	log.Info("wrote output", "path", outputPath, "bytes", len(result.Content))

	if manifests != nil && !result.Failed() {
		meta, _ := json.Marshal(result.Knowledge.Clusters)
		row := &domain.RunManifest{
			ID:           uuid.New(),
			Category:     result.Knowledge.Category,
			Title:        cfg.Title,
			NodeCount:    len(result.Knowledge.Nodes),
			EdgeCount:    len(result.Knowledge.Edges),
			ClusterCount: len(result.Knowledge.Clusters),
			DocsAnalyzed: result.DocsAnalyzed,
			DocsFailed:   result.DocsFailed,
			OutputPath:   outputPath,
			ClusterMeta:  datatypes.JSON(meta),
			CreatedAt:    time.Now().UTC(),
		}
		if err := manifests.Create(ctx, row); err != nil {
			log.Warn("failed to record run manifest", "error", err)
		} else {
			log.Info("recorded run manifest", "run_id", row.ID)
		}
	}

	if result.Failed() {
		os.Exit(1)
	}
}

// collectDocuments walks the category subdirectories of inputDir, then any
// remaining files at the top level as Miscellaneous.
func collectDocuments(inputDir string) ([]domain.Document, error) {
	var docs []domain.Document
	for _, category := range categories {
		dir := filepath.Join(inputDir, category)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !isDocumentFile(e.Name()) {
				continue
			}
			docs = append(docs, domain.Document{
				SourcePath: filepath.Join(dir, e.Name()),
				Category:   category,
			})
		}
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		if len(docs) > 0 {
			return docs, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !isDocumentFile(e.Name()) {
			continue
		}
		docs = append(docs, domain.Document{
			SourcePath: filepath.Join(inputDir, e.Name()),
			Category:   domain.CategoryMiscellaneous,
		})
	}
	return docs, nil
}

func isDocumentFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
