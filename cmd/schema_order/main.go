package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/studyforge/studyforge-backend/internal/config"
	"github.com/studyforge/studyforge-backend/internal/modules/knowledge/schema"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
)

// Standalone ordering over an externally supplied schema graph: finds the
// newest GraphML export under the schema dir, derives a basic-to-advanced
// topic order, and writes it as JSON into the output dir.
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

	blocks, err := schema.BuildOrder(log, cfg.SchemaDir, schema.Options{
		CycleBreakCap: cfg.CycleBreakCap,
		CentralityCap: cfg.CentralityCap,
	})
	if err != nil {
		log.Fatal("schema ordering failed", "schema_dir", cfg.SchemaDir, "error", err)
	}
	log.Info("derived topic order", "blocks", len(blocks))

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatal("failed to create output dir", "output_dir", cfg.OutputDir, "error", err)
	}
	outputPath := filepath.Join(cfg.OutputDir, "topic_order.json")
	raw, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		log.Fatal("failed to encode topic order", "error", err)
	}
	if err := os.WriteFile(outputPath, raw, 0o644); err != nil {
		log.Fatal("failed to write topic order", "path", outputPath, "error", err)
	}
	log.Info("wrote topic order", "path", outputPath, "blocks", len(blocks))
}
