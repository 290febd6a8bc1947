package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/modules/generate"
	"github.com/studyforge/studyforge-backend/internal/modules/knowledge/steps"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
)

// Pipeline stages in execution order. A failed run reports the stage that
// halted it.
const (
	StageAnalyze    = "analyze"
	StageBuildGraph = "build_graph"
	StageCluster    = "cluster"
	StageOrder      = "order"
	StageHandoff    = "handoff"
)

// ErrNoDocuments reports that every document failed analysis. Distinct from
// a stage failure: there is nothing to build a knowledge base from.
var ErrNoDocuments = errors.New("knowledge: no documents were successfully analyzed")

// Placeholder contents returned on halt so callers always get a result
// object they can write out.
const (
	placeholderNoInput    = "% No documents to generate cheatsheet from\n"
	placeholderBuildGraph = "% Error building knowledge graph\n"
	placeholderCluster    = "% Error clustering knowledge\n"
	placeholderOrder      = "% Error ordering nodes\n"
	placeholderHandoff    = "% Error generating cheatsheet\n"
)

type UsecasesDeps struct {
	Log      *logger.Logger
	Analyzer steps.DocumentAnalyzer
	// Summarizer is optional; clustering falls back to heuristic topics.
	Summarizer steps.TopicSummarizer
	Generator  generate.Generator

	SimilarityThreshold float64
	MaxWorkers          int
	PerDocTimeout       time.Duration
}

type Usecases struct {
	deps UsecasesDeps
}

func NewUsecases(deps UsecasesDeps) (*Usecases, error) {
	if deps.Log == nil || deps.Analyzer == nil || deps.Generator == nil {
		return nil, fmt.Errorf("knowledge: missing deps")
	}
	return &Usecases{deps: deps}, nil
}

// PipelineResult is always returned, success or not. On failure Stage names
// the halting stage, Err carries the cause, and Content holds a comment
// placeholder instead of generated output.
type PipelineResult struct {
	Content   string
	Metadata  map[string]domain.BlockProvenance
	Knowledge *domain.RankedKnowledge

	DocsAnalyzed int
	DocsFailed   int

	Stage string
	Err   error
}

func (r PipelineResult) Failed() bool { return r.Err != nil }

// RunPipeline executes Analyze -> BuildGraph -> Cluster -> Order -> Handoff.
// Only the Analyze stage runs concurrently; every later stage runs
// synchronously over data owned exclusively by this run. Any stage error
// halts the pipeline with a stage-tagged result; no stage is retried.
func (u *Usecases) RunPipeline(ctx context.Context, docs []domain.Document) PipelineResult {
	log := u.deps.Log.With("pipeline", "knowledge")
	log.Info("starting pipeline", "documents", len(docs))

	analyzeOut, err := steps.Analyze(ctx, steps.AnalyzeDeps{
		Log:      log,
		Analyzer: u.deps.Analyzer,
	}, steps.AnalyzeInput{
		Documents:     docs,
		MaxWorkers:    u.deps.MaxWorkers,
		PerDocTimeout: u.deps.PerDocTimeout,
	})
	if err != nil {
		return PipelineResult{Content: placeholderNoInput, Stage: StageAnalyze, Err: err}
	}
	if len(analyzeOut.Analyses) == 0 {
		log.Warn("no documents were successfully analyzed")
		return PipelineResult{
			Content:    placeholderNoInput,
			DocsFailed: analyzeOut.Failed,
			Stage:      StageAnalyze,
			Err:        ErrNoDocuments,
		}
	}

	graphOut, err := steps.GraphBuild(ctx, steps.GraphBuildDeps{Log: log}, steps.GraphBuildInput{
		Analyses: analyzeOut.Analyses,
	})
	if err != nil {
		return u.halt(log, analyzeOut, StageBuildGraph, placeholderBuildGraph, err)
	}

	clusterOut, err := steps.ClusterBuild(ctx, steps.ClusterBuildDeps{
		Log:        log,
		Summarizer: u.deps.Summarizer,
	}, steps.ClusterBuildInput{
		Nodes:     graphOut.Nodes,
		Threshold: u.deps.SimilarityThreshold,
	})
	if err != nil {
		return u.halt(log, analyzeOut, StageCluster, placeholderCluster, err)
	}

	rankOut, err := steps.DifficultyRank(ctx, steps.DifficultyRankDeps{Log: log}, steps.DifficultyRankInput{
		Nodes:    graphOut.Nodes,
		Edges:    graphOut.Edges,
		Clusters: clusterOut.Clusters,
	})
	if err != nil {
		return u.halt(log, analyzeOut, StageCluster, placeholderCluster, err)
	}

	orderOut, err := steps.OrderResolve(ctx, steps.OrderResolveDeps{Log: log}, steps.OrderResolveInput{
		Nodes:    graphOut.Nodes,
		Edges:    graphOut.Edges,
		Clusters: clusterOut.Clusters,
		ByNode:   rankOut.ByNode,
		Category: graphOut.Category,
	})
	if err != nil {
		return u.halt(log, analyzeOut, StageOrder, placeholderOrder, err)
	}

	content, metadata, err := u.deps.Generator.Generate(ctx, orderOut.Knowledge, orderOut.Knowledge.Category)
	if err != nil {
		return u.halt(log, analyzeOut, StageHandoff, placeholderHandoff, err)
	}

	log.Info("pipeline complete",
		"nodes", len(orderOut.Knowledge.Nodes),
		"clusters", len(orderOut.Knowledge.Clusters),
		"content_bytes", len(content),
		"blocks", len(metadata))
	return PipelineResult{
		Content:      content,
		Metadata:     metadata,
		Knowledge:    orderOut.Knowledge,
		DocsAnalyzed: len(analyzeOut.Analyses),
		DocsFailed:   analyzeOut.Failed,
	}
}

func (u *Usecases) halt(log *logger.Logger, analyzeOut steps.AnalyzeOutput, stage, placeholder string, err error) PipelineResult {
	log.Error("pipeline stage failed", "stage", stage, "error", err)
	return PipelineResult{
		Content:      placeholder,
		DocsAnalyzed: len(analyzeOut.Analyses),
		DocsFailed:   analyzeOut.Failed,
		Stage:        stage,
		Err:          fmt.Errorf("%s: %w", stage, err),
	}
}
