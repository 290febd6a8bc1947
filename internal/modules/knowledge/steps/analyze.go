package steps

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
)

// DocumentAnalyzer extracts labeled points from one document. Analyze may
// block on parsing or network I/O for arbitrarily long.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, doc domain.Document) (domain.DocumentAnalysis, error)
}

// maxAnalysisWorkers caps the fan-out pool. The bound respects external API
// rate limits; it is not a throughput tunable.
const maxAnalysisWorkers = 4

type AnalyzeDeps struct {
	Log      *logger.Logger
	Analyzer DocumentAnalyzer
}

type AnalyzeInput struct {
	Documents []domain.Document
	// MaxWorkers overrides the default pool cap when in (1, maxAnalysisWorkers].
	MaxWorkers int
	// PerDocTimeout bounds a single document's analysis. Zero disables it,
	// in which case a hung analyzer call holds its pool slot for the rest
	// of the batch.
	PerDocTimeout time.Duration
}

type AnalyzeOutput struct {
	// Analyses is collected in completion order, not submission order.
	Analyses []domain.DocumentAnalysis
	Failed   int
}

// Analyze fans the documents out to a bounded worker pool of size
// min(cap, len(Documents)). A single document's failure is logged and its
// result dropped; it never aborts sibling tasks or the batch. The caller
// decides what an empty result set means.
func Analyze(ctx context.Context, deps AnalyzeDeps, in AnalyzeInput) (AnalyzeOutput, error) {
	out := AnalyzeOutput{}
	if deps.Log == nil || deps.Analyzer == nil {
		return out, fmt.Errorf("analyze: missing deps")
	}
	if len(in.Documents) == 0 {
		return out, nil
	}

	workers := maxAnalysisWorkers
	if in.MaxWorkers > 0 && in.MaxWorkers < workers {
		workers = in.MaxWorkers
	}
	if len(in.Documents) < workers {
		workers = len(in.Documents)
	}

	var mu sync.Mutex
	analyses := make([]domain.DocumentAnalysis, 0, len(in.Documents))
	failed := 0

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, doc := range in.Documents {
		doc := doc
		g.Go(func() error {
			analysis, err := analyzeOne(ctx, deps.Analyzer, doc, in.PerDocTimeout)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				deps.Log.Warn("document analysis failed",
					"source", doc.SourcePath,
					"error", err)
				return nil
			}
			analyses = append(analyses, analysis)
			deps.Log.Debug("document analyzed",
				"source", doc.SourcePath,
				"points", len(analysis.Points))
			return nil
		})
	}
	_ = g.Wait()

	out.Analyses = analyses
	out.Failed = failed
	deps.Log.Info("analysis batch complete",
		"documents", len(in.Documents),
		"succeeded", len(analyses),
		"failed", failed,
		"workers", workers)
	return out, nil
}

func analyzeOne(ctx context.Context, analyzer DocumentAnalyzer, doc domain.Document, timeout time.Duration) (analysis domain.DocumentAnalysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer panic: %v", r)
		}
	}()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return analyzer.Analyze(ctx, doc)
}
