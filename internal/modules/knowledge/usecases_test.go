package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type fakeAnalyzer struct {
	failAll bool
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, doc domain.Document) (domain.DocumentAnalysis, error) {
	if f.failAll {
		return domain.DocumentAnalysis{}, errors.New("unreadable document")
	}
	return domain.DocumentAnalysis{
		Source:   doc.SourcePath,
		Category: doc.Category,
		Points: []domain.AnalysisPoint{
			{Label: "Concept from " + doc.SourcePath, Description: "first idea", Kind: "Concept"},
			{Label: "Detail from " + doc.SourcePath, Description: "second idea", Kind: "Concept"},
		},
	}, nil
}

type fakeGenerator struct {
	err error
}

func (f *fakeGenerator) Generate(ctx context.Context, k *domain.RankedKnowledge, category string) (string, map[string]domain.BlockProvenance, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	var b strings.Builder
	meta := map[string]domain.BlockProvenance{}
	for _, n := range k.Nodes {
		b.WriteString(n.Label)
		b.WriteString("\n")
		meta["block_"+n.ID] = domain.BlockProvenance{NodeID: n.ID, SourceIDs: n.SourceIDs}
	}
	return b.String(), meta, nil
}

func pipelineDocs() []domain.Document {
	return []domain.Document{
		{SourcePath: "lec1.pdf", Category: "Lectures"},
		{SourcePath: "lec2.pdf", Category: "Lectures"},
	}
}

func TestRunPipeline_Success(t *testing.T) {
	uc, err := NewUsecases(UsecasesDeps{
		Log:       testLogger(t),
		Analyzer:  &fakeAnalyzer{},
		Generator: &fakeGenerator{},
	})
	if err != nil {
		t.Fatalf("NewUsecases: %v", err)
	}

	res := uc.RunPipeline(context.Background(), pipelineDocs())
	if res.Failed() {
		t.Fatalf("pipeline failed at %s: %v", res.Stage, res.Err)
	}
	if res.DocsAnalyzed != 2 || res.DocsFailed != 0 {
		t.Fatalf("unexpected counts: analyzed=%d failed=%d", res.DocsAnalyzed, res.DocsFailed)
	}
	if res.Knowledge == nil || len(res.Knowledge.Nodes) != 4 {
		t.Fatalf("expected 4 nodes in knowledge, got %#v", res.Knowledge)
	}
	if res.Knowledge.Category != "Lectures" {
		t.Fatalf("category lost: %q", res.Knowledge.Category)
	}
	if !strings.Contains(res.Content, "Concept from lec1.pdf") {
		t.Fatalf("generated content missing node text: %q", res.Content)
	}
	if len(res.Metadata) != 4 {
		t.Fatalf("expected provenance for every node, got %d entries", len(res.Metadata))
	}
}

func TestRunPipeline_AllAnalysesFail(t *testing.T) {
	uc, err := NewUsecases(UsecasesDeps{
		Log:       testLogger(t),
		Analyzer:  &fakeAnalyzer{failAll: true},
		Generator: &fakeGenerator{},
	})
	if err != nil {
		t.Fatalf("NewUsecases: %v", err)
	}

	res := uc.RunPipeline(context.Background(), pipelineDocs())
	if !res.Failed() {
		t.Fatalf("expected failure")
	}
	if !errors.Is(res.Err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", res.Err)
	}
	if res.Stage != StageAnalyze {
		t.Fatalf("expected analyze stage, got %q", res.Stage)
	}
	if res.Content != placeholderNoInput {
		t.Fatalf("expected no-input placeholder, got %q", res.Content)
	}
	if res.DocsFailed != 2 {
		t.Fatalf("expected 2 failed docs, got %d", res.DocsFailed)
	}
}

func TestRunPipeline_EmptyDocumentList(t *testing.T) {
	uc, err := NewUsecases(UsecasesDeps{
		Log:       testLogger(t),
		Analyzer:  &fakeAnalyzer{},
		Generator: &fakeGenerator{},
	})
	if err != nil {
		t.Fatalf("NewUsecases: %v", err)
	}

	res := uc.RunPipeline(context.Background(), nil)
	if !errors.Is(res.Err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", res.Err)
	}
	if res.Content != placeholderNoInput {
		t.Fatalf("expected no-input placeholder, got %q", res.Content)
	}
}

func TestRunPipeline_GeneratorFailure(t *testing.T) {
	uc, err := NewUsecases(UsecasesDeps{
		Log:       testLogger(t),
		Analyzer:  &fakeAnalyzer{},
		Generator: &fakeGenerator{err: errors.New("renderer crashed")},
	})
	if err != nil {
		t.Fatalf("NewUsecases: %v", err)
	}

	res := uc.RunPipeline(context.Background(), pipelineDocs())
	if !res.Failed() {
		t.Fatalf("expected failure")
	}
	if res.Stage != StageHandoff {
		t.Fatalf("expected handoff stage, got %q", res.Stage)
	}
	if res.Content != placeholderHandoff {
		t.Fatalf("expected handoff placeholder, got %q", res.Content)
	}
	if res.DocsAnalyzed != 2 {
		t.Fatalf("analysis counts lost on halt: %d", res.DocsAnalyzed)
	}
}

func TestNewUsecases_MissingDeps(t *testing.T) {
	if _, err := NewUsecases(UsecasesDeps{Log: testLogger(t)}); err == nil {
		t.Fatalf("expected error for missing analyzer and generator")
	}
}
