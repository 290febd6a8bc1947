package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/ingest"
	"github.com/studyforge/studyforge-backend/internal/modules/knowledge/steps"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
	"github.com/studyforge/studyforge-backend/internal/platform/openai"
)

// descriptionMaxLen mirrors the point description clip used everywhere a
// page becomes a concept point.
const descriptionMaxLen = 200

// PageAnalyzer extracts one point per non-empty page straight from the PDF
// text, no model involved. Label is the page text collapsed to one line,
// description its first 200 characters.
type PageAnalyzer struct {
	log       *logger.Logger
	extractor *ingest.PDFExtractor
}

func NewPageAnalyzer(log *logger.Logger) *PageAnalyzer {
	return &PageAnalyzer{
		log:       log.With("component", "page_analyzer"),
		extractor: ingest.NewPDFExtractor(),
	}
}

func (a *PageAnalyzer) Analyze(ctx context.Context, doc domain.Document) (domain.DocumentAnalysis, error) {
	out := domain.DocumentAnalysis{Source: doc.SourcePath, Category: doc.Category}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	pages, err := a.extractor.ExtractPages(doc.SourcePath)
	if err != nil {
		return out, err
	}
	for _, page := range pages {
		label := ingest.CollapseWhitespace(page.Text)
		if label == "" {
			continue
		}
		out.Points = append(out.Points, domain.AnalysisPoint{
			Label:       label,
			Description: ingest.Truncate(page.Text, descriptionMaxLen),
			Kind:        "Concept",
		})
	}
	return out, nil
}

var _ steps.DocumentAnalyzer = (*PageAnalyzer)(nil)

// LLMAnalyzer extracts structured concept points from the document text via
// the model. PDF parsing failures and model failures both surface as that
// document's analysis failure.
type LLMAnalyzer struct {
	log       *logger.Logger
	ai        openai.Client
	extractor *ingest.PDFExtractor
}

func NewLLMAnalyzer(log *logger.Logger, ai openai.Client) *LLMAnalyzer {
	return &LLMAnalyzer{
		log:       log.With("component", "llm_analyzer"),
		ai:        ai,
		extractor: ingest.NewPDFExtractor(),
	}
}

const analyzerSystemPrompt = `You extract study concepts from course material.
Given document text, identify the distinct concepts it teaches. For each,
return a short label, a one-to-two sentence description grounded in the text,
and a kind tag such as Concept, Definition, or Example.`

var analyzerSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"points": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"label":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"kind":        map[string]any{"type": "string"},
				},
				"required":             []string{"label", "description", "kind"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"points"},
	"additionalProperties": false,
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, doc domain.Document) (domain.DocumentAnalysis, error) {
	out := domain.DocumentAnalysis{Source: doc.SourcePath, Category: doc.Category}
	pages, err := a.extractor.ExtractPages(doc.SourcePath)
	if err != nil {
		return out, err
	}
	if len(pages) == 0 {
		return out, nil
	}

	var text strings.Builder
	for _, p := range pages {
		text.WriteString(p.Text)
		text.WriteString("\n\n")
	}

	obj, err := a.ai.GenerateJSON(ctx, analyzerSystemPrompt, text.String(), "concept_points", analyzerSchema)
	if err != nil {
		return out, fmt.Errorf("llm analysis of %s: %w", doc.SourcePath, err)
	}
	out.Points = parsePoints(obj)
	return out, nil
}

var _ steps.DocumentAnalyzer = (*LLMAnalyzer)(nil)

func parsePoints(obj map[string]any) []domain.AnalysisPoint {
	raw, _ := obj["points"].([]any)
	points := make([]domain.AnalysisPoint, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		label, _ := m["label"].(string)
		if strings.TrimSpace(label) == "" {
			continue
		}
		description, _ := m["description"].(string)
		kind, _ := m["kind"].(string)
		if kind == "" {
			kind = "Concept"
		}
		points = append(points, domain.AnalysisPoint{
			Label:       label,
			Description: ingest.Truncate(description, descriptionMaxLen),
			Kind:        kind,
		})
	}
	return points
}

// LLMTopicSummarizer names multi-member clusters with a short topic string.
type LLMTopicSummarizer struct {
	log *logger.Logger
	ai  openai.Client
}

func NewLLMTopicSummarizer(log *logger.Logger, ai openai.Client) *LLMTopicSummarizer {
	return &LLMTopicSummarizer{log: log.With("component", "topic_summarizer"), ai: ai}
}

const summarizerSystemPrompt = `You name topic clusters. Given the texts of
related study concepts, answer with a concise topic title of at most six
words. Answer with the title only.`

func (s *LLMTopicSummarizer) Summarize(ctx context.Context, texts []string) (string, error) {
	if s.ai == nil {
		return "", fmt.Errorf("summarize: no client configured")
	}
	joined := strings.Join(texts, "\n---\n")
	topic, err := s.ai.GenerateText(ctx, summarizerSystemPrompt, joined)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(topic), `"`)), nil
}

var _ steps.TopicSummarizer = (*LLMTopicSummarizer)(nil)
