package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
)

type GraphBuildDeps struct {
	Log *logger.Logger
}

type GraphBuildInput struct {
	Analyses []domain.DocumentAnalysis
}

type GraphBuildOutput struct {
	Nodes    []*domain.ConceptNode
	Edges    []domain.ConceptEdge
	Category string
}

// GraphBuild turns per-document analyses into a concept graph. The heavy
// lifting is BuildConceptGraph; the step adds dep validation and logging.
func GraphBuild(ctx context.Context, deps GraphBuildDeps, in GraphBuildInput) (GraphBuildOutput, error) {
	out := GraphBuildOutput{}
	if deps.Log == nil {
		return out, fmt.Errorf("graph_build: missing deps")
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	nodes, edges, category := BuildConceptGraph(in.Analyses)
	out.Nodes = nodes
	out.Edges = edges
	out.Category = category

	deps.Log.Info("built concept graph",
		"nodes", len(nodes),
		"edges", len(edges),
		"category", category,
		"documents", len(in.Analyses))
	return out, nil
}

// BuildConceptGraph is a pure function over an immutable analysis snapshot.
// Node IDs are synthesized from (document index, point index) so they are
// unique within one build. Two edge heuristics run:
//
//   - "follows": consecutive points within one document, preserving
//     extraction order as a traversable chain.
//   - "related_to": for every ordered node pair (a, b), a mention edge when
//     b's label appears as a substring of a's description, case-insensitive.
//     Quadratic by design; short or generic labels can false-positive, so
//     consumers should expect noisy recall over precision.
//
// Edges sharing (source, target, relation) are deduplicated keeping the
// first-seen attributes. The category is the first analysis's declared
// category, defaulting to Miscellaneous.
func BuildConceptGraph(analyses []domain.DocumentAnalysis) ([]*domain.ConceptNode, []domain.ConceptEdge, string) {
	nodes := make([]*domain.ConceptNode, 0)
	edges := make([]domain.ConceptEdge, 0)

	for di, analysis := range analyses {
		var prev *domain.ConceptNode
		for pi, point := range analysis.Points {
			if strings.TrimSpace(point.Label) == "" {
				continue
			}
			kind := point.Kind
			if kind == "" {
				kind = "Concept"
			}
			node := &domain.ConceptNode{
				ID:          fmt.Sprintf("n_%d_%d", di, pi),
				Label:       point.Label,
				Kind:        kind,
				Description: point.Description,
				SourceIDs:   []string{analysis.Source},
			}
			nodes = append(nodes, node)
			if prev != nil {
				edges = append(edges, domain.ConceptEdge{
					SourceID: prev.ID,
					TargetID: node.ID,
					Relation: domain.RelationFollows,
				})
			}
			prev = node
		}
	}

	for _, a := range nodes {
		desc := strings.ToLower(a.Description)
		if desc == "" {
			continue
		}
		for _, b := range nodes {
			if a.ID == b.ID {
				continue
			}
			label := strings.ToLower(strings.TrimSpace(b.Label))
			if label == "" {
				continue
			}
			if strings.Contains(desc, label) {
				edges = append(edges, domain.ConceptEdge{
					SourceID:   a.ID,
					TargetID:   b.ID,
					Relation:   domain.RelationRelatedTo,
					Attributes: map[string]string{"heuristic": "mention"},
				})
			}
		}
	}

	edges = DedupEdges(edges)

	category := domain.CategoryMiscellaneous
	if len(analyses) > 0 && strings.TrimSpace(analyses[0].Category) != "" {
		category = analyses[0].Category
	}
	return nodes, edges, category
}

// DedupEdges collapses edges sharing (source, target, relation), keeping the
// first occurrence and its attributes.
func DedupEdges(edges []domain.ConceptEdge) []domain.ConceptEdge {
	seen := make(map[[3]string]struct{}, len(edges))
	out := make([]domain.ConceptEdge, 0, len(edges))
	for _, e := range edges {
		key := [3]string{e.SourceID, e.TargetID, e.Relation}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
