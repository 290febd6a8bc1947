package generate

import (
	"context"
	"strings"
	"testing"

	"github.com/studyforge/studyforge-backend/internal/domain"
)

func rankedFixture() *domain.RankedKnowledge {
	return &domain.RankedKnowledge{
		Category: "Lectures",
		Nodes: []*domain.ConceptNode{
			{ID: "n1", Label: "Variables", Description: "named storage", SourceIDs: []string{"lec1.pdf"}},
			{ID: "n2", Label: "Loops", Description: "repetition", SourceIDs: []string{"lec1.pdf"}},
			{ID: "n3", Label: "Concurrency", Description: "many things at once", SourceIDs: []string{"lec2.pdf"}},
		},
		Difficulty: map[string]domain.DifficultyLevel{
			"n1": {Level: 0, Label: "Fundamentals"},
			"n2": {Level: 0, Label: "Fundamentals"},
			"n3": {Level: 2, Label: "Advanced Topics"},
		},
		Clusters: map[string]domain.ClusterInfo{
			"cluster_0": {MainTopic: "Basics", Difficulty: 0, MemberIDs: []string{"n1", "n2"}, Size: 2},
			"cluster_1": {MainTopic: "Concurrency", Difficulty: 2, MemberIDs: []string{"n3"}, Size: 1},
		},
	}
}

func TestLatexGenerator_SectionsPerLevel(t *testing.T) {
	g := NewLatexGenerator()
	content, meta, err := g.Generate(context.Background(), rankedFixture(), "CS 101")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.HasPrefix(content, "\\documentclass") {
		t.Fatalf("missing preamble: %q", content[:40])
	}
	if !strings.Contains(content, "\\title{CS 101}") {
		t.Fatalf("missing title")
	}
	// Two nodes at level 0 share one section; the level change opens another.
	if n := strings.Count(content, "\\section*{Fundamentals}"); n != 1 {
		t.Fatalf("expected exactly one Fundamentals section, got %d", n)
	}
	if !strings.Contains(content, "\\section*{Advanced Topics}") {
		t.Fatalf("missing section for second level")
	}
	if strings.Index(content, "Fundamentals") > strings.Index(content, "Advanced Topics") {
		t.Fatalf("sections out of difficulty order")
	}
	if !strings.Contains(content, "\\textit{Source: lec1.pdf}") {
		t.Fatalf("missing source line")
	}

	if len(meta) != 3 {
		t.Fatalf("expected 3 provenance blocks, got %d", len(meta))
	}
	if b := meta["block_0"]; b.NodeID != "n1" || len(b.SourceIDs) != 1 || b.SourceIDs[0] != "lec1.pdf" {
		t.Fatalf("unexpected provenance: %#v", b)
	}
}

func TestLatexGenerator_TitleFallsBackToCategory(t *testing.T) {
	g := NewLatexGenerator()
	content, _, err := g.Generate(context.Background(), rankedFixture(), "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(content, "\\title{Lectures}") {
		t.Fatalf("expected category as title fallback")
	}
}

func TestLatexGenerator_NilKnowledge(t *testing.T) {
	g := NewLatexGenerator()
	if _, _, err := g.Generate(context.Background(), nil, "x"); err == nil {
		t.Fatalf("expected error for nil knowledge")
	}
}

func TestEscapeLatex(t *testing.T) {
	cases := map[string]string{
		"50% & $10":   "50\\% \\& \\$10",
		"under_score": "under\\_score",
		"a^b~c":       "a\\textasciicircum{}b\\textasciitilde{}c",
		"{set}":       "\\{set\\}",
		"plain text":  "plain text",
	}
	for in, want := range cases {
		if got := escapeLatex(in); got != want {
			t.Errorf("escapeLatex(%q) = %q, want %q", in, got, want)
		}
	}
}
