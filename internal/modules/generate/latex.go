package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/ingest"
)

// LatexGenerator renders a multi-column LaTeX cheatsheet directly from the
// ranked knowledge, one section per difficulty level in ranked order. It is
// the no-LLM rendering and the fallback when LLM generation fails.
type LatexGenerator struct{}

func NewLatexGenerator() *LatexGenerator {
	return &LatexGenerator{}
}

const latexPreamble = `\documentclass[9pt,a4paper]{article}
\usepackage[margin=0.4in]{geometry}
\usepackage{multicol}
\usepackage{xcolor}
\usepackage{hyperref}
\usepackage{amssymb}
\usepackage{amsmath}

`

func (g *LatexGenerator) Generate(ctx context.Context, knowledge *domain.RankedKnowledge, title string) (string, map[string]domain.BlockProvenance, error) {
	if knowledge == nil {
		return "", nil, fmt.Errorf("generate: nil knowledge")
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if title == "" {
		title = knowledge.Category
	}

	var sb strings.Builder
	sb.WriteString(latexPreamble)
	sb.WriteString("\\title{" + escapeLatex(title) + "}\n")
	sb.WriteString("\\author{Generated Study Guide}\n\\date{}\n\n")
	sb.WriteString("\\begin{document}\n\\maketitle\n\n\\begin{multicols}{3}\n")

	metadata := make(map[string]domain.BlockProvenance, len(knowledge.Nodes))
	currentLevel := -1
	for i, node := range knowledge.Nodes {
		level := 0
		label := "Unknown"
		if d, ok := knowledge.Difficulty[node.ID]; ok {
			level = d.Level
			label = d.Label
		}
		if level != currentLevel {
			currentLevel = level
			sb.WriteString("\n\\section*{" + escapeLatex(label) + "}\n")
		}

		sb.WriteString("\\textbf{" + escapeLatex(node.Label) + "}\n")
		if node.Description != "" {
			sb.WriteString(escapeLatex(ingest.Truncate(node.Description, 200)) + "\n\n")
		}
		if len(node.SourceIDs) > 0 {
			sb.WriteString("\\textit{Source: " + escapeLatex(strings.Join(node.SourceIDs, ", ")) + "}\n\n")
		}

		metadata[fmt.Sprintf("block_%d", i)] = domain.BlockProvenance{
			NodeID:    node.ID,
			SourceIDs: node.SourceIDs,
		}
	}

	sb.WriteString("\n\\end{multicols}\n\\end{document}\n")
	return sb.String(), metadata, nil
}

var latexEscaper = strings.NewReplacer(
	"\\", "\\textbackslash{}",
	"_", "\\_",
	"&", "\\&",
	"%", "\\%",
	"$", "\\$",
	"#", "\\#",
	"{", "\\{",
	"}", "\\}",
	"~", "\\textasciitilde{}",
	"^", "\\textasciicircum{}",
)

func escapeLatex(s string) string {
	return latexEscaper.Replace(s)
}
