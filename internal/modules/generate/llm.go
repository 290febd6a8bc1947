package generate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/ingest"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
	"github.com/studyforge/studyforge-backend/internal/platform/openai"
)

// LLMGenerator asks the model to author the cheatsheet body per topic
// cluster, falling back to the plain LaTeX renderer when the model fails.
// Provenance metadata tracks which nodes fed each generated block.
type LLMGenerator struct {
	log      *logger.Logger
	ai       openai.Client
	fallback *LatexGenerator
}

func NewLLMGenerator(log *logger.Logger, ai openai.Client) *LLMGenerator {
	return &LLMGenerator{
		log:      log.With("component", "llm_generator"),
		ai:       ai,
		fallback: NewLatexGenerator(),
	}
}

const generatorSystemPrompt = `You write compact LaTeX study cheatsheet sections.
Given a topic and its concepts, produce the LaTeX body for that topic only:
a \section*{...} heading followed by tight bullet content. Use amsmath where
helpful. Output raw LaTeX with no preamble, no document environment, and no
markdown fences.`

func (g *LLMGenerator) Generate(ctx context.Context, knowledge *domain.RankedKnowledge, title string) (string, map[string]domain.BlockProvenance, error) {
	if knowledge == nil {
		return "", nil, fmt.Errorf("generate: nil knowledge")
	}
	if g.ai == nil {
		return g.fallback.Generate(ctx, knowledge, title)
	}
	if title == "" {
		title = knowledge.Category
	}

	byID := make(map[string]*domain.ConceptNode, len(knowledge.Nodes))
	for _, n := range knowledge.Nodes {
		byID[n.ID] = n
	}

	// Clusters render in ascending difficulty, same order the resolver
	// emitted the nodes in.
	clusterIDs := make([]string, 0, len(knowledge.Clusters))
	for id := range knowledge.Clusters {
		clusterIDs = append(clusterIDs, id)
	}
	sort.Slice(clusterIDs, func(i, j int) bool {
		a, b := knowledge.Clusters[clusterIDs[i]], knowledge.Clusters[clusterIDs[j]]
		if a.Difficulty != b.Difficulty {
			return a.Difficulty < b.Difficulty
		}
		return clusterIDs[i] < clusterIDs[j]
	})

	var body strings.Builder
	metadata := make(map[string]domain.BlockProvenance)
	blockIndex := 0

	for _, cid := range clusterIDs {
		info := knowledge.Clusters[cid]
		var prompt strings.Builder
		prompt.WriteString("Topic: " + info.MainTopic + "\n")
		prompt.WriteString("Difficulty: " + domain.DifficultyLabel(info.Difficulty) + "\n")
		prompt.WriteString("Concepts:\n")

		sources := make([]string, 0)
		seenSource := make(map[string]struct{})
		for _, nodeID := range info.MemberIDs {
			n, ok := byID[nodeID]
			if !ok {
				continue
			}
			prompt.WriteString("- " + n.Label + ": " + ingest.Truncate(n.Description, 300) + "\n")
			for _, s := range n.SourceIDs {
				if _, ok := seenSource[s]; !ok {
					seenSource[s] = struct{}{}
					sources = append(sources, s)
				}
			}
		}

		section, err := g.ai.GenerateText(ctx, generatorSystemPrompt, prompt.String())
		if err != nil {
			g.log.Warn("llm generation failed, using fallback renderer",
				"cluster", cid, "error", err)
			return g.fallback.Generate(ctx, knowledge, title)
		}

		body.WriteString(strings.TrimSpace(section))
		body.WriteString("\n\n")
		for _, nodeID := range info.MemberIDs {
			metadata[fmt.Sprintf("block_%d", blockIndex)] = domain.BlockProvenance{
				NodeID:    nodeID,
				SourceIDs: sources,
			}
			blockIndex++
		}
	}

	var doc strings.Builder
	doc.WriteString(latexPreamble)
	doc.WriteString("\\title{" + escapeLatex(title) + "}\n")
	doc.WriteString("\\author{Generated Study Guide}\n\\date{}\n\n")
	doc.WriteString("\\begin{document}\n\\maketitle\n\n\\begin{multicols}{3}\n\n")
	doc.WriteString(body.String())
	doc.WriteString("\\end{multicols}\n\\end{document}\n")
	return doc.String(), metadata, nil
}
