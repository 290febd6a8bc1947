package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
)

// Keyword sets matched as substrings against a node's combined text.
// fundamentalTerms is documentation of what level 0 looks like; it does not
// participate in scoring.
var (
	fundamentalTerms = []string{
		"definition", "basic", "introduction", "fundamental", "what is",
		"overview", "explanation", "concept", "principle", "simple",
		"example", "basic example", "starting", "beginning",
	}
	intermediateTerms = []string{
		"application", "use case", "implementation", "technique", "method",
		"process", "procedure", "how to", "practical", "strategy",
		"system", "framework", "pattern",
	}
	advancedTerms = []string{
		"optimization", "advanced", "complex", "theorem", "proof",
		"algorithm", "architecture", "design pattern", "performance",
		"edge case", "sophisticated", "research", "extension", "variation",
	}
	expertTerms = []string{
		"cutting edge", "research frontier", "novel approach", "proprietary",
		"experimental", "specialized variant", "micro-optimization",
	}
)

// KeywordLevel scores lower-cased text against the term sets. Precedence is
// evaluated top-down and the first match wins: one expert hit reaches level
// 3, advanced needs two hits for level 2, one intermediate hit gives level
// 1, everything else is level 0. A single advanced hit is deliberately not
// enough for level 2.
func KeywordLevel(text string) int {
	text = strings.ToLower(text)
	switch {
	case countSubstrings(text, expertTerms) >= 1:
		return 3
	case countSubstrings(text, advancedTerms) >= 2:
		return 2
	case countSubstrings(text, intermediateTerms) >= 1:
		return 1
	default:
		return 0
	}
}

// StructuralLevels scores nodes from degree counts. A node with no incoming
// edges but outgoing ones teaches and depends on nothing: level 0. A node
// with more incoming than outgoing depends on more than it teaches:
// min(in-out+1, 3). Any other node with incoming edges sits at level 1;
// isolated or balanced nodes at 0.
func StructuralLevels(nodes []*domain.ConceptNode, edges []domain.ConceptEdge) map[string]int {
	inDeg := make(map[string]int, len(nodes))
	outDeg := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDeg[n.ID] = 0
		outDeg[n.ID] = 0
	}
	for _, e := range edges {
		inDeg[e.TargetID]++
		outDeg[e.SourceID]++
	}

	levels := make(map[string]int, len(nodes))
	for _, n := range nodes {
		in := inDeg[n.ID]
		out := outDeg[n.ID]
		switch {
		case in == 0 && out > 0:
			levels[n.ID] = 0
		case in > out:
			lvl := in - out + 1
			if lvl > 3 {
				lvl = 3
			}
			levels[n.ID] = lvl
		case in > 0:
			levels[n.ID] = 1
		default:
			levels[n.ID] = 0
		}
	}
	return levels
}

// NodeLevels blends keyword and structural signals per node by taking the
// maximum of the two.
func NodeLevels(nodes []*domain.ConceptNode, edges []domain.ConceptEdge) map[string]int {
	structural := StructuralLevels(nodes, edges)
	levels := make(map[string]int, len(nodes))
	for _, n := range nodes {
		keyword := KeywordLevel(n.Label + " " + n.Description + " " + n.Kind)
		lvl := keyword
		if s := structural[n.ID]; s > lvl {
			lvl = s
		}
		levels[n.ID] = lvl
	}
	return levels
}

type DifficultyRankDeps struct {
	Log *logger.Logger
}

type DifficultyRankInput struct {
	Nodes []*domain.ConceptNode
	Edges []domain.ConceptEdge
	// Clusters switches the ranker to cluster granularity: each cluster is
	// keyword-scored over the concatenation of member texts plus its main
	// topic, and the score is stamped on the cluster and shared by every
	// member. Structural signals are node-local and do not blend in at this
	// granularity. Nil means node granularity with the max blend.
	Clusters []*domain.ConceptCluster
}

type DifficultyRankOutput struct {
	ByNode map[string]domain.DifficultyLevel
}

func DifficultyRank(ctx context.Context, deps DifficultyRankDeps, in DifficultyRankInput) (DifficultyRankOutput, error) {
	out := DifficultyRankOutput{}
	if deps.Log == nil {
		return out, fmt.Errorf("difficulty_rank: missing deps")
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	byNode := make(map[string]domain.DifficultyLevel, len(in.Nodes))

	if len(in.Clusters) > 0 {
		byID := make(map[string]*domain.ConceptNode, len(in.Nodes))
		for _, n := range in.Nodes {
			byID[n.ID] = n
		}
		for _, cluster := range in.Clusters {
			var sb strings.Builder
			for _, id := range cluster.MemberIDs {
				if n, ok := byID[id]; ok {
					sb.WriteString(n.Label + " " + n.Description + " " + n.Kind + " ")
				}
			}
			sb.WriteString(cluster.MainTopic)
			cluster.Difficulty = KeywordLevel(sb.String())
			level := domain.DifficultyLevel{
				Level: cluster.Difficulty,
				Label: domain.DifficultyLabel(cluster.Difficulty),
			}
			for _, id := range cluster.MemberIDs {
				byNode[id] = level
			}
		}
	} else {
		for id, lvl := range NodeLevels(in.Nodes, in.Edges) {
			byNode[id] = domain.DifficultyLevel{Level: lvl, Label: domain.DifficultyLabel(lvl)}
		}
	}

	counts := map[int]int{}
	for _, d := range byNode {
		counts[d.Level]++
	}
	deps.Log.Info("ranked difficulty",
		"nodes", len(byNode),
		"clusters", len(in.Clusters),
		"level_counts", counts)

	out.ByNode = byNode
	return out, nil
}
