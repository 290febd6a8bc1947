package steps

import (
	"context"
	"fmt"
	"sort"

	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
)

type OrderResolveDeps struct {
	Log *logger.Logger
}

type OrderResolveInput struct {
	Nodes    []*domain.ConceptNode
	Edges    []domain.ConceptEdge
	Clusters []*domain.ConceptCluster
	ByNode   map[string]domain.DifficultyLevel
	Category string
}

type OrderResolveOutput struct {
	Knowledge *domain.RankedKnowledge
}

// OrderResolve produces the basic-to-advanced node sequence. Clusters are
// sorted ascending by difficulty, stable on discovery order for ties, and
// member nodes keep their within-cluster order. Per-cluster metadata rides
// along for the generator.
func OrderResolve(ctx context.Context, deps OrderResolveDeps, in OrderResolveInput) (OrderResolveOutput, error) {
	out := OrderResolveOutput{}
	if deps.Log == nil {
		return out, fmt.Errorf("order_resolve: missing deps")
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	ordered := make([]*domain.ConceptCluster, len(in.Clusters))
	copy(ordered, in.Clusters)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Difficulty < ordered[j].Difficulty
	})

	byID := make(map[string]*domain.ConceptNode, len(in.Nodes))
	for _, n := range in.Nodes {
		byID[n.ID] = n
	}

	nodes := make([]*domain.ConceptNode, 0, len(in.Nodes))
	meta := make(map[string]domain.ClusterInfo, len(ordered))
	for _, cluster := range ordered {
		for _, id := range cluster.MemberIDs {
			if n, ok := byID[id]; ok {
				nodes = append(nodes, n)
			}
		}
		meta[cluster.ID] = domain.ClusterInfo{
			MainTopic:  cluster.MainTopic,
			Difficulty: cluster.Difficulty,
			MemberIDs:  cluster.MemberIDs,
			Size:       len(cluster.MemberIDs),
		}
	}

	out.Knowledge = &domain.RankedKnowledge{
		Nodes:      nodes,
		Edges:      in.Edges,
		Difficulty: in.ByNode,
		Category:   in.Category,
		Clusters:   meta,
	}

	sizes := make([]int, 0, len(ordered))
	for _, c := range ordered {
		sizes = append(sizes, len(c.MemberIDs))
	}
	deps.Log.Info("resolved order",
		"nodes", len(nodes),
		"clusters", len(ordered),
		"cluster_sizes", sizes)
	return out, nil
}
