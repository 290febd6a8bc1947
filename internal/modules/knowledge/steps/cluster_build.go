package steps

import (
	"context"
	"fmt"

	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
)

// TopicSummarizer names a multi-member cluster from its member texts.
// Optional; failures fall back to a heuristic topic.
type TopicSummarizer interface {
	Summarize(ctx context.Context, texts []string) (string, error)
}

const DefaultSimilarityThreshold = 0.3

type ClusterBuildDeps struct {
	Log *logger.Logger
	// Summarizer may be nil; the longest-description member's label is the
	// fallback topic either way.
	Summarizer TopicSummarizer
}

type ClusterBuildInput struct {
	Nodes     []*domain.ConceptNode
	Threshold float64
}

type ClusterBuildOutput struct {
	Clusters []*domain.ConceptCluster
}

// ClusterBuild partitions nodes into topic clusters with single-pass greedy
// clustering. Iterating nodes in input order, each unassigned node seeds a
// new cluster and absorbs every later unassigned node whose Jaccard
// similarity against the seed's text meets the threshold. Similarity is
// measured only against the seed, never between accepted members, so two
// nodes each similar to the seed but not to each other still share a
// cluster. Nodes with empty word sets always end up in singleton clusters.
//
// The output clusters are pairwise disjoint and their members union to the
// full node set. Each node's Cluster assignment is stamped in place.
func ClusterBuild(ctx context.Context, deps ClusterBuildDeps, in ClusterBuildInput) (ClusterBuildOutput, error) {
	out := ClusterBuildOutput{}
	if deps.Log == nil {
		return out, fmt.Errorf("cluster_build: missing deps")
	}
	threshold := in.Threshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	words := make([]map[string]struct{}, len(in.Nodes))
	for i, n := range in.Nodes {
		words[i] = wordSet(nodeText(n))
	}

	assigned := make([]bool, len(in.Nodes))
	clusters := make([]*domain.ConceptCluster, 0)

	for i, seed := range in.Nodes {
		if assigned[i] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		assigned[i] = true
		cluster := &domain.ConceptCluster{
			ID:        fmt.Sprintf("cluster_%d", len(clusters)),
			MemberIDs: []string{seed.ID},
		}
		members := []*domain.ConceptNode{seed}

		for j := i + 1; j < len(in.Nodes); j++ {
			if assigned[j] {
				continue
			}
			if jaccard(words[i], words[j]) >= threshold {
				assigned[j] = true
				cluster.MemberIDs = append(cluster.MemberIDs, in.Nodes[j].ID)
				members = append(members, in.Nodes[j])
			}
		}

		cluster.MainTopic = resolveTopic(ctx, deps, members)
		for _, m := range members {
			m.Cluster = &domain.ClusterAssignment{
				ClusterID: cluster.ID,
				MainTopic: cluster.MainTopic,
			}
		}
		clusters = append(clusters, cluster)
	}

	out.Clusters = clusters
	deps.Log.Info("clustered nodes",
		"nodes", len(in.Nodes),
		"clusters", len(clusters),
		"threshold", threshold)
	return out, nil
}

// resolveTopic names a cluster. Singletons use the member's label. Larger
// clusters ask the summarizer; on absence or failure, the label of the
// member with the longest description wins, ties broken by original order.
func resolveTopic(ctx context.Context, deps ClusterBuildDeps, members []*domain.ConceptNode) string {
	if len(members) == 1 {
		return members[0].Label
	}
	if deps.Summarizer != nil {
		texts := make([]string, 0, len(members))
		for _, m := range members {
			texts = append(texts, nodeText(m))
		}
		topic, err := deps.Summarizer.Summarize(ctx, texts)
		if err == nil && topic != "" {
			return topic
		}
		if err != nil {
			deps.Log.Warn("topic summarizer failed, using heuristic topic", "error", err)
		}
	}
	best := members[0]
	for _, m := range members[1:] {
		if len(m.Description) > len(best.Description) {
			best = m
		}
	}
	return best.Label
}
