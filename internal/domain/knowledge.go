package domain

import "strconv"

// Document describes one source file handed to the analysis fan-out.
type Document struct {
	SourcePath string `json:"source_path"`
	Category   string `json:"category"`
}

// AnalysisPoint is one extracted knowledge unit from a document.
type AnalysisPoint struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

// DocumentAnalysis is the per-document analyzer output. Source identifies the
// originating document and carries into node provenance.
type DocumentAnalysis struct {
	Source   string          `json:"source"`
	Category string          `json:"category"`
	Points   []AnalysisPoint `json:"points"`
}

// ClusterAssignment records which cluster a node landed in after clustering.
// Nil until the cluster stage runs.
type ClusterAssignment struct {
	ClusterID string `json:"cluster_id"`
	MainTopic string `json:"main_topic"`
}

// ConceptNode is a single labeled knowledge unit in the graph. ID is unique
// within one pipeline run. Immutable after graph build except Cluster.
type ConceptNode struct {
	ID          string             `json:"id"`
	Label       string             `json:"label"`
	Kind        string             `json:"kind"`
	Description string             `json:"description"`
	Cluster     *ClusterAssignment `json:"cluster,omitempty"`
	SourceIDs   []string           `json:"source_ids"`
}

// ConceptEdge is a directed, typed link between two concept nodes. The edge
// set of a run never contains two edges with the same (SourceID, TargetID,
// Relation) triple.
type ConceptEdge struct {
	SourceID   string            `json:"source_id"`
	TargetID   string            `json:"target_id"`
	Relation   string            `json:"relation"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

const (
	RelationFollows   = "follows"
	RelationRelatedTo = "related_to"
)

// ConceptCluster is a disjoint group of nodes sharing a topic. MemberIDs
// preserves node discovery order. Difficulty is stamped by the ranker.
type ConceptCluster struct {
	ID         string   `json:"cluster_id"`
	MainTopic  string   `json:"main_topic"`
	MemberIDs  []string `json:"member_ids"`
	Difficulty int      `json:"difficulty"`
}

// DifficultyLevel places a node or cluster in the learning progression.
// 0 is the most basic; levels are open-ended upward.
type DifficultyLevel struct {
	Level int    `json:"level"`
	Label string `json:"label"`
}

// DifficultyLabel maps a level to its display label.
func DifficultyLabel(level int) string {
	switch level {
	case 0:
		return "Fundamentals"
	case 1:
		return "Core Concepts"
	case 2:
		return "Advanced Topics"
	case 3:
		return "Expert Knowledge"
	default:
		return "Level " + strconv.Itoa(level)
	}
}

// ClusterInfo is the per-cluster metadata recorded alongside the ordered
// node sequence.
type ClusterInfo struct {
	MainTopic  string   `json:"main_topic"`
	Difficulty int      `json:"difficulty"`
	MemberIDs  []string `json:"member_ids"`
	Size       int      `json:"size"`
}

// RankedKnowledge is the pipeline output: nodes ordered basic to advanced
// plus the supporting graph and difficulty metadata. Built once by the order
// stage and owned exclusively by the consumer afterwards.
type RankedKnowledge struct {
	Nodes      []*ConceptNode             `json:"nodes"`
	Edges      []ConceptEdge              `json:"edges"`
	Difficulty map[string]DifficultyLevel `json:"difficulty_by_node"`
	Category   string                     `json:"category"`
	Clusters   map[string]ClusterInfo     `json:"cluster_metadata"`
}

// BlockProvenance maps one generated content block back to the node and
// source documents it was derived from.
type BlockProvenance struct {
	NodeID    string   `json:"node_id"`
	SourceIDs []string `json:"source_ids"`
}

// CategoryMiscellaneous is the fallback category when no analyzed document
// declares one.
const CategoryMiscellaneous = "Miscellaneous"
