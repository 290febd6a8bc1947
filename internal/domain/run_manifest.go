package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RunManifest is one persisted row per pipeline run: what was produced,
// from which category, and where the output landed.
type RunManifest struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Category     string         `gorm:"column:category;not null;index" json:"category"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	NodeCount    int            `gorm:"column:node_count;not null;default:0" json:"node_count"`
	EdgeCount    int            `gorm:"column:edge_count;not null;default:0" json:"edge_count"`
	ClusterCount int            `gorm:"column:cluster_count;not null;default:0" json:"cluster_count"`
	DocsAnalyzed int            `gorm:"column:docs_analyzed;not null;default:0" json:"docs_analyzed"`
	DocsFailed   int            `gorm:"column:docs_failed;not null;default:0" json:"docs_failed"`
	OutputPath   string         `gorm:"column:output_path" json:"output_path,omitempty"`
	ClusterMeta  datatypes.JSON `gorm:"column:cluster_meta" json:"cluster_meta,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
}

func (RunManifest) TableName() string { return "run_manifest" }
