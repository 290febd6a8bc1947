package generate

import (
	"context"

	"github.com/studyforge/studyforge-backend/internal/domain"
)

// Generator turns ranked knowledge into study-material content. The
// returned metadata maps content block keys to the node and source
// documents each block was derived from.
type Generator interface {
	Generate(ctx context.Context, knowledge *domain.RankedKnowledge, title string) (string, map[string]domain.BlockProvenance, error)
}
