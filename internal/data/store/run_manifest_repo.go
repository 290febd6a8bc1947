package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/domain"
	"github.com/studyforge/studyforge-backend/internal/platform/logger"
)

type RunManifestRepo interface {
	Create(ctx context.Context, row *domain.RunManifest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RunManifest, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.RunManifest, error)
}

type runManifestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunManifestRepo(db *gorm.DB, baseLog *logger.Logger) RunManifestRepo {
	return &runManifestRepo{db: db, log: baseLog.With("repo", "RunManifestRepo")}
}

func (r *runManifestRepo) Create(ctx context.Context, row *domain.RunManifest) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *runManifestRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RunManifest, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out domain.RunManifest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *runManifestRepo) ListRecent(ctx context.Context, limit int) ([]*domain.RunManifest, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []*domain.RunManifest
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
