package persistence

import (
	"context"
	"time"

	"WSpeicher/internal/modules/archive/domain/entity"
	"WSpeicher/internal/modules/archive/domain/repository"

	"gorm.io/gorm"
)

type dokumentRepositoryImpl struct {
	db *gorm.DB
}

func NewDokumentRepository(db *gorm.DB) repository.DokumentRepository {
	return &dokumentRepositoryImpl{db: db}
}

func (r *dokumentRepositoryImpl) Create(ctx context.Context, dok *entity.Dokument) error {
	now := time.Now()
	if dok.CreatedAt.IsZero() {
		dok.CreatedAt = now
	}
	dok.UpdatedAt = now
	if dok.Status == "" {
		dok.Status = entity.DokumentStatusPending
	}
	return r.db.WithContext(ctx).Create(dok).Error
}

func (r *dokumentRepositoryImpl) GetByDocID(ctx context.Context, docID string) (*entity.Dokument, error) {
	var dok entity.Dokument
	err := r.db.WithContext(ctx).Where("doc_id = ?", docID).Take(&dok).Error
	if err == nil {
		return &dok, nil
	}
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return nil, err
}

func (r *dokumentRepositoryImpl) GetByID(ctx context.Context, id int64) (*entity.Dokument, error) {
	var dok entity.Dokument
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&dok).Error
	if err == nil {
		return &dok, nil
	}
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return nil, err
}

func (r *dokumentRepositoryImpl) MarkError(ctx context.Context, docID string, reason string) error {
	return r.db.WithContext(ctx).Model(&entity.Dokument{}).
		Where("doc_id = ?", docID).
		Updates(map[string]any{
			"status":     entity.DokumentStatusError,
			"reason":     reason,
			"updated_at": time.Now(),
		}).Error
}
