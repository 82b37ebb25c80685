package repository

import (
	"context"

	"WSpeicher/internal/modules/archive/domain/entity"
)

// DokumentRepository 文档元数据仓储
type DokumentRepository interface {
	Create(ctx context.Context, dok *entity.Dokument) error
	GetByDocID(ctx context.Context, docID string) (*entity.Dokument, error)
	GetByID(ctx context.Context, id int64) (*entity.Dokument, error)
	// MarkError 把文档置为 error 终态并记录原因
	MarkError(ctx context.Context, docID string, reason string) error
}
