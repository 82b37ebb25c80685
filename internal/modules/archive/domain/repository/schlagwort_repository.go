package repository

import (
	"context"

	"WSpeicher/internal/modules/archive/domain/entity"
)

// CommitResult 一次文档提交的统计结果
type CommitResult struct {
	NewSchlagworte int // 本次新建的 Schlagwort 数
	NewFelder      int // 本次新建的 Feld 数
	Links          int // 本次写入的文档-关键词关联数
}

// SchlagwortRepository 关键词目录仓储。
// 解析类操作的先查后建都必须在 CommitDokument 的单个事务内执行，
// 并发入库由管道层的提交互斥锁串行化（见 infrastructure/pipeline 的 commitMu）。
type SchlagwortRepository interface {
	// ResolveOrCreateSchlagwort 按名称精确查找 Schlagwort；
	// 未命中时查同义词表并返回其所属 Schlagwort；
	// 仍未命中时：strict 为 true 返回 ErrKeywordResolution 类错误，
	// 否则以占位默认值新建一条（dsgvo_relevant 默认 true）。
	ResolveOrCreateSchlagwort(ctx context.Context, name string, strict bool) (*entity.Schlagwort, bool, error)

	// ResolveOrCreateFeld 幂等：同名 Feld 已存在时原样返回，不覆盖
	// 其类型与关键词关联（first-write-wins）。
	ResolveOrCreateFeld(ctx context.Context, name, typ string, schlagwortID int64) (*entity.Feld, bool, error)

	// LinkDokumentSchlagwort 幂等写入文档-关键词关联，重复写入不产生新行
	LinkDokumentSchlagwort(ctx context.Context, dokumentID, schlagwortID int64) (bool, error)

	// CommitDokument 在单个事务内解析文档的全部字段：全部成功则提交并把
	// 文档状态置为 archived；任意一个字段失败则整体回滚，文档保持原状态。
	CommitDokument(ctx context.Context, dok *entity.Dokument, fields []entity.FormField, strict bool) (*CommitResult, error)

	ListSchlagworte(ctx context.Context) ([]entity.Schlagwort, error)
	CreateSchlagwort(ctx context.Context, s *entity.Schlagwort) error
	ListSchlagwortNames(ctx context.Context) ([]string, error)
}
