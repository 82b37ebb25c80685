package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	archiveRespond "WSpeicher/internal/modules/archive/application/dto/respond"
	"WSpeicher/internal/modules/archive/domain/repository"
	"WSpeicher/pkg/xerr"
)

type DokumentService interface {
	// GetByID 按数据库 id 取归档文档元数据；不存在返回 404 类错误
	GetByID(ctx context.Context, id int64) (*archiveRespond.DokumentRespond, error)
	// StagedPDFPath 返回暂存区内某个 PDF 的完整路径，供下载接口回传文件
	StagedPDFPath(name string) (string, error)
}

type dokumentService struct {
	docs    repository.DokumentRepository
	dumpDir string
}

func NewDokumentService(docs repository.DokumentRepository, dumpDir string) DokumentService {
	return &dokumentService{docs: docs, dumpDir: dumpDir}
}

func (s *dokumentService) GetByID(ctx context.Context, id int64) (*archiveRespond.DokumentRespond, error) {
	if id <= 0 {
		return nil, xerr.New(xerr.BadRequest, "invalid dokument id")
	}
	dok, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dok == nil {
		return nil, xerr.New(xerr.NotFound, "Dokument nicht gefunden")
	}
	return &archiveRespond.DokumentRespond{
		Id:          dok.Id,
		DocID:       dok.DocID,
		OrigName:    dok.OrigName,
		Status:      dok.Status,
		Reason:      dok.Reason,
		Operator:    dok.Operator,
		ProcessedAt: dok.ProcessedAt.Format(time.RFC3339),
	}, nil
}

func (s *dokumentService) StagedPDFPath(name string) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" {
		return "", xerr.New(xerr.BadRequest, "filename is empty")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return "", xerr.ErrInvalidInput
	}
	path := filepath.Join(s.dumpDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", xerr.New(xerr.NotFound, "Datei nicht gefunden")
	}
	return path, nil
}
