package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	archiveRespond "WSpeicher/internal/modules/archive/application/dto/respond"
	"WSpeicher/internal/modules/archive/domain/repository"
	"WSpeicher/internal/modules/archive/infrastructure/pipeline"
	"WSpeicher/pkg/xerr"
	"WSpeicher/pkg/zlog"

	"go.uber.org/zap"
)

// 入库模式
const (
	ModeAppend  = "append"
	ModeReplace = "replace"
)

type IngestService interface {
	// Upload 暂存上传文件并逐个入库。replace 模式先清空当前向量集合。
	Upload(ctx context.Context, files []*multipart.FileHeader, mode, operator string) (*archiveRespond.UploadRespond, error)
	// IngestStaged 处理一个已在暂存区的文件（CLI 入口复用）
	IngestStaged(ctx context.Context, filename, operator string) (*pipeline.IngestResult, error)
}

type ingestService struct {
	pipeline *pipeline.IngestPipeline
	vs       repository.VectorStore
	dumpDir  string
}

func NewIngestService(p *pipeline.IngestPipeline, vs repository.VectorStore, dumpDir string) IngestService {
	return &ingestService{pipeline: p, vs: vs, dumpDir: dumpDir}
}

func (s *ingestService) Upload(ctx context.Context, files []*multipart.FileHeader, mode, operator string) (*archiveRespond.UploadRespond, error) {
	start := time.Now()
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = ModeAppend
	}
	if mode != ModeAppend && mode != ModeReplace {
		return nil, xerr.New(xerr.BadRequest, fmt.Sprintf("unknown mode: %s", mode))
	}
	if len(files) == 0 {
		return nil, xerr.New(xerr.BadRequest, "no files uploaded")
	}

	// 任何副作用之前先整体校验：批次里混入非 PDF 时直接拒绝整个请求
	for _, fh := range files {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			return nil, xerr.ErrInvalidInput.WithCause(fmt.Errorf("%s is not a PDF", fh.Filename))
		}
	}

	if mode == ModeReplace {
		if err := s.vs.Reset(ctx); err != nil {
			return nil, xerr.ErrServerError.WithCause(err)
		}
		zlog.Info("vector store reset for replace-mode ingestion", zap.Int("files", len(files)))
	}

	out := &archiveRespond.UploadRespond{Mode: mode, Results: make([]*pipeline.IngestResult, 0, len(files))}
	for _, fh := range files {
		filename := filepath.Base(fh.Filename)
		if err := s.stage(fh, filename); err != nil {
			zlog.Error("failed to stage upload", zap.String("filename", filename), zap.Error(err))
			out.Failed++
			out.Results = append(out.Results, &pipeline.IngestResult{
				Filename: filename,
				Status:   pipeline.StatusError,
				Reason:   "failed to store uploaded file",
			})
			continue
		}

		res, err := s.pipeline.Ingest(ctx, &pipeline.IngestRequest{Filename: filename, Operator: operator})
		if err != nil {
			// 管道层错误已在节点内归类，这里只兜底
			out.Failed++
			out.Results = append(out.Results, &pipeline.IngestResult{
				Filename: filename,
				Status:   pipeline.StatusError,
				Reason:   err.Error(),
			})
			continue
		}
		if res.Status == pipeline.StatusSuccess {
			out.Succeeded++
		} else {
			out.Failed++
		}
		out.Results = append(out.Results, res)
	}

	zlog.Info("upload batch processed",
		zap.String("mode", mode),
		zap.Int("succeeded", out.Succeeded),
		zap.Int("failed", out.Failed),
		zap.Int64("ms", time.Since(start).Milliseconds()))
	return out, nil
}

func (s *ingestService) IngestStaged(ctx context.Context, filename, operator string) (*pipeline.IngestResult, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" {
		return nil, xerr.New(xerr.BadRequest, "filename is empty")
	}
	return s.pipeline.Ingest(ctx, &pipeline.IngestRequest{Filename: filename, Operator: operator})
}

// stage 把上传内容写入暂存目录
func (s *ingestService) stage(fh *multipart.FileHeader, filename string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dumpDir, filename))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
