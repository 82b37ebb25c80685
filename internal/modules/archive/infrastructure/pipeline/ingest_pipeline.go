package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"WSpeicher/internal/modules/archive/domain/entity"
	"WSpeicher/internal/modules/archive/domain/repository"
	"WSpeicher/internal/modules/archive/infrastructure/chunking"
	"WSpeicher/pkg/audit"
	"WSpeicher/pkg/xerr"
	"WSpeicher/pkg/zlog"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// TimeFormat 生成 file_id 用的时间戳格式
const TimeFormat = "2006-01-02-15-04-05"

// 入库结果状态（入库入口的三态约定）
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// IngestRequest 单个文档的入库请求
type IngestRequest struct {
	Filename string // 暂存区内的文件名（含扩展名）
	Operator string // 触发入库的操作者
}

// IngestResult 单个文档的入库结果
type IngestResult struct {
	DocID          string `json:"doc_id"`
	Filename       string `json:"filename"`
	Status         string `json:"status"` // SUCCESS / ERROR
	Reason         string `json:"reason,omitempty"`
	Chunks         int    `json:"chunks"`
	Fields         int    `json:"fields"`
	NewSchlagworte int    `json:"new_schlagworte"`
	NewFelder      int    `json:"new_felder"`
	Links          int    `json:"links"`
	DurationMs     int64  `json:"duration_ms"`
}

// TerminalEventPublisher 终态事件发布（可选，未配置 broker 时为 nil）
type TerminalEventPublisher interface {
	PublishTerminal(ctx context.Context, docID, status, reason string) error
}

// ingestState 管道各节点间传递的状态。
// 状态机：Uploaded -> MetadataStamped -> Indexed -> FieldsResolving -> Archived | RolledBack
type ingestState struct {
	req   *IngestRequest
	start time.Time

	path   string // 暂存区内的完整路径
	docID  string
	dok    *entity.Dokument
	fields []entity.FormField

	chunks int
	commit *repository.CommitResult

	failed bool
	reason string
	err    error // 归类后的错误（xerr.CodeError 或 sentinel）
}

// IngestPipeline 文档入库管道（基于 Eino compose.Graph）。
// 每个文档是独立的工作单元：单个文档失败不影响批次里的其他文档。
type IngestPipeline struct {
	docs       repository.DokumentRepository
	schlagwort repository.SchlagwortRepository
	vs         repository.VectorStore
	reader     repository.DocumentReader
	chunker    *chunking.SimpleChunker
	auditLog   *audit.Logger
	publisher  TerminalEventPublisher

	dumpDir   string
	archivDir string
	strict    bool

	// 并发入库的全局串行化：同名新 Schlagwort 的先查后建不会产生重复行
	commitMu sync.Mutex

	r compose.Runnable[*IngestRequest, *IngestResult]
}

func NewIngestPipeline(
	docs repository.DokumentRepository,
	schlagwort repository.SchlagwortRepository,
	vs repository.VectorStore,
	reader repository.DocumentReader,
	chunker *chunking.SimpleChunker,
	auditLog *audit.Logger,
	publisher TerminalEventPublisher,
	dumpDir, archivDir string,
	strict bool,
) (*IngestPipeline, error) {
	if docs == nil || schlagwort == nil || vs == nil || reader == nil || chunker == nil {
		return nil, fmt.Errorf("required dependencies are nil")
	}
	if strings.TrimSpace(dumpDir) == "" || strings.TrimSpace(archivDir) == "" {
		return nil, fmt.Errorf("dumpDir/archivDir is empty")
	}
	p := &IngestPipeline{
		docs:       docs,
		schlagwort: schlagwort,
		vs:         vs,
		reader:     reader,
		chunker:    chunker,
		auditLog:   auditLog,
		publisher:  publisher,
		dumpDir:    dumpDir,
		archivDir:  archivDir,
		strict:     strict,
	}
	r, err := p.buildGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.r = r
	return p, nil
}

// Ingest 处理一个暂存区文档直至终态
func (p *IngestPipeline) Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	return p.r.Invoke(ctx, req)
}

func (p *IngestPipeline) buildGraph(ctx context.Context) (compose.Runnable[*IngestRequest, *IngestResult], error) {
	const (
		Stamp    = "Stamp"
		Index    = "Index"
		Resolve  = "ResolveFields"
		Finalize = "Finalize"
	)

	g := compose.NewGraph[*IngestRequest, *IngestResult]()

	_ = g.AddLambdaNode(Stamp, compose.InvokableLambdaWithOption(p.stampNode), compose.WithNodeName(Stamp))
	_ = g.AddLambdaNode(Index, compose.InvokableLambdaWithOption(p.indexNode), compose.WithNodeName(Index))
	_ = g.AddLambdaNode(Resolve, compose.InvokableLambdaWithOption(p.resolveNode), compose.WithNodeName(Resolve))
	_ = g.AddLambdaNode(Finalize, compose.InvokableLambdaWithOption(p.finalizeNode), compose.WithNodeName(Finalize))

	_ = g.AddEdge(compose.START, Stamp)
	_ = g.AddEdge(Stamp, Index)
	_ = g.AddEdge(Index, Resolve)
	_ = g.AddEdge(Resolve, Finalize)
	_ = g.AddEdge(Finalize, compose.END)

	return g.Compile(ctx, compose.WithGraphName("IngestPipeline"), compose.WithNodeTriggerMode(compose.AllPredecessor))
}

// stampNode Uploaded -> MetadataStamped：
// 校验输入、生成 file_id、登记文档行、把来源元数据写回文件。
// 校验失败发生在任何副作用之前。
func (p *IngestPipeline) stampNode(ctx context.Context, req *IngestRequest, _ ...any) (*ingestState, error) {
	st := &ingestState{req: req, start: time.Now()}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return st.fail("filename is empty", xerr.ErrInvalidInput), nil
	}
	st.path = filepath.Join(p.dumpDir, filename)

	if err := p.reader.Validate(st.path); err != nil {
		zlog.Error("only PDF files are supported", zap.String("filename", filename), zap.Error(err))
		return st.fail("not a valid PDF", err), nil
	}

	timestamp := time.Now().Format(TimeFormat)
	nameWoExt := strings.TrimSuffix(filename, filepath.Ext(filename))
	st.docID = fmt.Sprintf("%s_%s", nameWoExt, timestamp)

	st.dok = &entity.Dokument{
		DocID:       st.docID,
		OrigName:    filename,
		Status:      entity.DokumentStatusPending,
		Operator:    req.Operator,
		ProcessedAt: time.Now(),
	}
	if err := p.docs.Create(ctx, st.dok); err != nil {
		return st.fail("failed to register dokument", err), nil
	}

	// 元数据先落盘：即使后续崩溃，文件也带着可追溯的来源信息
	err := p.reader.StampProvenance(st.path, repository.Provenance{
		FileID:      st.docID,
		ProcessedAt: timestamp,
		OrigName:    filename,
		Operator:    req.Operator,
	})
	if err != nil {
		return st.fail("failed to stamp provenance", err), nil
	}

	zlog.Info("dokument stamped", zap.String("doc_id", st.docID), zap.String("operator", req.Operator))
	return st, nil
}

// indexNode MetadataStamped -> Indexed：全文提取、切片、向量化、写入向量库。
// 这一步与文档是否带表单字段无关。
func (p *IngestPipeline) indexNode(ctx context.Context, st *ingestState, _ ...any) (*ingestState, error) {
	if st.failed {
		return st, nil
	}

	text, err := p.reader.ExtractText(st.path)
	if err != nil {
		return st.fail("text extraction failed", err), nil
	}

	parts, err := p.chunker.ChunkDocuments(ctx, []*schema.Document{{Content: text}})
	if err != nil {
		return st.fail("chunking failed", err), nil
	}
	chunks := make([]repository.ChunkInput, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, repository.ChunkInput{
			Content:    part.Content,
			DocID:      st.docID,
			DocName:    st.req.Filename,
			ChunkIndex: i,
		})
	}

	if _, err := p.vs.AddChunks(ctx, chunks); err != nil {
		return st.fail("vector indexing failed", err), nil
	}
	st.chunks = len(chunks)

	zlog.Info("dokument indexed", zap.String("doc_id", st.docID), zap.Int("chunks", st.chunks))
	return st, nil
}

// resolveNode Indexed -> FieldsResolving：
// 无表单字段的文档进入显式的终态错误（而不是静默成功）；
// 有字段时先把文件搬入归档目录，再在单个事务内全部解析。
// 先搬文件：事务提交即意味着文件已归档，二者不会各说各话。
// 提交失败时把文件搬回暂存区，与事务回滚一起恢复原状。
func (p *IngestPipeline) resolveNode(ctx context.Context, st *ingestState, _ ...any) (*ingestState, error) {
	if st.failed {
		return st, nil
	}

	fields, err := p.reader.ExtractFields(st.path)
	if err != nil {
		return st.fail("field extraction failed", err), nil
	}
	st.fields = fields

	if len(fields) == 0 {
		zlog.Warn("dokument has no form fields, not archivable", zap.String("doc_id", st.docID))
		return st.fail("no form fields", xerr.ErrKeywordResolution), nil
	}

	target := filepath.Join(p.archivDir, st.docID+".pdf")
	if err := os.Rename(st.path, target); err != nil {
		return st.fail("failed to move file to archive", err), nil
	}

	p.commitMu.Lock()
	commit, err := p.schlagwort.CommitDokument(ctx, st.dok, fields, p.strict)
	p.commitMu.Unlock()
	if err != nil {
		if mvErr := os.Rename(target, st.path); mvErr != nil {
			zlog.Error("failed to move file back to dump dir",
				zap.String("doc_id", st.docID), zap.Error(mvErr))
		}
		return st.fail("keyword resolution failed", err), nil
	}
	st.commit = commit

	zlog.Info("dokument archived",
		zap.String("doc_id", st.docID),
		zap.String("target", target),
		zap.Int("fields", len(fields)),
		zap.Int("new_schlagworte", commit.NewSchlagworte))
	return st, nil
}

// finalizeNode FieldsResolving -> Archived | RolledBack：
// 失败则登记 error 终态并写审计日志，文件此时仍在暂存区。
func (p *IngestPipeline) finalizeNode(ctx context.Context, st *ingestState, _ ...any) (*IngestResult, error) {
	if st.failed {
		// 回滚终态：文件留在暂存区，文档状态置 error，追加审计记录
		if st.dok != nil && st.dok.Id != 0 {
			if err := p.docs.MarkError(ctx, st.docID, st.reason); err != nil {
				zlog.Error("failed to mark dokument error", zap.String("doc_id", st.docID), zap.Error(err))
			}
		}
		p.auditLog.Failure(st.req.Filename, 1, st.reason)
		p.publishTerminal(ctx, st, entity.DokumentStatusError)
		return st.result(StatusError), nil
	}

	p.publishTerminal(ctx, st, entity.DokumentStatusArchived)
	return st.result(StatusSuccess), nil
}

func (p *IngestPipeline) publishTerminal(ctx context.Context, st *ingestState, status string) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishTerminal(ctx, st.docID, status, st.reason); err != nil {
		// 事件发布失败不影响入库结果
		zlog.Warn("ingest terminal event publish failed", zap.String("doc_id", st.docID), zap.Error(err))
	}
}

func (st *ingestState) fail(reason string, err error) *ingestState {
	if st.failed {
		return st
	}
	st.failed = true
	st.reason = reason
	st.err = err
	if err != nil && !errors.Is(err, xerr.ErrInvalidInput) {
		zlog.Error("ingest failed", zap.String("filename", st.req.Filename), zap.String("reason", reason), zap.Error(err))
	}
	return st
}

func (st *ingestState) result(status string) *IngestResult {
	res := &IngestResult{
		DocID:      st.docID,
		Filename:   st.req.Filename,
		Status:     status,
		Reason:     st.reason,
		Chunks:     st.chunks,
		Fields:     len(st.fields),
		DurationMs: time.Since(st.start).Milliseconds(),
	}
	if st.commit != nil {
		res.NewSchlagworte = st.commit.NewSchlagworte
		res.NewFelder = st.commit.NewFelder
		res.Links = st.commit.Links
	}
	return res
}
