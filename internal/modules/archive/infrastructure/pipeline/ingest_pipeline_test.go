package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"WSpeicher/internal/modules/archive/domain/entity"
	"WSpeicher/internal/modules/archive/domain/repository"
	"WSpeicher/internal/modules/archive/infrastructure/chunking"
	"WSpeicher/pkg/audit"
	"WSpeicher/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader 以文件名为键返回预设的表单字段
type fakeReader struct {
	fields map[string][]entity.FormField
}

func (f *fakeReader) Validate(path string) error {
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return xerr.ErrInvalidInput
	}
	return nil
}

func (f *fakeReader) ExtractText(path string) (string, error) {
	return "Inhalt von " + filepath.Base(path), nil
}

func (f *fakeReader) ExtractFields(path string) ([]entity.FormField, error) {
	return f.fields[filepath.Base(path)], nil
}

func (f *fakeReader) StampProvenance(path string, p repository.Provenance) error {
	return nil
}

type fakeDokumentRepo struct {
	mu     sync.Mutex
	nextID int64
	docs   map[string]*entity.Dokument
}

func newFakeDokumentRepo() *fakeDokumentRepo {
	return &fakeDokumentRepo{docs: map[string]*entity.Dokument{}}
}

func (r *fakeDokumentRepo) Create(ctx context.Context, dok *entity.Dokument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	dok.Id = r.nextID
	r.docs[dok.DocID] = dok
	return nil
}

func (r *fakeDokumentRepo) GetByDocID(ctx context.Context, docID string) (*entity.Dokument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[docID], nil
}

func (r *fakeDokumentRepo) GetByID(ctx context.Context, id int64) (*entity.Dokument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.Id == id {
			return d, nil
		}
	}
	return nil, nil
}

func (r *fakeDokumentRepo) MarkError(ctx context.Context, docID string, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.docs[docID]; ok {
		d.Status = entity.DokumentStatusError
		d.Reason = reason
	}
	return nil
}

// fakeSchlagwortRepo 只实现管道用到的 CommitDokument
type fakeSchlagwortRepo struct {
	commitErr error
	commits   int
}

func (r *fakeSchlagwortRepo) ResolveOrCreateSchlagwort(ctx context.Context, name string, strict bool) (*entity.Schlagwort, bool, error) {
	return nil, false, errors.New("not used")
}

func (r *fakeSchlagwortRepo) ResolveOrCreateFeld(ctx context.Context, name, typ string, schlagwortID int64) (*entity.Feld, bool, error) {
	return nil, false, errors.New("not used")
}

func (r *fakeSchlagwortRepo) LinkDokumentSchlagwort(ctx context.Context, dokumentID, schlagwortID int64) (bool, error) {
	return false, errors.New("not used")
}

func (r *fakeSchlagwortRepo) CommitDokument(ctx context.Context, dok *entity.Dokument, fields []entity.FormField, strict bool) (*repository.CommitResult, error) {
	r.commits++
	if r.commitErr != nil {
		return nil, r.commitErr
	}
	dok.Status = entity.DokumentStatusArchived
	return &repository.CommitResult{NewSchlagworte: len(fields), NewFelder: len(fields), Links: len(fields)}, nil
}

func (r *fakeSchlagwortRepo) ListSchlagworte(ctx context.Context) ([]entity.Schlagwort, error) {
	return nil, errors.New("not used")
}

func (r *fakeSchlagwortRepo) CreateSchlagwort(ctx context.Context, s *entity.Schlagwort) error {
	return errors.New("not used")
}

func (r *fakeSchlagwortRepo) ListSchlagwortNames(ctx context.Context) ([]string, error) {
	return nil, errors.New("not used")
}

type fakeChunkStore struct {
	mu     sync.Mutex
	chunks []repository.ChunkInput
}

func (s *fakeChunkStore) AddChunks(ctx context.Context, chunks []repository.ChunkInput) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	ids := make([]string, len(chunks))
	return ids, nil
}

func (s *fakeChunkStore) Search(ctx context.Context, query string, topK int) ([]repository.SearchHit, error) {
	return nil, errors.New("not used")
}

func (s *fakeChunkStore) Reset(ctx context.Context) error { return nil }

type recordedEvent struct {
	docID  string
	status string
	reason string
}

type fakePublisher struct {
	events []recordedEvent
}

func (p *fakePublisher) PublishTerminal(ctx context.Context, docID, status, reason string) error {
	p.events = append(p.events, recordedEvent{docID: docID, status: status, reason: reason})
	return nil
}

type ingestFixture struct {
	pipe      *IngestPipeline
	docs      *fakeDokumentRepo
	sw        *fakeSchlagwortRepo
	vs        *fakeChunkStore
	publisher *fakePublisher
	dumpDir   string
	archivDir string
	auditPath string
}

func newIngestFixture(t *testing.T, reader *fakeReader, sw *fakeSchlagwortRepo) *ingestFixture {
	t.Helper()
	dumpDir := t.TempDir()
	archivDir := t.TempDir()
	auditPath := filepath.Join(t.TempDir(), "audit.log")

	chunker, err := chunking.NewSimpleChunker(50, 10)
	require.NoError(t, err)

	docs := newFakeDokumentRepo()
	vs := &fakeChunkStore{}
	publisher := &fakePublisher{}
	auditLog := audit.New(auditPath)
	t.Cleanup(func() { _ = auditLog.Close() })

	pipe, err := NewIngestPipeline(docs, sw, vs, reader, chunker, auditLog, publisher, dumpDir, archivDir, true)
	require.NoError(t, err)

	return &ingestFixture{
		pipe: pipe, docs: docs, sw: sw, vs: vs, publisher: publisher,
		dumpDir: dumpDir, archivDir: archivDir, auditPath: auditPath,
	}
}

func stageFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-stub"), 0o644))
}

func TestIngestSuccessArchivesFile(t *testing.T) {
	reader := &fakeReader{fields: map[string][]entity.FormField{
		"antrag.pdf": {{Name: "Vorname", Typ: "text"}, {Name: "Nachname", Typ: "text"}},
	}}
	fx := newIngestFixture(t, reader, &fakeSchlagwortRepo{})
	stageFile(t, fx.dumpDir, "antrag.pdf")

	res, err := fx.pipe.Ingest(context.Background(), &IngestRequest{Filename: "antrag.pdf", Operator: "test"})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.True(t, strings.HasPrefix(res.DocID, "antrag_"))
	assert.Equal(t, 2, res.Fields)
	assert.Greater(t, res.Chunks, 0)

	// 文件已从暂存区搬入归档目录，按 doc_id 命名
	_, err = os.Stat(filepath.Join(fx.dumpDir, "antrag.pdf"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(fx.archivDir, res.DocID+".pdf"))
	assert.NoError(t, err)

	// 切片带着文档标识写入向量库
	require.NotEmpty(t, fx.vs.chunks)
	assert.Equal(t, res.DocID, fx.vs.chunks[0].DocID)

	require.Len(t, fx.publisher.events, 1)
	assert.Equal(t, entity.DokumentStatusArchived, fx.publisher.events[0].status)
}

func TestIngestNoFormFieldsTerminalError(t *testing.T) {
	reader := &fakeReader{fields: map[string][]entity.FormField{}}
	fx := newIngestFixture(t, reader, &fakeSchlagwortRepo{})
	stageFile(t, fx.dumpDir, "leer.pdf")

	res, err := fx.pipe.Ingest(context.Background(), &IngestRequest{Filename: "leer.pdf", Operator: "test"})
	require.NoError(t, err)

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "no form fields", res.Reason)

	// 文件留在暂存区，文档置 error 终态
	_, err = os.Stat(filepath.Join(fx.dumpDir, "leer.pdf"))
	assert.NoError(t, err)
	dok, err := fx.docs.GetByDocID(context.Background(), res.DocID)
	require.NoError(t, err)
	require.NotNil(t, dok)
	assert.Equal(t, entity.DokumentStatusError, dok.Status)
	assert.Equal(t, "no form fields", dok.Reason)

	// 审计日志追加了一条失败记录
	data, err := os.ReadFile(fx.auditPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "leer.pdf")
	assert.Contains(t, string(data), "no form fields")

	require.Len(t, fx.publisher.events, 1)
	assert.Equal(t, entity.DokumentStatusError, fx.publisher.events[0].status)
}

func TestIngestCommitFailureKeepsFileInDump(t *testing.T) {
	reader := &fakeReader{fields: map[string][]entity.FormField{
		"vertrag.pdf": {{Name: "Unbekannt", Typ: "text"}},
	}}
	fx := newIngestFixture(t, reader, &fakeSchlagwortRepo{
		commitErr: xerr.ErrKeywordResolution,
	})
	stageFile(t, fx.dumpDir, "vertrag.pdf")

	res, err := fx.pipe.Ingest(context.Background(), &IngestRequest{Filename: "vertrag.pdf", Operator: "test"})
	require.NoError(t, err)

	assert.Equal(t, StatusError, res.Status)

	// 提交失败后文件被搬回暂存区，归档目录保持为空
	_, err = os.Stat(filepath.Join(fx.dumpDir, "vertrag.pdf"))
	assert.NoError(t, err)
	entries, err := os.ReadDir(fx.archivDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	dok, err := fx.docs.GetByDocID(context.Background(), res.DocID)
	require.NoError(t, err)
	require.NotNil(t, dok)
	assert.Equal(t, entity.DokumentStatusError, dok.Status)
}

func TestIngestInvalidFileFailsBeforeSideEffects(t *testing.T) {
	reader := &fakeReader{fields: map[string][]entity.FormField{}}
	fx := newIngestFixture(t, reader, &fakeSchlagwortRepo{})
	stageFile(t, fx.dumpDir, "notiz.txt")

	res, err := fx.pipe.Ingest(context.Background(), &IngestRequest{Filename: "notiz.txt", Operator: "test"})
	require.NoError(t, err)

	assert.Equal(t, StatusError, res.Status)
	assert.Empty(t, fx.vs.chunks)
	assert.Equal(t, 0, fx.sw.commits)
}

func TestIngestBatchIsolation(t *testing.T) {
	reader := &fakeReader{fields: map[string][]entity.FormField{
		"gut.pdf": {{Name: "Vorname", Typ: "text"}},
		// schlecht.pdf 没有表单字段
	}}
	fx := newIngestFixture(t, reader, &fakeSchlagwortRepo{})
	stageFile(t, fx.dumpDir, "schlecht.pdf")
	stageFile(t, fx.dumpDir, "gut.pdf")
	ctx := context.Background()

	bad, err := fx.pipe.Ingest(ctx, &IngestRequest{Filename: "schlecht.pdf", Operator: "test"})
	require.NoError(t, err)
	assert.Equal(t, StatusError, bad.Status)

	// 前一个文档失败不影响后续文档
	good, err := fx.pipe.Ingest(ctx, &IngestRequest{Filename: "gut.pdf", Operator: "test"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, good.Status)
	_, err = os.Stat(filepath.Join(fx.archivDir, good.DocID+".pdf"))
	assert.NoError(t, err)
}
