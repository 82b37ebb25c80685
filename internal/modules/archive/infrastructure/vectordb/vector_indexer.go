package vectordb

import (
	"context"
	"errors"

	"WSpeicher/internal/modules/archive/domain/repository"
	"WSpeicher/pkg/util"
	"WSpeicher/pkg/xerr"

	"github.com/cloudwego/eino/components/embedding"
)

// ErrEmptyStore 集合里没有任何向量时的检索错误
var ErrEmptyStore = errors.New("vectordb: store holds no vectors")

// rawStore VectorIndexer 依赖的最小 Milvus 面；测试中可替换为假实现
type rawStore interface {
	Upsert(ctx context.Context, items []UpsertItem) ([]string, error)
	SearchVector(ctx context.Context, vector []float32, topK int) ([]RawHit, error)
	RowCount(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

// VectorIndexer 实现 repository.VectorStore：
// 先向量化、后整批写入，向量化失败时整批放弃（all-or-nothing）。
type VectorIndexer struct {
	store    rawStore
	embedder embedding.Embedder
}

func NewVectorIndexer(store rawStore, embedder embedding.Embedder) (*VectorIndexer, error) {
	if store == nil {
		return nil, errors.New("raw store is nil")
	}
	if embedder == nil {
		return nil, errors.New("embedder is nil")
	}
	return &VectorIndexer{store: store, embedder: embedder}, nil
}

func (v *VectorIndexer) AddChunks(ctx context.Context, chunks []repository.ChunkInput) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}

	// 收集缺向量的切片，一次性向量化
	var pendingTexts []string
	var pendingIdx []int
	for i, c := range chunks {
		if len(c.Vector) == 0 {
			pendingTexts = append(pendingTexts, c.Content)
			pendingIdx = append(pendingIdx, i)
		}
	}

	if len(pendingTexts) > 0 {
		vectors, err := v.embedder.EmbedStrings(ctx, pendingTexts)
		if err != nil {
			// 整批放弃，不写入任何切片
			return nil, xerr.ErrEmbeddingService.WithCause(err)
		}
		if len(vectors) != len(pendingTexts) {
			return nil, xerr.ErrEmbeddingService.WithCause(
				errors.New("embedder returned wrong vector count"))
		}
		for j, idx := range pendingIdx {
			chunks[idx].Vector = toFloat32(vectors[j])
		}
	}

	items := make([]UpsertItem, 0, len(chunks))
	for _, c := range chunks {
		items = append(items, UpsertItem{
			ID:         util.GenerateShortUUID(),
			Vector:     c.Vector,
			DocID:      c.DocID,
			DocName:    c.DocName,
			ChunkIndex: int64(c.ChunkIndex),
			Content:    c.Content,
		})
	}
	return v.store.Upsert(ctx, items)
}

func (v *VectorIndexer) Search(ctx context.Context, query string, topK int) ([]repository.SearchHit, error) {
	if topK <= 0 {
		topK = 5
	}

	count, err := v.store.RowCount(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEmptyStore
	}

	vectors, err := v.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, xerr.ErrEmbeddingService.WithCause(err)
	}
	if len(vectors) == 0 {
		return nil, xerr.ErrEmbeddingService.WithCause(errors.New("embedder returned no vector"))
	}

	raw, err := v.store.SearchVector(ctx, toFloat32(vectors[0]), topK)
	if err != nil {
		return nil, err
	}

	// 无阈值过滤：空命中返回空切片，由调用方按 score 自行筛选
	hits := make([]repository.SearchHit, 0, len(raw))
	for _, h := range raw {
		hits = append(hits, repository.SearchHit{
			Content:    h.Content,
			DocID:      h.DocID,
			DocName:    h.DocName,
			ChunkIndex: int(h.ChunkIndex),
			Score:      h.Score,
		})
	}
	return hits, nil
}

func (v *VectorIndexer) Reset(ctx context.Context) error {
	return v.store.Reset(ctx)
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
