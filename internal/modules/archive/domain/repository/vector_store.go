package repository

import "context"

// ChunkInput 待写入向量库的一个切片
type ChunkInput struct {
	Content    string
	DocID      string
	DocName    string
	ChunkIndex int
	Vector     []float32 // 为空时由实现负责向量化
}

// SearchHit 向量检索的一条命中结果，按相似度降序返回
type SearchHit struct {
	Content    string
	DocID      string
	DocName    string
	ChunkIndex int
	Score      float32
}

// VectorStore 向量存储抽象。
// AddChunks 对整批 all-or-nothing：向量化失败时不得写入任何切片。
// Search 在集合为空时返回 vectordb.ErrEmptyStore；有向量但无命中时返回空切片。
// Reset 只清空当前集合，不影响其他集合。
type VectorStore interface {
	AddChunks(ctx context.Context, chunks []ChunkInput) ([]string, error)
	Search(ctx context.Context, query string, topK int) ([]SearchHit, error)
	Reset(ctx context.Context) error
}
