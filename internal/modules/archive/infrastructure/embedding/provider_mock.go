package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/cloudwego/eino/components/embedding"
)

// MockEmbedder 无需模型权重的确定性向量化：同一文本永远得到同一向量，
// 整条管道与检索排序测试都可以离线运行。
type MockEmbedder struct {
	Dim int
}

func NewMockEmbedder(dim int) *MockEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &MockEmbedder{Dim: dim}
}

func (m *MockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	result := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, m.Dim)
		sum := sha256.Sum256([]byte(text))
		seed := sum[:]
		var norm float64
		for j := 0; j < m.Dim; j++ {
			// 按需扩展哈希流
			if (j+1)*8 > len(seed) {
				next := sha256.Sum256(seed)
				seed = append(seed, next[:]...)
			}
			bits := binary.BigEndian.Uint64(seed[j*8 : (j+1)*8])
			vec[j] = float64(bits%2000)/1000.0 - 1.0
			norm += vec[j] * vec[j]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vec {
				vec[j] /= norm
			}
		}
		result[i] = vec
	}
	return result, nil
}

// 确保实现接口
var _ embedding.Embedder = (*MockEmbedder)(nil)
