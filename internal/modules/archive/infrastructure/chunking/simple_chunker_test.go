package chunking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSimpleChunkerInvalidConfig(t *testing.T) {
	_, err := NewSimpleChunker(100, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = NewSimpleChunker(100, 150)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestNewSimpleChunkerDefaults(t *testing.T) {
	c, err := NewSimpleChunker(0, -5)
	require.NoError(t, err)
	assert.Equal(t, 400, c.ChunkSize)
	assert.Equal(t, 0, c.ChunkOverlap)
}

func TestChunkShortTextSinglePiece(t *testing.T) {
	c, err := NewSimpleChunker(100, 10)
	require.NoError(t, err)

	chunks := c.Chunk("kurzer Text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "kurzer Text", chunks[0])
}

func TestChunkEmptyText(t *testing.T) {
	c, err := NewSimpleChunker(100, 10)
	require.NoError(t, err)
	assert.Empty(t, c.Chunk(""))
}

func TestChunkDeterministic(t *testing.T) {
	c, err := NewSimpleChunker(50, 10)
	require.NoError(t, err)

	text := strings.Repeat("Der Vertrag regelt die Bedingungen. ", 20)
	first := c.Chunk(text)
	second := c.Chunk(text)
	assert.Equal(t, first, second)
}

func TestChunkOverlapAndRemainder(t *testing.T) {
	c, err := NewSimpleChunker(10, 3)
	require.NoError(t, err)

	text := strings.Repeat("abcdefg", 5) // 35 Zeichen
	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	// 相邻片段首尾重叠 overlap 个字符
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		tail := string(prev[len(prev)-3:])
		head := string(cur[:3])
		assert.Equal(t, tail, head, "chunk %d overlap mismatch", i)
	}

	// 去掉重叠后能完整重建原文，末尾剩余不丢失
	var b strings.Builder
	b.WriteString(chunks[0])
	for i := 1; i < len(chunks); i++ {
		runes := []rune(chunks[i])
		b.WriteString(string(runes[3:]))
	}
	assert.Equal(t, text, b.String())
}

func TestChunkMultiByteSafe(t *testing.T) {
	c, err := NewSimpleChunker(4, 1)
	require.NoError(t, err)

	text := "Müller Straße Gebäude Prüfung"
	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		// rune 切分不截断多字节字符
		assert.True(t, utf8.ValidString(chunk))
	}
}

func TestChunkDocumentsCarriesMetadata(t *testing.T) {
	c, err := NewSimpleChunker(10, 2)
	require.NoError(t, err)

	docs := []*schema.Document{
		{Content: strings.Repeat("x", 25), MetaData: map[string]any{"doc_id": "a"}},
	}
	out, err := c.ChunkDocuments(context.Background(), docs)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	for i, d := range out {
		assert.Equal(t, "a", d.MetaData["doc_id"])
		assert.Equal(t, i, d.MetaData["chunk_index"])
	}
}
