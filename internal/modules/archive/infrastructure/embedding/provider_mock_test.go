package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedderDeterministic(t *testing.T) {
	m := NewMockEmbedder(384)
	ctx := context.Background()

	a, err := m.EmbedStrings(ctx, []string{"Bausparvertrag", "Bausparvertrag"})
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Equal(t, a[0], a[1])

	b, err := m.EmbedStrings(ctx, []string{"Bausparvertrag"})
	require.NoError(t, err)
	assert.Equal(t, a[0], b[0])
}

func TestMockEmbedderDistinctTexts(t *testing.T) {
	m := NewMockEmbedder(64)
	vecs, err := m.EmbedStrings(context.Background(), []string{"Vorname", "Nachname"})
	require.NoError(t, err)
	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestMockEmbedderNormalized(t *testing.T) {
	m := NewMockEmbedder(128)
	vecs, err := m.EmbedStrings(context.Background(), []string{"ein längerer deutscher Beispieltext"})
	require.NoError(t, err)
	require.Len(t, vecs[0], 128)

	var norm float64
	for _, v := range vecs[0] {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestMockEmbedderDefaultDim(t *testing.T) {
	m := NewMockEmbedder(0)
	assert.Equal(t, 384, m.Dim)
}
