package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	archiveRepo "WSpeicher/internal/modules/archive/domain/repository"
	"WSpeicher/internal/modules/archive/infrastructure/vectordb"
	"WSpeicher/internal/modules/assistant/domain/session"
	"WSpeicher/internal/modules/assistant/infrastructure/llm"
	nutzerEntity "WSpeicher/internal/modules/nutzer/domain/entity"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVectorStore 固定命中的检索替身
type fakeVectorStore struct {
	hits    []archiveRepo.SearchHit
	empty   bool
	queries []string
}

func (f *fakeVectorStore) AddChunks(ctx context.Context, chunks []archiveRepo.ChunkInput) ([]string, error) {
	return nil, errors.New("not used")
}

func (f *fakeVectorStore) Search(ctx context.Context, query string, topK int) ([]archiveRepo.SearchHit, error) {
	f.queries = append(f.queries, query)
	if f.empty {
		return nil, vectordb.ErrEmptyStore
	}
	if topK > len(f.hits) {
		topK = len(f.hits)
	}
	return f.hits[:topK], nil
}

func (f *fakeVectorStore) Reset(ctx context.Context) error { return nil }

func hitsFor(names ...string) []archiveRepo.SearchHit {
	out := make([]archiveRepo.SearchHit, 0, len(names))
	for i, n := range names {
		out = append(out, archiveRepo.SearchHit{
			Content: "Inhalt " + n, DocID: n, DocName: n, ChunkIndex: i, Score: 0.9,
		})
	}
	return out
}

func newTestPipeline(t *testing.T, vs archiveRepo.VectorStore) (*ChatPipeline, session.Store) {
	t.Helper()
	store := session.NewMemoryStore()
	p, err := NewChatPipeline(store, vs, llm.NewMockChatModel())
	require.NoError(t, err)
	return p, store
}

func TestChatFirstTurnPersistsAndAnswers(t *testing.T) {
	vs := &fakeVectorStore{hits: hitsFor("a.pdf", "a.pdf", "b.pdf", "c.pdf")}
	p, store := newTestPipeline(t, vs)
	ctx := context.Background()

	res, err := p.Execute(ctx, &ChatRequest{SessionID: "7", Query: "Wie hoch ist die Bausparsumme?", TopK: 4})
	require.NoError(t, err)

	// Mock 模型回显最后一条 user 消息
	assert.Equal(t, "Wie hoch ist die Bausparsumme?", res.Answer)

	history, err := store.History(ctx, "7")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, session.RoleUser, history[0].Role)
	assert.Equal(t, session.RoleAssistant, history[1].Role)
}

func TestChatSourceShares(t *testing.T) {
	vs := &fakeVectorStore{hits: hitsFor("a.pdf", "a.pdf", "b.pdf", "c.pdf")}
	p, _ := newTestPipeline(t, vs)

	res, err := p.Execute(context.Background(), &ChatRequest{SessionID: "8", Query: "Frage", TopK: 4})
	require.NoError(t, err)

	require.Len(t, res.Documents, 3)
	assert.Equal(t, "a.pdf", res.Documents[0].Name)
	assert.InDelta(t, 0.5, res.Documents[0].RelativeOccurrence, 1e-9)
	assert.InDelta(t, 0.25, res.Documents[1].RelativeOccurrence, 1e-9)
	assert.InDelta(t, 0.25, res.Documents[2].RelativeOccurrence, 1e-9)

	var sum float64
	for _, d := range res.Documents {
		sum += d.RelativeOccurrence
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestChatFirstTurnUsesProfilePreambleForRetrieval(t *testing.T) {
	vs := &fakeVectorStore{hits: hitsFor("a.pdf")}
	p, _ := newTestPipeline(t, vs)
	ctx := context.Background()

	facts := []nutzerEntity.Fact{nutzerEntity.StringFact("Vorname", "Erika")}

	// 首轮：检索问题带档案前导语
	_, err := p.Execute(ctx, &ChatRequest{SessionID: "9", Query: "Meine Verträge?", Facts: facts})
	require.NoError(t, err)
	require.Len(t, vs.queries, 1)
	assert.Contains(t, vs.queries[0], "Vorname: Erika")
	assert.Contains(t, vs.queries[0], "Meine Verträge?")

	// 次轮：有历史后不再加前导语
	_, err = p.Execute(ctx, &ChatRequest{SessionID: "9", Query: "Und die Summe?", Facts: facts})
	require.NoError(t, err)
	require.Len(t, vs.queries, 2)
	assert.NotContains(t, vs.queries[1], "Vorname: Erika")
}

func TestChatSessionIsolation(t *testing.T) {
	vs := &fakeVectorStore{hits: hitsFor("a.pdf")}
	p, store := newTestPipeline(t, vs)
	ctx := context.Background()

	_, err := p.Execute(ctx, &ChatRequest{SessionID: "s1", Query: "eins"})
	require.NoError(t, err)
	_, err = p.Execute(ctx, &ChatRequest{SessionID: "s2", Query: "zwei"})
	require.NoError(t, err)

	h1, err := store.History(ctx, "s1")
	require.NoError(t, err)
	h2, err := store.History(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, h1, 2)
	assert.Len(t, h2, 2)
	assert.Equal(t, "eins", h1[0].Content)
	assert.Equal(t, "zwei", h2[0].Content)
}

// countingModel 把提示消息数作为回答返回：串行化的每一轮都带着
// 前面所有轮次的历史，消息数必然两两不同
type countingModel struct{}

func (m *countingModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage(strconv.Itoa(len(input)), nil), nil
}

func (m *countingModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(strconv.Itoa(len(input)), nil)}), nil
}

func TestChatConcurrentSameSessionSerialized(t *testing.T) {
	const turns = 8
	vs := &fakeVectorStore{hits: hitsFor("a.pdf")}
	store := session.NewMemoryStore()
	p, err := NewChatPipeline(store, vs, &countingModel{})
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, execErr := p.Execute(ctx, &ChatRequest{SessionID: "parallel", Query: fmt.Sprintf("Frage %d", n)})
			assert.NoError(t, execErr)
		}(i)
	}
	wg.Wait()

	history, err := store.History(ctx, "parallel")
	require.NoError(t, err)
	require.Len(t, history, 2*turns)

	// 第 i 轮生成提示 = 1 条 system + 2(i-1) 条历史 + 1 条问题。
	// 整轮串行时每轮看到的历史都比上一轮多一问一答，消息数恰好是 2,4,...,2n；
	// 出现重复说明有两轮读到了同一份历史。
	var counts []string
	for _, turn := range history {
		if turn.Role == session.RoleAssistant {
			counts = append(counts, turn.Content)
		}
	}
	expected := make([]string, 0, turns)
	for i := 1; i <= turns; i++ {
		expected = append(expected, strconv.Itoa(2*i))
	}
	assert.ElementsMatch(t, expected, counts)
}

func TestChatEmptyStorePropagates(t *testing.T) {
	vs := &fakeVectorStore{empty: true}
	p, store := newTestPipeline(t, vs)
	ctx := context.Background()

	_, err := p.Execute(ctx, &ChatRequest{SessionID: "leer", Query: "Frage"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, vectordb.ErrEmptyStore))

	// 失败的轮次不写入记忆
	history, err := store.History(ctx, "leer")
	require.NoError(t, err)
	assert.Empty(t, history)
}
