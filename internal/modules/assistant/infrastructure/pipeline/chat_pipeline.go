package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	archiveRepo "WSpeicher/internal/modules/archive/domain/repository"
	"WSpeicher/internal/modules/assistant/domain/session"
	nutzerEntity "WSpeicher/internal/modules/nutzer/domain/entity"
	"WSpeicher/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

const contextualizeSystemPrompt = "Given a chat history and the latest user question " +
	"which might reference context in the chat history, " +
	"formulate a standalone question which can be understood " +
	"without the chat history. Do NOT answer the question, " +
	"just reformulate it if needed and otherwise return it as is."

const answerSystemPrompt = "You are an assistant for question-answering tasks. " +
	"Use the following user information and pieces of retrieved context to answer " +
	"the question. If you don't know the answer, say that you " +
	"don't know. Use three sentences maximum and keep the " +
	"answer concise.\n\n" +
	"User information:\n%s\n\n" +
	"Context:\n%s"

// ChatRequest 一轮对话请求
type ChatRequest struct {
	SessionID string
	Query     string
	Facts     []nutzerEntity.Fact // 客户档案事实，进入生成提示；首轮同时作为检索前导语
	TopK      int                 // 检索 Top-K，默认 5
}

// SourceShare 检索来源及其相对出现比例（该来源 chunk 数 / 检索总数）
type SourceShare struct {
	Name               string  `json:"source_name"`
	RelativeOccurrence float64 `json:"relative_occurrence"`
}

// ChatResult 一轮对话结果
type ChatResult struct {
	SessionID  string        `json:"session_id"`
	Answer     string        `json:"answer"`
	Documents  []SourceShare `json:"documents"`
	DurationMs int64         `json:"duration_ms"`
}

type chatState struct {
	req   *ChatRequest
	start time.Time

	history    []session.Turn
	standalone string
	hits       []archiveRepo.SearchHit
	answer     string
}

const sessionLockStripes = 32

// ChatPipeline 对话式检索管道（基于 Eino Graph）。
// 同一会话的整轮（读历史 -> 改写 -> 检索 -> 生成 -> 写回）按会话分段锁串行化：
// 并发提问时后一轮必然看到前一轮已写回的历史。
// 生成模型的调用另由互斥锁串行化：单模型实例语义，多会话共享同一个模型。
type ChatPipeline struct {
	store     session.Store
	vs        archiveRepo.VectorStore
	chatModel model.BaseChatModel

	modelMu    sync.Mutex
	sessionMus [sessionLockStripes]sync.Mutex

	r compose.Runnable[*ChatRequest, *ChatResult]
}

func NewChatPipeline(store session.Store, vs archiveRepo.VectorStore, chatModel model.BaseChatModel) (*ChatPipeline, error) {
	if store == nil || vs == nil || chatModel == nil {
		return nil, fmt.Errorf("required dependencies are nil")
	}
	p := &ChatPipeline{store: store, vs: vs, chatModel: chatModel}

	r, err := p.buildGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.r = r
	return p, nil
}

// Execute 执行一轮对话。同一会话的并发调用整轮串行
func (p *ChatPipeline) Execute(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("empty query")
	}

	mu := p.sessionMu(req.SessionID)
	mu.Lock()
	defer mu.Unlock()

	return p.r.Invoke(ctx, req)
}

func (p *ChatPipeline) sessionMu(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &p.sessionMus[h.Sum32()%sessionLockStripes]
}

func (p *ChatPipeline) buildGraph(ctx context.Context) (compose.Runnable[*ChatRequest, *ChatResult], error) {
	const (
		LoadMemory    = "LoadMemory"
		Contextualize = "Contextualize"
		Retrieve      = "Retrieve"
		Generate      = "Generate"
		Persist       = "Persist"
	)

	g := compose.NewGraph[*ChatRequest, *ChatResult]()

	_ = g.AddLambdaNode(LoadMemory, compose.InvokableLambdaWithOption(p.loadMemoryNode), compose.WithNodeName(LoadMemory))
	_ = g.AddLambdaNode(Contextualize, compose.InvokableLambdaWithOption(p.contextualizeNode), compose.WithNodeName(Contextualize))
	_ = g.AddLambdaNode(Retrieve, compose.InvokableLambdaWithOption(p.retrieveNode), compose.WithNodeName(Retrieve))
	_ = g.AddLambdaNode(Generate, compose.InvokableLambdaWithOption(p.generateNode), compose.WithNodeName(Generate))
	_ = g.AddLambdaNode(Persist, compose.InvokableLambdaWithOption(p.persistNode), compose.WithNodeName(Persist))

	_ = g.AddEdge(compose.START, LoadMemory)
	_ = g.AddEdge(LoadMemory, Contextualize)
	_ = g.AddEdge(Contextualize, Retrieve)
	_ = g.AddEdge(Retrieve, Generate)
	_ = g.AddEdge(Generate, Persist)
	_ = g.AddEdge(Persist, compose.END)

	return g.Compile(ctx, compose.WithGraphName("ChatPipeline"), compose.WithNodeTriggerMode(compose.AllPredecessor))
}

func (p *ChatPipeline) loadMemoryNode(ctx context.Context, req *ChatRequest, _ ...any) (*chatState, error) {
	history, err := p.store.History(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return &chatState{req: req, start: time.Now(), history: history}, nil
}

// contextualizeNode 历史感知改写：把可能依赖上下文的问题改写为独立问题。
// 首轮没有历史，跳过改写直接使用原问题。
func (p *ChatPipeline) contextualizeNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	if len(st.history) == 0 {
		st.standalone = st.req.Query
		return st, nil
	}

	msgs := make([]*schema.Message, 0, len(st.history)+2)
	msgs = append(msgs, schema.SystemMessage(contextualizeSystemPrompt))
	msgs = append(msgs, historyMessages(st.history)...)
	msgs = append(msgs, schema.UserMessage(st.req.Query))

	p.modelMu.Lock()
	out, err := p.chatModel.Generate(ctx, msgs)
	p.modelMu.Unlock()
	if err != nil {
		return nil, err
	}

	st.standalone = strings.TrimSpace(out.Content)
	if st.standalone == "" {
		st.standalone = st.req.Query
	}
	zlog.Debug("query contextualized", zap.String("session_id", st.req.SessionID), zap.String("standalone", st.standalone))
	return st, nil
}

func (p *ChatPipeline) retrieveNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	topK := st.req.TopK
	if topK <= 0 {
		topK = 5
	}

	query := st.standalone
	// 首轮把档案前导语并入检索问题，客户相关的文档得以浮现
	if len(st.history) == 0 && len(st.req.Facts) > 0 {
		query = renderFacts(st.req.Facts) + "\n" + query
	}

	hits, err := p.vs.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	st.hits = hits
	return st, nil
}

func (p *ChatPipeline) generateNode(ctx context.Context, st *chatState, _ ...any) (*chatState, error) {
	contexts := make([]string, 0, len(st.hits))
	for _, h := range st.hits {
		contexts = append(contexts, h.Content)
	}
	system := fmt.Sprintf(answerSystemPrompt, renderFacts(st.req.Facts), strings.Join(contexts, "\n\n"))

	msgs := make([]*schema.Message, 0, len(st.history)+2)
	msgs = append(msgs, schema.SystemMessage(system))
	msgs = append(msgs, historyMessages(st.history)...)
	msgs = append(msgs, schema.UserMessage(st.req.Query))

	p.modelMu.Lock()
	out, err := p.chatModel.Generate(ctx, msgs)
	p.modelMu.Unlock()
	if err != nil {
		return nil, err
	}

	st.answer = strings.TrimSpace(out.Content)
	return st, nil
}

// persistNode 把本轮写回会话记忆，并计算每个来源的相对出现比例
func (p *ChatPipeline) persistNode(ctx context.Context, st *chatState, _ ...any) (*ChatResult, error) {
	err := p.store.Append(ctx, st.req.SessionID,
		session.Turn{Role: session.RoleUser, Content: st.req.Query},
		session.Turn{Role: session.RoleAssistant, Content: st.answer},
	)
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		SessionID:  st.req.SessionID,
		Answer:     st.answer,
		Documents:  sourceShares(st.hits),
		DurationMs: time.Since(st.start).Milliseconds(),
	}, nil
}

func sourceShares(hits []archiveRepo.SearchHit) []SourceShare {
	total := len(hits)
	if total == 0 {
		return []SourceShare{}
	}
	counts := make(map[string]int, total)
	for _, h := range hits {
		counts[h.DocName]++
	}
	out := make([]SourceShare, 0, len(counts))
	for name, count := range counts {
		out = append(out, SourceShare{Name: name, RelativeOccurrence: float64(count) / float64(total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RelativeOccurrence != out[j].RelativeOccurrence {
			return out[i].RelativeOccurrence > out[j].RelativeOccurrence
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func historyMessages(history []session.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history))
	for _, t := range history {
		switch t.Role {
		case session.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(t.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(t.Content))
		}
	}
	return msgs
}

func renderFacts(facts []nutzerEntity.Fact) string {
	if len(facts) == 0 {
		return "keine Angaben"
	}
	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		lines = append(lines, fmt.Sprintf("%s: %s", f.Key, f.Value.String()))
	}
	return strings.Join(lines, "\n")
}
