package llm

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// SerialChatModel 把所有推理调用串行化的模型包装。
// 进程内只有一个模型实例，对话与字段映射共享它。
type SerialChatModel struct {
	inner model.BaseChatModel
	mu    sync.Mutex
}

func NewSerialChatModel(inner model.BaseChatModel) *SerialChatModel {
	return &SerialChatModel{inner: inner}
}

func (s *SerialChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Generate(ctx, input, opts...)
}

func (s *SerialChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Stream(ctx, input, opts...)
}

var _ model.BaseChatModel = (*SerialChatModel)(nil)
