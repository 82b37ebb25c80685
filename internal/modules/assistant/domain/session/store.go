package session

import "context"

// 对话角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn 会话中的一轮发言
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store 按会话 id 隔离的对话记忆。
// 实现必须保证同一会话上的操作串行化，不同会话互不影响。
type Store interface {
	// History 返回该会话已有的全部轮次，按时间顺序；无会话时返回空切片
	History(ctx context.Context, sessionID string) ([]Turn, error)
	// Append 追加若干轮次，会话不存在时惰性创建
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	// Clear 清空该会话的记忆，只影响这一个会话
	Clear(ctx context.Context, sessionID string) error
}
