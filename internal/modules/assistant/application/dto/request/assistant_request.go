package request

// ChatRequest 一轮对话。Id 是客户档案 id，同时作为会话 id。
type ChatRequest struct {
	Query string `json:"query" binding:"required"`
	Id    int64  `json:"id" binding:"required"`
	TopK  int    `json:"top_k"`
}

// ClearRequest 清空某个会话的记忆
type ClearRequest struct {
	Id int64 `json:"id" binding:"required"`
}

// SuggestMappingRequest 字段到关键词的映射建议
type SuggestMappingRequest struct {
	Fields []string `json:"fields" binding:"required"`
}
