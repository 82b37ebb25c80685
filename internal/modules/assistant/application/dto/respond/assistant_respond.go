package respond

import "WSpeicher/internal/modules/assistant/infrastructure/pipeline"

// ChatRespond 对话回答与来源占比
type ChatRespond struct {
	Answer     string                 `json:"answer"`
	Documents  []pipeline.SourceShare `json:"documents"`
	DurationMs int64                  `json:"duration_ms"`
}

// SuggestMappingRespond 字段到关键词的映射建议。
// 只包含命中目录的字段，未命中的字段不出现在结果里。
type SuggestMappingRespond struct {
	Mappings map[string]string `json:"mappings"`
}
