package respond

import "WSpeicher/internal/modules/archive/infrastructure/pipeline"

// UploadRespond 一次批量上传的处理结果。
// 每个文档独立成败，整体不会因单个文档失败而中止。
type UploadRespond struct {
	Mode      string                   `json:"mode"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	Results   []*pipeline.IngestResult `json:"results"`
}

// SchlagwortItem 目录项
type SchlagwortItem struct {
	Id             int64  `json:"id"`
	Schlagwort     string `json:"schlagwort"`
	Geschaeftsfeld string `json:"geschaeftsfeld"`
	Kategorie      string `json:"kategorie"`
	DsgvoRelevant  bool   `json:"dsgvo_relevant"`
}

// ListSchlagworteRespond 目录列表
type ListSchlagworteRespond struct {
	Total int              `json:"total"`
	Items []SchlagwortItem `json:"items"`
}

// DokumentRespond 归档文档元数据
type DokumentRespond struct {
	Id          int64  `json:"id"`
	DocID       string `json:"doc_id"`
	OrigName    string `json:"orig_name"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Operator    string `json:"operator"`
	ProcessedAt string `json:"processed_at"`
}
