package request

// CreateSchlagwortRequest 新建 Schlagwort 目录项
type CreateSchlagwortRequest struct {
	Schlagwort     string `json:"schlagwort" binding:"required"`
	Geschaeftsfeld string `json:"geschaeftsfeld"`
	Kategorie      string `json:"kategorie"`
	DsgvoRelevant  *bool  `json:"dsgvo_relevant"`
}
