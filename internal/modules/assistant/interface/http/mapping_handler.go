package http

import (
	assistantRequest "WSpeicher/internal/modules/assistant/application/dto/request"
	"WSpeicher/internal/modules/assistant/application/service"
	"WSpeicher/pkg/back"
	"WSpeicher/pkg/xerr"
	"WSpeicher/pkg/zlog"

	"github.com/gin-gonic/gin"
)

// MappingHandler 字段到关键词的映射建议 Handler
type MappingHandler struct {
	mappingSvc service.MappingService
}

func NewMappingHandler(mappingSvc service.MappingService) *MappingHandler {
	return &MappingHandler{mappingSvc: mappingSvc}
}

// Suggest 给一批字段名提出 Schlagwort 映射建议
//
// 路由: POST /schlagworte/suggest
// 请求体: SuggestMappingRequest {fields}
func (h *MappingHandler) Suggest(c *gin.Context) {
	var req assistantRequest.SuggestMappingRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.mappingSvc.Suggest(c.Request.Context(), req)
	back.Result(c, data, err)
}
