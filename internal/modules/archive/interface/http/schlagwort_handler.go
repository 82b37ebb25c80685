package http

import (
	archiveRequest "WSpeicher/internal/modules/archive/application/dto/request"
	"WSpeicher/internal/modules/archive/application/service"
	"WSpeicher/pkg/back"
	"WSpeicher/pkg/xerr"
	"WSpeicher/pkg/zlog"

	"github.com/gin-gonic/gin"
)

// SchlagwortHandler 关键词目录管理 Handler
type SchlagwortHandler struct {
	schlagwortSvc service.SchlagwortService
}

func NewSchlagwortHandler(schlagwortSvc service.SchlagwortService) *SchlagwortHandler {
	return &SchlagwortHandler{schlagwortSvc: schlagwortSvc}
}

// List 列出全部 Schlagworte
//
// 路由: GET /schlagworte
func (h *SchlagwortHandler) List(c *gin.Context) {
	data, err := h.schlagwortSvc.List(c.Request.Context())
	back.Result(c, data, err)
}

// Create 新建一条 Schlagwort
//
// 路由: POST /schlagworte/create
// 请求体: CreateSchlagwortRequest
func (h *SchlagwortHandler) Create(c *gin.Context) {
	var req archiveRequest.CreateSchlagwortRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.schlagwortSvc.Create(c.Request.Context(), req)
	back.Result(c, data, err)
}
