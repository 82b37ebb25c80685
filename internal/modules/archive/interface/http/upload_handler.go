package http

import (
	"WSpeicher/internal/modules/archive/application/service"
	"WSpeicher/pkg/back"
	"WSpeicher/pkg/xerr"
	"WSpeicher/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadHandler 文档上传入库 HTTP Handler
type UploadHandler struct {
	ingestSvc service.IngestService
}

func NewUploadHandler(ingestSvc service.IngestService) *UploadHandler {
	return &UploadHandler{ingestSvc: ingestSvc}
}

// Upload 处理批量文档上传
//
// 路由: POST /archive/upload
// 表单: files (multipart，可多个)、mode (append|replace，默认 append)、operator
// 响应体: UploadRespond，每个文档附独立的 SUCCESS/ERROR 结果
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		zlog.Error("invalid multipart form", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	files := form.File["files"]
	mode := c.PostForm("mode")
	operator := c.PostForm("operator")
	if operator == "" {
		operator = "unbekannt"
	}

	data, err := h.ingestSvc.Upload(c.Request.Context(), files, mode, operator)
	back.Result(c, data, err)
}
