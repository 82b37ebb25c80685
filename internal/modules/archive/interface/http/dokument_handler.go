package http

import (
	"strconv"

	"WSpeicher/internal/modules/archive/application/service"
	"WSpeicher/pkg/back"
	"WSpeicher/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// DokumentHandler 文档元数据与暂存文件下载 Handler
type DokumentHandler struct {
	dokumentSvc service.DokumentService
}

func NewDokumentHandler(dokumentSvc service.DokumentService) *DokumentHandler {
	return &DokumentHandler{dokumentSvc: dokumentSvc}
}

// Get 按 id 取归档文档元数据
//
// 路由: GET /archive/document/:id
func (h *DokumentHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.dokumentSvc.GetByID(c.Request.Context(), id)
	back.Result(c, data, err)
}

// DownloadStaged 下载暂存区内的 PDF
//
// 路由: GET /archive/pdf/:name
// 错误: 文件不存在 404；非 PDF 名称按输入非法拒绝
func (h *DokumentHandler) DownloadStaged(c *gin.Context) {
	path, err := h.dokumentSvc.StagedPDFPath(c.Param("name"))
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	c.File(path)
}
