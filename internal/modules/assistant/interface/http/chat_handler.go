package http

import (
	assistantRequest "WSpeicher/internal/modules/assistant/application/dto/request"
	"WSpeicher/internal/modules/assistant/application/service"
	"WSpeicher/pkg/back"
	"WSpeicher/pkg/xerr"
	"WSpeicher/pkg/zlog"

	"github.com/gin-gonic/gin"
)

// ChatHandler 对话式检索 HTTP Handler
type ChatHandler struct {
	chatSvc service.ChatService
}

func NewChatHandler(chatSvc service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// Chat 针对归档语料回答问题
//
// 路由: POST /chat
// 请求体: ChatRequest {query, id}
// 响应体: ChatRespond {answer, documents}
func (h *ChatHandler) Chat(c *gin.Context) {
	var req assistantRequest.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.chatSvc.Chat(c.Request.Context(), req)
	back.Result(c, data, err)
}

// Clear 清空一个会话的记忆
//
// 路由: POST /chat/clear
// 请求体: ClearRequest {id}
func (h *ChatHandler) Clear(c *gin.Context) {
	var req assistantRequest.ClearRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	err := h.chatSvc.Clear(c.Request.Context(), req.Id)
	back.Result(c, nil, err)
}
