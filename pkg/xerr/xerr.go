package xerr

import "fmt"

// CodeError 自定义错误结构
type CodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (e *CodeError) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

// New 创建新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Message: msg}
}

// WithCause 在预定义错误的基础上附加底层原因，返回新的 CodeError
func (e *CodeError) WithCause(cause error) *CodeError {
	if cause == nil {
		return e
	}
	return &CodeError{Code: e.Code, Message: fmt.Sprintf("%s: %v", e.Message, cause)}
}

// Is 按错误码匹配，errors.Is 可以识别 WithCause 衍生的错误
func (e *CodeError) Is(target error) bool {
	t, ok := target.(*CodeError)
	return ok && t.Code == e.Code
}

// 通用错误码
const (
	OK                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
)

// 业务错误码（按错误分类划分区间）
const (
	CodeInvalidInput      = 40001 // 非 PDF 上传、参数非法，拒绝于任何副作用之前
	CodeExtraction        = 50001 // 文档不可读/损坏，中止该文档的入库
	CodeEmbeddingService  = 50002 // 向量化服务不可用，整批写入原子中止
	CodeKeywordResolution = 50003 // 字段无法映射到 Schlagwort，整个文档回滚
	CodeOutputFormat      = 50004 // 模型结构化输出不符合 JSON 约定
	CodeSessionNotFound   = 40401 // 会话/用户档案不存在
)

// 预定义错误
var (
	ErrSuccess     = New(OK, "Success")
	ErrServerError = New(InternalServerError, "系统错误，请联系工作人员")
	ErrParam       = New(BadRequest, "参数错误")

	ErrInvalidInput      = New(CodeInvalidInput, "输入非法，仅支持 PDF 文档")
	ErrExtraction        = New(CodeExtraction, "文档内容提取失败")
	ErrEmbeddingService  = New(CodeEmbeddingService, "向量化服务调用失败")
	ErrKeywordResolution = New(CodeKeywordResolution, "字段无法解析为 Schlagwort")
	ErrOutputFormat      = New(CodeOutputFormat, "模型输出不是合法的 JSON")
	ErrSessionNotFound   = New(CodeSessionNotFound, "用户档案不存在")
)
