package repository

import "WSpeicher/internal/modules/archive/domain/entity"

// Provenance 写回文档自身的来源信息。入库早期就落到文件里，
// 后续任何一步失败，文件本身仍带着可追溯的元数据。
type Provenance struct {
	FileID      string
	ProcessedAt string
	OrigName    string
	Operator    string
}

// DocumentReader 文档读取抽象：文本提取、表单字段枚举、元数据写回
type DocumentReader interface {
	// Validate 检查文件是否为可处理的 PDF；失败归类为 InvalidInput
	Validate(path string) error
	// ExtractText 提取全文文本；失败归类为 ExtractionError
	ExtractText(path string) (string, error)
	// ExtractFields 枚举 AcroForm 表单字段名与类型；无字段时返回空切片
	ExtractFields(path string) ([]entity.FormField, error)
	// StampProvenance 把来源元数据写回文件
	StampProvenance(path string, p Provenance) error
}
