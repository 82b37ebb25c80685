package pdfdoc

import (
	"bytes"
	"strings"

	"WSpeicher/internal/modules/archive/domain/entity"
	"WSpeicher/internal/modules/archive/domain/repository"
	"WSpeicher/pkg/xerr"

	"github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFReader 基于 ledongthuc/pdf（读取）与 pdfcpu（校验、写回）的文档读取实现
type PDFReader struct{}

func NewPDFReader() *PDFReader {
	return &PDFReader{}
}

func (r *PDFReader) Validate(path string) error {
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return xerr.ErrInvalidInput
	}
	if err := pdfapi.ValidateFile(path, nil); err != nil {
		return xerr.ErrInvalidInput.WithCause(err)
	}
	return nil
}

func (r *PDFReader) ExtractText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", xerr.ErrExtraction.WithCause(err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", xerr.ErrExtraction.WithCause(err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", xerr.ErrExtraction.WithCause(err)
	}
	return buf.String(), nil
}

// ExtractFields 遍历 AcroForm 字典，返回字段出现顺序的 (名称, 类型) 列表
func (r *PDFReader) ExtractFields(path string) ([]entity.FormField, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, xerr.ErrExtraction.WithCause(err)
	}
	defer f.Close()

	acro := reader.Trailer().Key("Root").Key("AcroForm")
	if acro.IsNull() {
		return []entity.FormField{}, nil
	}
	fieldsVal := acro.Key("Fields")
	if fieldsVal.IsNull() {
		return []entity.FormField{}, nil
	}

	out := make([]entity.FormField, 0, fieldsVal.Len())
	for i := 0; i < fieldsVal.Len(); i++ {
		fv := fieldsVal.Index(i)
		name := fv.Key("T").RawString()
		if name == "" {
			continue
		}
		typ := fv.Key("FT").Name() // Tx / Btn / Ch / Sig
		out = append(out, entity.FormField{Name: name, Typ: typ})
	}
	return out, nil
}

func (r *PDFReader) StampProvenance(path string, p repository.Provenance) error {
	props := map[string]string{
		"FileID":           p.FileID,
		"ProcessedAt":      p.ProcessedAt,
		"OriginalFileName": p.OrigName,
		"Operator":         p.Operator,
	}
	// outFile 为空即原地覆盖
	if err := pdfapi.AddPropertiesFile(path, "", props, nil); err != nil {
		return xerr.ErrExtraction.WithCause(err)
	}
	return nil
}

var _ repository.DocumentReader = (*PDFReader)(nil)
