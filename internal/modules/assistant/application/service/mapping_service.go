package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	archiveRepo "WSpeicher/internal/modules/archive/domain/repository"
	assistantRequest "WSpeicher/internal/modules/assistant/application/dto/request"
	assistantRespond "WSpeicher/internal/modules/assistant/application/dto/respond"
	"WSpeicher/pkg/xerr"
	"WSpeicher/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

const mappingSystemPrompt = "You are a helpful assistant who matches inputs to keywords. A user will " +
	"give you a list of inputs, and you have to respond which keywords the " +
	"inputs belong to. If an input doesn't belong to any keyword, respond with " +
	"`null`. Important: always respond in JSON format, a single object mapping " +
	"each input to a keyword or null, with no additional text.\n" +
	"Here is the list of keywords: %s"

// MappingService 用生成模型给未命中目录的字段名提出 Schlagwort 映射建议。
// 纯建议性质：结果从不写库，入库时的严格回滚语义不受影响。
type MappingService interface {
	Suggest(ctx context.Context, req assistantRequest.SuggestMappingRequest) (*assistantRespond.SuggestMappingRespond, error)
}

type mappingService struct {
	schlagwort archiveRepo.SchlagwortRepository
	chatModel  model.BaseChatModel
}

func NewMappingService(schlagwort archiveRepo.SchlagwortRepository, chatModel model.BaseChatModel) MappingService {
	return &mappingService{schlagwort: schlagwort, chatModel: chatModel}
}

func (s *mappingService) Suggest(ctx context.Context, req assistantRequest.SuggestMappingRequest) (*assistantRespond.SuggestMappingRespond, error) {
	fields := make([]string, 0, len(req.Fields))
	for _, f := range req.Fields {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil, xerr.New(xerr.BadRequest, "fields is empty")
	}

	keywords, err := s.schlagwort.ListSchlagwortNames(ctx)
	if err != nil {
		return nil, err
	}
	if len(keywords) == 0 {
		return nil, xerr.New(xerr.NotFound, "Schlagwort-Katalog ist leer")
	}

	msgs := []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(mappingSystemPrompt, strings.Join(keywords, ", "))),
		schema.UserMessage(strings.Join(fields, ", ")),
	}
	out, err := s.chatModel.Generate(ctx, msgs)
	if err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(out.Content)
	parsed, err := parseMappingJSON(raw)
	if err != nil {
		zlog.Warn("mapping output not parseable", zap.String("raw", raw), zap.Error(err))
		return nil, xerr.ErrOutputFormat.WithCause(fmt.Errorf("raw output: %s", raw))
	}

	// 只保留真实存在于目录中的建议
	known := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		known[k] = struct{}{}
	}
	mappings := make(map[string]string, len(parsed))
	for field, keyword := range parsed {
		if keyword == nil {
			continue
		}
		if _, ok := known[*keyword]; ok {
			mappings[field] = *keyword
		}
	}
	return &assistantRespond.SuggestMappingRespond{Mappings: mappings}, nil
}

// parseMappingJSON 解析模型输出的 JSON 对象，容忍 Markdown 代码围栏
func parseMappingJSON(raw string) (map[string]*string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed map[string]*string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}
