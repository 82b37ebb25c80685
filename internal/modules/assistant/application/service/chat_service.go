package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"WSpeicher/internal/modules/archive/infrastructure/vectordb"
	assistantRequest "WSpeicher/internal/modules/assistant/application/dto/request"
	assistantRespond "WSpeicher/internal/modules/assistant/application/dto/respond"
	"WSpeicher/internal/modules/assistant/domain/session"
	"WSpeicher/internal/modules/assistant/infrastructure/pipeline"
	nutzerRepo "WSpeicher/internal/modules/nutzer/domain/repository"
	"WSpeicher/pkg/xerr"
	"WSpeicher/pkg/zlog"

	"go.uber.org/zap"
)

type ChatService interface {
	// Chat 针对归档语料回答一个问题，带会话记忆与来源占比。
	// 客户 id 未知时返回 SessionNotFound 类错误。
	Chat(ctx context.Context, req assistantRequest.ChatRequest) (*assistantRespond.ChatRespond, error)
	// Clear 清空一个会话的记忆，其他会话不受影响
	Clear(ctx context.Context, id int64) error
}

type chatService struct {
	pipeline *pipeline.ChatPipeline
	store    session.Store
	kunden   nutzerRepo.KundeRepository
	topK     int
}

func NewChatService(p *pipeline.ChatPipeline, store session.Store, kunden nutzerRepo.KundeRepository, topK int) ChatService {
	if topK <= 0 {
		topK = 5
	}
	return &chatService{pipeline: p, store: store, kunden: kunden, topK: topK}
}

func (s *chatService) Chat(ctx context.Context, req assistantRequest.ChatRequest) (*assistantRespond.ChatRespond, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, xerr.New(xerr.BadRequest, "query is empty")
	}

	kunde, adresse, err := s.kunden.GetByID(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	if kunde == nil {
		return nil, xerr.ErrSessionNotFound
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	result, err := s.pipeline.Execute(ctx, &pipeline.ChatRequest{
		SessionID: strconv.FormatInt(req.Id, 10),
		Query:     req.Query,
		Facts:     kunde.Facts(adresse),
		TopK:      topK,
	})
	if err != nil {
		if errors.Is(err, vectordb.ErrEmptyStore) {
			return nil, xerr.New(xerr.NotFound, "Das Archiv enthält keine Dokumente")
		}
		zlog.Error("chat pipeline failed", zap.Int64("kunde_id", req.Id), zap.Error(err))
		return nil, err
	}

	return &assistantRespond.ChatRespond{
		Answer:     result.Answer,
		Documents:  result.Documents,
		DurationMs: result.DurationMs,
	}, nil
}

func (s *chatService) Clear(ctx context.Context, id int64) error {
	if id <= 0 {
		return xerr.New(xerr.BadRequest, "invalid session id")
	}
	if err := s.store.Clear(ctx, strconv.FormatInt(id, 10)); err != nil {
		return err
	}
	zlog.Info("session cleared", zap.Int64("session_id", id))
	return nil
}
