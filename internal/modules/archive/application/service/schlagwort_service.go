package service

import (
	"context"
	"strings"
	"time"

	archiveRequest "WSpeicher/internal/modules/archive/application/dto/request"
	archiveRespond "WSpeicher/internal/modules/archive/application/dto/respond"
	"WSpeicher/internal/modules/archive/domain/entity"
	"WSpeicher/internal/modules/archive/domain/repository"
	"WSpeicher/pkg/xerr"
	"WSpeicher/pkg/zlog"

	"go.uber.org/zap"
)

type SchlagwortService interface {
	List(ctx context.Context) (*archiveRespond.ListSchlagworteRespond, error)
	Create(ctx context.Context, req archiveRequest.CreateSchlagwortRequest) (*archiveRespond.SchlagwortItem, error)
}

type schlagwortService struct {
	repo repository.SchlagwortRepository
}

func NewSchlagwortService(repo repository.SchlagwortRepository) SchlagwortService {
	return &schlagwortService{repo: repo}
}

func (s *schlagwortService) List(ctx context.Context) (*archiveRespond.ListSchlagworteRespond, error) {
	all, err := s.repo.ListSchlagworte(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]archiveRespond.SchlagwortItem, 0, len(all))
	for _, sw := range all {
		items = append(items, toItem(&sw))
	}
	return &archiveRespond.ListSchlagworteRespond{Total: len(items), Items: items}, nil
}

func (s *schlagwortService) Create(ctx context.Context, req archiveRequest.CreateSchlagwortRequest) (*archiveRespond.SchlagwortItem, error) {
	name := strings.TrimSpace(req.Schlagwort)
	if name == "" {
		return nil, xerr.New(xerr.BadRequest, "schlagwort is empty")
	}

	dsgvo := true
	if req.DsgvoRelevant != nil {
		dsgvo = *req.DsgvoRelevant
	}
	now := time.Now()
	sw := &entity.Schlagwort{
		Schlagwort:     name,
		Geschaeftsfeld: defaultEmpty(req.Geschaeftsfeld),
		Kategorie:      defaultEmpty(req.Kategorie),
		DsgvoRelevant:  dsgvo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateSchlagwort(ctx, sw); err != nil {
		zlog.Warn("schlagwort create failed", zap.String("schlagwort", name), zap.Error(err))
		return nil, xerr.New(xerr.BadRequest, "Schlagwort existiert bereits oder ist ungültig")
	}

	zlog.Info("schlagwort created", zap.Int64("id", sw.Id), zap.String("schlagwort", name))
	item := toItem(sw)
	return &item, nil
}

func toItem(sw *entity.Schlagwort) archiveRespond.SchlagwortItem {
	return archiveRespond.SchlagwortItem{
		Id:             sw.Id,
		Schlagwort:     sw.Schlagwort,
		Geschaeftsfeld: sw.Geschaeftsfeld,
		Kategorie:      sw.Kategorie,
		DsgvoRelevant:  sw.DsgvoRelevant,
	}
}

func defaultEmpty(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "empty"
	}
	return v
}
