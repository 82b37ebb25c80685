package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"WSpeicher/internal/modules/archive/domain/entity"
	"WSpeicher/internal/modules/archive/domain/repository"
	"WSpeicher/pkg/xerr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type schlagwortRepositoryImpl struct {
	db *gorm.DB
}

func NewSchlagwortRepository(db *gorm.DB) repository.SchlagwortRepository {
	return &schlagwortRepositoryImpl{db: db}
}

// withTx 返回绑定到指定事务的仓储副本
func (r *schlagwortRepositoryImpl) withTx(tx *gorm.DB) *schlagwortRepositoryImpl {
	return &schlagwortRepositoryImpl{db: tx}
}

func (r *schlagwortRepositoryImpl) ResolveOrCreateSchlagwort(ctx context.Context, name string, strict bool) (*entity.Schlagwort, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("schlagwort name is empty")
	}

	// 1) 精确命中
	var s entity.Schlagwort
	err := r.db.WithContext(ctx).Where("schlagwort = ?", name).Take(&s).Error
	if err == nil {
		return &s, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	// 2) 同义词命中：返回其所属 Schlagwort
	err = r.db.WithContext(ctx).
		Joins("JOIN synonyme ON synonyme.schlagwort_id = schlagworte.id").
		Where("synonyme.synonym = ?", name).
		Take(&s).Error
	if err == nil {
		return &s, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	// 3) 未命中：严格模式下是硬错误，否则以占位默认值新建
	if strict {
		return nil, false, xerr.ErrKeywordResolution.WithCause(fmt.Errorf("kein Schlagwort für %q", name))
	}

	now := time.Now()
	created := entity.Schlagwort{
		Schlagwort:     name,
		Geschaeftsfeld: "empty",
		Kategorie:      "empty",
		DsgvoRelevant:  true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	// 唯一索引 uniq_schlagwort_name 兜底并发：冲突时放弃插入并回查
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "schlagwort"}},
		DoNothing: true,
	}).Create(&created).Error
	if err != nil {
		return nil, false, err
	}
	if created.Id != 0 {
		return &created, true, nil
	}
	err = r.db.WithContext(ctx).Where("schlagwort = ?", name).Take(&s).Error
	if err != nil {
		return nil, false, err
	}
	return &s, false, nil
}

func (r *schlagwortRepositoryImpl) ResolveOrCreateFeld(ctx context.Context, name, typ string, schlagwortID int64) (*entity.Feld, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("feldname is empty")
	}

	// 同名 Feld 已存在时不覆盖类型与关键词关联（first-write-wins）
	var f entity.Feld
	err := r.db.WithContext(ctx).Where("feldname = ?", name).Take(&f).Error
	if err == nil {
		return &f, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	if typ == "" {
		typ = "empty"
	}
	created := entity.Feld{
		Feldname:     name,
		Feldtyp:      typ,
		SchlagwortId: schlagwortID,
		CreatedAt:    time.Now(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "feldname"}},
		DoNothing: true,
	}).Create(&created).Error
	if err != nil {
		return nil, false, err
	}
	if created.Id != 0 {
		return &created, true, nil
	}
	err = r.db.WithContext(ctx).Where("feldname = ?", name).Take(&f).Error
	if err != nil {
		return nil, false, err
	}
	return &f, false, nil
}

func (r *schlagwortRepositoryImpl) LinkDokumentSchlagwort(ctx context.Context, dokumentID, schlagwortID int64) (bool, error) {
	link := entity.DokumentSchlagwort{
		DokumentId:   dokumentID,
		SchlagwortId: schlagwortID,
		CreatedAt:    time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dokument_id"}, {Name: "schlagwort_id"}},
		DoNothing: true,
	}).Create(&link).Error
	if err != nil {
		return false, err
	}
	return link.Id != 0, nil
}

// CommitDokument 单事务解析文档全部字段并归档状态。
// 任意字段失败即整体回滚：不留下 Schlagwort/Feld/关联的任何部分写入。
func (r *schlagwortRepositoryImpl) CommitDokument(ctx context.Context, dok *entity.Dokument, fields []entity.FormField, strict bool) (*repository.CommitResult, error) {
	if dok == nil || dok.Id == 0 {
		return nil, fmt.Errorf("dokument not persisted")
	}

	result := &repository.CommitResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := r.withTx(tx)

		for _, field := range fields {
			s, createdS, err := txRepo.ResolveOrCreateSchlagwort(ctx, field.Name, strict)
			if err != nil {
				return err
			}
			if createdS {
				result.NewSchlagworte++
			}

			_, createdF, err := txRepo.ResolveOrCreateFeld(ctx, field.Name, field.Typ, s.Id)
			if err != nil {
				return err
			}
			if createdF {
				result.NewFelder++
			}

			linked, err := txRepo.LinkDokumentSchlagwort(ctx, dok.Id, s.Id)
			if err != nil {
				return err
			}
			if linked {
				result.Links++
			}
		}

		return tx.Model(&entity.Dokument{}).
			Where("id = ?", dok.Id).
			Updates(map[string]any{
				"status":     entity.DokumentStatusArchived,
				"reason":     "",
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	dok.Status = entity.DokumentStatusArchived
	return result, nil
}

func (r *schlagwortRepositoryImpl) ListSchlagworte(ctx context.Context) ([]entity.Schlagwort, error) {
	var out []entity.Schlagwort
	err := r.db.WithContext(ctx).Order("schlagwort ASC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *schlagwortRepositoryImpl) CreateSchlagwort(ctx context.Context, s *entity.Schlagwort) error {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Geschaeftsfeld == "" {
		s.Geschaeftsfeld = "empty"
	}
	if s.Kategorie == "" {
		s.Kategorie = "empty"
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *schlagwortRepositoryImpl) ListSchlagwortNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&entity.Schlagwort{}).
		Order("schlagwort ASC").
		Pluck("schlagwort", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
