package repository

import (
	"context"

	"WSpeicher/internal/modules/nutzer/domain/entity"
)

// KundeRepository 客户档案仓储
type KundeRepository interface {
	// GetByID 按 id 取客户及其地址；不存在时返回 (nil, nil, nil)
	GetByID(ctx context.Context, id int64) (*entity.Kunde, *entity.Adresse, error)
}
